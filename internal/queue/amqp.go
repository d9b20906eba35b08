package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes JSON payloads to durable RabbitMQ queues named after
// the topic. Subscribers get the raw JSON body as a []byte payload.
type AMQPQueue struct {
	conn   *amqp.Connection
	logger *zap.Logger

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

func DialAMQP(url string, logger *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, logger: logger, declared: map[string]bool{}}, nil
}

func (q *AMQPQueue) declare(ch *amqp.Channel, topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.declare(q.ch, topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes topic with manual acks: a handler error requeues the
// delivery once, a second failure drops it.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	q.mu.Lock()
	err = q.declare(ch, topic)
	q.mu.Unlock()
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				q.logger.Warn("failed to handle delivery", zap.String("topic", topic), zap.Bool("redelivered", d.Redelivered), zap.Error(err))
				_ = d.Nack(false, !d.Redelivered)
				continue
			}
			_ = d.Ack(false)
		}
	}()
	return nil
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		_ = q.ch.Close()
	}
	return q.conn.Close()
}

var (
	_ Queue = (*InMemoryQueue)(nil)
	_ Queue = (*AMQPQueue)(nil)
)
