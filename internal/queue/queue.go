package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// CampaignEventsTopic carries model.CampaignEvent payloads.
const CampaignEventsTopic = "campaign_events"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers to in-process subscribers with retry
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup

	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logger,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{
			Topic:      topic,
			Payload:    payload,
			MaxRetries: q.MaxRetries,
		}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()
	for {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		q.Logger.Warn("job failed",
			zap.String("topic", job.Topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if job.RetryCount > job.MaxRetries {
			q.Logger.Error("job permanently failed", zap.String("topic", job.Topic), zap.Any("payload", job.Payload))
			return
		}

		// linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every in-flight job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

// EventRecorder persists campaign events.
type EventRecorder interface {
	Record(ctx context.Context, e model.CampaignEvent) error
}

// StartCampaignEventSubscriber wires the recorder to the events topic. It
// accepts in-process events and JSON bodies from AMQP.
func StartCampaignEventSubscriber(q Queue, recorder EventRecorder, logger *zap.Logger) error {
	return q.Subscribe(CampaignEventsTopic, func(payload any) error {
		var evt model.CampaignEvent
		switch p := payload.(type) {
		case model.CampaignEvent:
			evt = p
		case []byte:
			if err := json.Unmarshal(p, &evt); err != nil {
				logger.Warn("invalid campaign event body", zap.Error(err))
				return nil // no retry
			}
		default:
			logger.Warn("invalid campaign event payload", zap.String("type", fmt.Sprintf("%T", payload)))
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return recorder.Record(ctx, evt)
	})
}
