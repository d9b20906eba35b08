package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

// The worker drains the campaign_events queue into the audit table.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required for the worker")
	}

	conn, err := db.Connect(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	q, err := queue.DialAMQP(cfg.AMQPURL, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	recorder := service.NewEventRecorder(&repository.CampaignEventRepository{DB: conn}, logger)
	if err := queue.StartCampaignEventSubscriber(q, recorder, logger); err != nil {
		return err
	}

	logger.Info("worker running, waiting for campaign events", zap.String("queue", queue.CampaignEventsTopic))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("worker stopped")
	return nil
}
