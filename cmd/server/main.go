// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/controller"
	"github.com/unclebandit/crowdfund-backend/internal/db"
	"github.com/unclebandit/crowdfund-backend/internal/handler"
	"github.com/unclebandit/crowdfund-backend/internal/metrics"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
	"github.com/unclebandit/crowdfund-backend/internal/service"
	"github.com/unclebandit/crowdfund-backend/internal/storage"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "crowdfunding campaign API",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cfg, logger)
		},
	}
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or roll back schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(conn *sqlx.DB) error {
					return db.MigrateUp(conn.DB)
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid steps %q", args[0])
					}
					steps = n
				}
				return withDB(func(conn *sqlx.DB) error {
					return db.MigrateDown(conn.DB, steps)
				})
			},
		},
	)
	return cmd
}

func withDB(fn func(conn *sqlx.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	conn, err := db.Connect(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := fn(conn); err != nil {
		return err
	}
	logger.Info("migrations done")
	return nil
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	conn, err := db.Connect(cfg.DB, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	m := metrics.New()

	// Queue: AMQP when configured, in-process otherwise
	var q queue.Queue
	if cfg.AMQPURL != "" {
		aq, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			return err
		}
		defer aq.Close()
		q = aq
	} else {
		mq := queue.NewInMemoryQueue(logger)
		eventRepo := &repository.CampaignEventRepository{DB: conn}
		if err := queue.StartCampaignEventSubscriber(mq, service.NewEventRecorder(eventRepo, logger), logger); err != nil {
			return err
		}
		defer mq.Wait()
		q = mq
	}

	events := &chain.FactoryEventSource{Config: cfg.Chain}
	defer events.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	roundRepo := &repository.RoundRepository{DB: conn}
	images := &storage.LocalImageStore{Root: cfg.UploadDir}

	campaignService := &service.CampaignService{
		CampaignRepo:  campaignRepo,
		Reconciler:    &service.Reconciler{Events: events, Metrics: m, Logger: logger},
		Images:        images,
		Queue:         q,
		Metrics:       m,
		Logger:        logger,
		PlatformAdmin: cfg.PlatformAdmin,
	}
	roundService := &service.RoundService{RoundRepo: roundRepo, CampaignRepo: campaignRepo}

	router := &handler.Router{
		Campaigns: &controller.CampaignController{CampaignService: campaignService, Logger: logger},
		Rounds:    &controller.RoundController{RoundService: roundService, Logger: logger},
		Metrics:   m,
		Logger:    logger,
		ImageDir:  images.Dir(),
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
