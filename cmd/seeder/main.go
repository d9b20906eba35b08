//cmd/seeder/main.go
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	"github.com/unclebandit/crowdfund-backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	conn, err := db.Connect(cfg.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer conn.Close()

	seedFiles := os.Args[1:]
	if len(seedFiles) == 0 {
		seedFiles = []string{"seed/rounds.sql"}
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("failed to read seed file", zap.String("file", file), zap.Error(err))
		}

		if _, err := conn.Exec(string(content)); err != nil {
			logger.Fatal("failed to execute seed file", zap.String("file", file), zap.Error(err))
		}
		logger.Info("seeded", zap.String("file", file))
	}

	logger.Info("database seeding completed")
}
