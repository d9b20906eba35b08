// internal/db/db.go
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/config"
)

// Connect opens and pings the campaign database.
func Connect(cfg config.DBConfig, logger *zap.Logger) (*sqlx.DB, error) {
	logger.Info("connecting to database",
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
		zap.String("user", cfg.User),
	)

	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	logger.Info("connected to database")
	return db, nil
}
