package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
)

// EventRepository defines the methods the recorder needs
type EventRepository interface {
	Create(ctx context.Context, e *model.CampaignEvent) error
}

// EventRecorder writes every published lifecycle event to the audit table
type EventRecorder struct {
	Repo   EventRepository
	Logger *zap.Logger
}

// NewEventRecorder constructor
func NewEventRecorder(repo EventRepository, logger *zap.Logger) *EventRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventRecorder{Repo: repo, Logger: logger}
}

// Record persists one event. A returned error makes the queue retry it.
func (r *EventRecorder) Record(ctx context.Context, e model.CampaignEvent) error {
	e.ID = 0
	if err := r.Repo.Create(ctx, &e); err != nil {
		r.Logger.Error("failed to record campaign event",
			zap.Int("campaign_id", e.CampaignID),
			zap.String("type", string(e.Type)),
			zap.Error(err),
		)
		return err
	}
	r.Logger.Info("campaign event recorded",
		zap.Int("event_id", e.ID),
		zap.Int("campaign_id", e.CampaignID),
		zap.String("type", string(e.Type)),
		zap.String("status", string(e.Status)),
	)
	return nil
}

var _ queue.EventRecorder = (*EventRecorder)(nil)
