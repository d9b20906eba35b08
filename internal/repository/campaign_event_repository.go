package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

type CampaignEventRepository struct {
	DB *sqlx.DB
}

// Create inserts an audit event and fills in its ID
func (r *CampaignEventRepository) Create(ctx context.Context, e *model.CampaignEvent) error {
	e.RecordedAt = time.Now()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.RecordedAt
	}

	query := `
        INSERT INTO campaign_events
        (campaign_id, type, status, actor, transaction_hash, campaign_address, treasury_address, occurred_at, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRowxContext(ctx, query,
		e.CampaignID,
		e.Type,
		e.Status,
		e.Actor,
		e.TransactionHash,
		e.CampaignAddress,
		e.TreasuryAddress,
		e.OccurredAt,
		e.RecordedAt,
	).Scan(&e.ID)
}

// ListByCampaign returns the audit trail of one campaign, oldest first
func (r *CampaignEventRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.CampaignEvent, error) {
	query := `
        SELECT id, campaign_id, type, status, actor, transaction_hash, campaign_address, treasury_address, occurred_at, recorded_at
        FROM campaign_events
        WHERE campaign_id = $1
        ORDER BY occurred_at, id
    `
	events := []model.CampaignEvent{}
	if err := r.DB.SelectContext(ctx, &events, query, campaignID); err != nil {
		return nil, err
	}
	return events, nil
}
