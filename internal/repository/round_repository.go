package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// RoundRepositoryInterface defines methods used by the round service
type RoundRepositoryInterface interface {
	ListAll(ctx context.Context) ([]model.Round, error)
	ListByCampaign(ctx context.Context, campaignID int) ([]model.Round, error)
	SetCampaignRounds(ctx context.Context, campaignID int, roundIDs []int) error
}

type RoundRepository struct {
	DB *sqlx.DB
}

func (r *RoundRepository) ListAll(ctx context.Context) ([]model.Round, error) {
	rounds := []model.Round{}
	if err := r.DB.SelectContext(ctx, &rounds, `SELECT id, title FROM rounds ORDER BY id`); err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *RoundRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.Round, error) {
	query := `
        SELECT r.id, r.title
        FROM rounds r
        JOIN campaign_rounds cr ON cr.round_id = r.id
        WHERE cr.campaign_id = $1
        ORDER BY r.id
    `
	rounds := []model.Round{}
	if err := r.DB.SelectContext(ctx, &rounds, query, campaignID); err != nil {
		return nil, err
	}
	return rounds, nil
}

// SetCampaignRounds replaces the campaign's round associations. Either every
// association is written or none is.
func (r *RoundRepository) SetCampaignRounds(ctx context.Context, campaignID int, roundIDs []int) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_rounds WHERE campaign_id = $1`, campaignID); err != nil {
		return err
	}
	for _, roundID := range roundIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_rounds (campaign_id, round_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			campaignID, roundID,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

var _ RoundRepositoryInterface = (*RoundRepository)(nil)
