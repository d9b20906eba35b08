package service

import (
	"context"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

type RoundService struct {
	RoundRepo    repository.RoundRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
}

func (s *RoundService) ListRounds(ctx context.Context) ([]model.Round, error) {
	rounds, err := s.RoundRepo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Persistence("round.list", err, "Failed to fetch rounds")
	}
	return rounds, nil
}

// CampaignRounds lists the rounds a campaign is assigned to.
func (s *RoundService) CampaignRounds(ctx context.Context, campaignID int) ([]model.Round, error) {
	const op = "round.list_campaign"
	if campaignID <= 0 {
		return nil, appErrors.Validation(op, "Campaign ID is required")
	}
	rounds, err := s.RoundRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, appErrors.Persistence(op, err, "Failed to fetch campaign rounds")
	}
	return rounds, nil
}

// AssignRounds replaces the campaign's rounds with roundIDs. Duplicates are
// collapsed; the write is all or nothing.
func (s *RoundService) AssignRounds(ctx context.Context, campaignID int, roundIDs []int) error {
	const op = "round.assign"
	if campaignID <= 0 {
		return appErrors.Validation(op, "Campaign ID is required")
	}

	seen := make(map[int]struct{}, len(roundIDs))
	ids := make([]int, 0, len(roundIDs))
	for _, id := range roundIDs {
		if id <= 0 {
			return appErrors.Validation(op, "invalid round ID %d", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if s.CampaignRepo != nil {
		if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
			return storeError(op, err)
		}
	}
	if err := s.RoundRepo.SetCampaignRounds(ctx, campaignID, ids); err != nil {
		return appErrors.Persistence(op, err, "Failed to add campaign to rounds")
	}
	return nil
}
