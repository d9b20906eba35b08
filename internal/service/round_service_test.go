package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type MockRoundRepo struct {
	rounds   []model.Round
	assigned map[int][]int
	setErr   error
}

func (m *MockRoundRepo) ListAll(context.Context) ([]model.Round, error) { return m.rounds, nil }

func (m *MockRoundRepo) ListByCampaign(_ context.Context, campaignID int) ([]model.Round, error) {
	out := []model.Round{}
	for _, id := range m.assigned[campaignID] {
		for _, r := range m.rounds {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *MockRoundRepo) SetCampaignRounds(_ context.Context, campaignID int, roundIDs []int) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.assigned == nil {
		m.assigned = map[int][]int{}
	}
	m.assigned[campaignID] = roundIDs
	return nil
}

func TestAssignRounds(t *testing.T) {
	rounds := &MockRoundRepo{rounds: []model.Round{{ID: 1, Title: "Spring"}, {ID: 2, Title: "Summer"}}}
	s := &service.RoundService{RoundRepo: rounds, CampaignRepo: NewMockCampaignRepo(&model.Campaign{ID: 5})}
	ctx := context.Background()

	require.NoError(t, s.AssignRounds(ctx, 5, []int{2, 1, 2}))
	assert.Equal(t, []int{2, 1}, rounds.assigned[5])

	got, err := s.CampaignRounds(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// replacing with an empty set clears the campaign
	require.NoError(t, s.AssignRounds(ctx, 5, nil))
	assert.Empty(t, rounds.assigned[5])
}

func TestAssignRounds_Errors(t *testing.T) {
	rounds := &MockRoundRepo{}
	s := &service.RoundService{RoundRepo: rounds, CampaignRepo: NewMockCampaignRepo(&model.Campaign{ID: 5})}
	ctx := context.Background()

	assert.ErrorIs(t, s.AssignRounds(ctx, 0, []int{1}), appErrors.ErrValidation)
	assert.ErrorIs(t, s.AssignRounds(ctx, 5, []int{-1}), appErrors.ErrValidation)
	assert.ErrorIs(t, s.AssignRounds(ctx, 6, []int{1}), appErrors.ErrNotFound)

	rounds.setErr = errDB
	assert.ErrorIs(t, s.AssignRounds(ctx, 5, []int{1}), appErrors.ErrPersistence)
}
