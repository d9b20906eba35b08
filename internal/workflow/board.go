package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

// DefaultRefreshInterval is how often Run recomputes display statuses.
const DefaultRefreshInterval = 60 * time.Second

// Board is the operator's in-memory copy of the campaigns under review.
type Board struct {
	mu        sync.RWMutex
	campaigns []model.CampaignView
	now       func() time.Time
}

func NewBoard(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{now: now}
}

// Replace swaps in freshly fetched views and classifies them.
func (b *Board) Replace(views []model.CampaignView) {
	cp := make([]model.CampaignView, len(views))
	copy(cp, views)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.campaigns = cp
	service.ApplyDisplayStatus(b.campaigns, b.now())
}

// Campaigns returns a snapshot of the board.
func (b *Board) Campaigns() []model.CampaignView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.CampaignView, len(b.campaigns))
	copy(out, b.campaigns)
	return out
}

// Find returns the view with the given campaign ID.
func (b *Board) Find(id int) (model.CampaignView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, v := range b.campaigns {
		if v.ID == id {
			return v, true
		}
	}
	return model.CampaignView{}, false
}

// ApplyApproval merges an approval into the matching view. It reports
// whether the campaign was on the board.
func (b *Board) ApplyApproval(id int, status model.CampaignStatus, treasuryAddress, campaignAddress string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.campaigns {
		v := &b.campaigns[i]
		if v.ID != id {
			continue
		}
		v.Status = status
		v.TreasuryAddress = treasuryAddress
		if campaignAddress != "" {
			v.CampaignAddress = campaignAddress
			v.Address = campaignAddress
		}
		v.DisplayStatus = service.Classify(*v, b.now())
		return true
	}
	return false
}

// Recompute re-derives every display status from the stored data.
func (b *Board) Recompute() {
	b.mu.Lock()
	defer b.mu.Unlock()
	service.ApplyDisplayStatus(b.campaigns, b.now())
}

// Run recomputes display statuses every interval until ctx is done, calling
// onTick with a snapshot after each pass. No data is refetched.
func (b *Board) Run(ctx context.Context, interval time.Duration, onTick func([]model.CampaignView)) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Recompute()
			if onTick != nil {
				onTick(b.Campaigns())
			}
		}
	}
}
