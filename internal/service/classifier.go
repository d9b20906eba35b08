package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// Classify derives the display status. Stored lifecycle states win; for
// anything else the schedule decides, with missing timestamps read as now.
func Classify(v model.CampaignView, now time.Time) model.DisplayStatus {
	switch v.Status {
	case model.StatusDraft:
		return model.DisplayDraft
	case model.StatusPendingApproval:
		return model.DisplayPendingApproval
	case model.StatusFailed:
		return model.DisplayFailed
	case model.StatusCompleted:
		return model.DisplayCompleted
	}

	ts := now.Unix()
	launch, deadline := v.LaunchTime, v.Deadline
	if launch == 0 {
		launch = ts
	}
	if deadline == 0 {
		deadline = ts
	}

	switch {
	case ts < launch:
		return model.DisplayUpcoming
	case ts > deadline:
		return model.DisplayEnded
	default:
		return model.DisplayActive
	}
}

// IsLive reports a campaign that is both approved and inside its window.
func IsLive(v model.CampaignView, now time.Time) bool {
	return v.Status == model.StatusActive && Classify(v, now) == model.DisplayActive
}

// ApplyDisplayStatus fills DisplayStatus on every view.
func ApplyDisplayStatus(views []model.CampaignView, now time.Time) {
	for i := range views {
		views[i].DisplayStatus = Classify(views[i], now)
	}
}

// ComputeStats aggregates the creator dashboard numbers.
func ComputeStats(views []model.CampaignView, now time.Time) model.CampaignStats {
	stats := model.CampaignStats{TotalCampaigns: len(views)}
	raised := decimal.Zero
	progress := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, v := range views {
		r, rerr := decimal.NewFromString(v.TotalRaised)
		if rerr == nil {
			raised = raised.Add(r)
		}
		if IsLive(v, now) {
			stats.ActiveCampaigns++
		}

		g, gerr := decimal.NewFromString(v.GoalAmount)
		if rerr != nil || gerr != nil || g.IsZero() {
			continue
		}
		progress = progress.Add(r.Div(g).Mul(hundred))
	}

	stats.TotalRaised = raised.String()
	if len(views) > 0 {
		stats.AverageProgress = progress.Div(decimal.NewFromInt(int64(len(views)))).InexactFloat64()
	}
	return stats
}
