package service

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	"github.com/unclebandit/crowdfund-backend/internal/metrics"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// EventSource yields the factory's CampaignCreated history.
type EventSource interface {
	CampaignCreated(ctx context.Context) ([]chain.CampaignCreatedEvent, error)
}

// Reconciler joins campaign rows with their on-chain creation events.
type Reconciler struct {
	Events  EventSource
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Reconcile reads the full event history and merges it into rows. Any
// event-read failure fails the whole call.
func (r *Reconciler) Reconcile(ctx context.Context, rows []*model.Campaign) ([]model.CampaignView, error) {
	events, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.merge(rows, events), nil
}

// Load runs the row query and the event scan concurrently, then merges
// them. Either failure fails the call.
func (r *Reconciler) Load(ctx context.Context, rows func(context.Context) ([]*model.Campaign, error)) ([]model.CampaignView, error) {
	var (
		campaigns []*model.Campaign
		events    []chain.CampaignCreatedEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaigns, err = rows(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = r.scan(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r.merge(campaigns, events), nil
}

func (r *Reconciler) scan(ctx context.Context) ([]chain.CampaignCreatedEvent, error) {
	start := time.Now()
	events, err := r.Events.CampaignCreated(ctx)
	if r.Metrics != nil {
		r.Metrics.ChainScanDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	if r.Metrics != nil {
		r.Metrics.ChainEventsScanned.Set(float64(len(events)))
	}
	return events, nil
}

func (r *Reconciler) merge(rows []*model.Campaign, events []chain.CampaignCreatedEvent) []model.CampaignView {
	views := MergeCampaigns(rows, events)
	if r.Logger != nil {
		matched := 0
		for _, v := range views {
			if v.OnChain {
				matched++
			}
		}
		r.Logger.Debug("reconciled campaigns",
			zap.Int("rows", len(rows)),
			zap.Int("events", len(events)),
			zap.Int("matched", matched),
		)
	}
	return views
}

// MergeCampaigns matches each row to the event emitted by the same
// transaction (hash compared case-insensitively) and merges the pair.
func MergeCampaigns(rows []*model.Campaign, events []chain.CampaignCreatedEvent) []model.CampaignView {
	byTx := make(map[string]*chain.CampaignCreatedEvent, len(events))
	for i := range events {
		key := strings.ToLower(events[i].TransactionHash.Hex())
		if _, seen := byTx[key]; !seen {
			byTx[key] = &events[i]
		}
	}

	views := make([]model.CampaignView, 0, len(rows))
	for _, row := range rows {
		var event *chain.CampaignCreatedEvent
		if row.TransactionHash != "" {
			event = byTx[strings.ToLower(row.TransactionHash)]
		}
		views = append(views, MergeCampaign(row, event))
	}
	return views
}

// MergeCampaign builds the view for one row. On-chain owner, schedule and
// goal win over stored values when event is non-nil and the field is set.
func MergeCampaign(row *model.Campaign, event *chain.CampaignCreatedEvent) model.CampaignView {
	v := model.CampaignView{
		ID:              row.ID,
		Slug:            row.Slug,
		Title:           row.Title,
		Description:     row.Description,
		Location:        row.Location,
		Status:          row.Status,
		FundingGoal:     row.FundingGoal,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		CreatorAddress:  row.CreatorAddress,
		TransactionHash: row.TransactionHash,
		CampaignAddress: row.CampaignAddress,
		TreasuryAddress: row.TreasuryAddress,

		Address:     row.CampaignAddress,
		Owner:       row.CreatorAddress,
		LaunchTime:  unixOrZero(row.StartTime),
		Deadline:    unixOrZero(row.EndTime),
		GoalAmount:  row.FundingGoal,
		TotalRaised: "0",
		Images:      row.Images,
	}
	if v.Images == nil {
		v.Images = []model.CampaignImage{}
	}
	if event == nil {
		return v
	}

	v.OnChain = true
	if v.Address == "" && event.CampaignAddress != (common.Address{}) {
		v.Address = event.CampaignAddress.Hex()
	}
	if event.Owner != (common.Address{}) {
		v.Owner = event.Owner.Hex()
	}
	if event.LaunchTime != nil && event.LaunchTime.Sign() > 0 {
		v.LaunchTime = event.LaunchTime.Int64()
	}
	if event.Deadline != nil && event.Deadline.Sign() > 0 {
		v.Deadline = event.Deadline.Int64()
	}
	if event.GoalAmount != nil && event.GoalAmount.Sign() > 0 {
		v.GoalAmount = chain.FormatUnits(event.GoalAmount)
	}
	return v
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
