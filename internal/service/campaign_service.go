// internal/service/campaign_service.go
package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/metrics"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/queue"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

// ImageStore persists an uploaded image and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// DefaultStatuses is the status filter used when a listing names none.
var DefaultStatuses = []model.CampaignStatus{model.StatusActive, model.StatusPendingApproval}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	Reconciler    *Reconciler
	Images        ImageStore
	Queue         queue.Queue
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
	PlatformAdmin string
	Now           func() time.Time
}

// ImageUpload is an optional banner image sent with a new campaign.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// CreateCampaignInput carries the raw form values of a new campaign.
type CreateCampaignInput struct {
	Title          string
	Description    string
	Location       string
	FundingGoal    string
	StartTime      string
	EndTime        string
	CreatorAddress string
	Status         string
	Image          *ImageUpload
}

// ListQuery selects campaigns for the public listing. Page 0 disables
// pagination.
type ListQuery struct {
	Statuses []model.CampaignStatus
	Search   string
	Page     int
	PageSize int
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// CreateCampaign validates the form, stores the banner image and inserts the
// row. New campaigns start as draft unless pending_approval is requested.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	const op = "campaign.create"

	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.FundingGoal) == "" || in.StartTime == "" || in.EndTime == "" || in.CreatorAddress == "" {
		return nil, appErrors.Validation(op, "Missing required fields")
	}

	goal, err := decimal.NewFromString(strings.TrimSpace(in.FundingGoal))
	if err != nil || !goal.IsPositive() {
		return nil, appErrors.Validation(op, "fundingGoal must be a positive number")
	}
	start, ok := parseTime(in.StartTime)
	if !ok {
		return nil, appErrors.Validation(op, "invalid startTime %q", in.StartTime)
	}
	end, ok := parseTime(in.EndTime)
	if !ok {
		return nil, appErrors.Validation(op, "invalid endTime %q", in.EndTime)
	}
	if !end.After(start) {
		return nil, appErrors.Validation(op, "endTime must be after startTime")
	}
	if !common.IsHexAddress(in.CreatorAddress) {
		return nil, appErrors.Validation(op, "invalid creatorAddress")
	}

	status := model.CampaignStatus(in.Status)
	if status == "" {
		status = model.StatusDraft
	}
	if status != model.StatusDraft && status != model.StatusPendingApproval {
		return nil, appErrors.Validation(op, "new campaigns cannot be created with status %q", in.Status)
	}

	now := s.now()
	c := &model.Campaign{
		Slug:           GenerateSlug(title, now),
		Title:          title,
		Description:    in.Description,
		Location:       in.Location,
		FundingGoal:    goal.String(),
		StartTime:      start,
		EndTime:        end,
		CreatorAddress: in.CreatorAddress,
		Status:         status,
		CreatedAt:      now,
		Images:         []model.CampaignImage{},
	}

	if in.Image != nil && in.Image.Content != nil && s.Images != nil {
		url, err := s.Images.Save(ctx, in.Image.Filename, in.Image.Content)
		if err != nil {
			return nil, appErrors.Persistence(op, err, "failed to store image")
		}
		c.Images = append(c.Images, model.CampaignImage{ImageURL: url, IsMainImage: true})
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		for _, img := range c.Images {
			if rerr := s.Images.Remove(ctx, img.ImageURL); rerr != nil {
				s.logger().Warn("failed to remove orphaned image", zap.String("url", img.ImageURL), zap.Error(rerr))
			}
		}
		return nil, appErrors.Persistence(op, err, "Failed to create campaign")
	}

	s.logger().Info("campaign created", zap.Int("campaign_id", c.ID), zap.String("slug", c.Slug))
	s.publish(model.CampaignEvent{
		CampaignID: c.ID,
		Type:       model.EventCampaignCreated,
		Status:     c.Status,
		Actor:      c.CreatorAddress,
	})
	return c, nil
}

// patchTransitions lists the status changes a PATCH may make. Activation
// only happens through ApproveCampaign.
var patchTransitions = map[model.CampaignStatus][]model.CampaignStatus{
	model.StatusDraft:           {model.StatusPendingApproval, model.StatusFailed},
	model.StatusPendingApproval: {model.StatusPendingApproval, model.StatusFailed},
	model.StatusFailed:          {model.StatusPendingApproval, model.StatusFailed},
}

func checkPatchTransition(op string, from, to model.CampaignStatus) error {
	next, ok := patchTransitions[from]
	if !ok {
		return appErrors.Validation(op, "campaign in status %q cannot be updated", from)
	}
	if to == "" {
		return nil
	}
	for _, st := range next {
		if st == to {
			return nil
		}
	}
	if to == model.StatusActive {
		return appErrors.Validation(op, "campaigns are activated through admin approval")
	}
	return appErrors.Validation(op, "cannot move campaign from %q to %q", from, to)
}

// UpdateCampaign applies a PATCH from the submission flow. Treasury
// addresses and activation belong to ApproveCampaign.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	const op = "campaign.update"

	if id <= 0 {
		return nil, appErrors.Validation(op, "Campaign ID is required")
	}
	if u.Status != "" && !u.Status.Valid() {
		return nil, appErrors.Validation(op, "invalid status %q", u.Status)
	}
	if u.TreasuryAddress != "" {
		return nil, appErrors.Validation(op, "treasuryAddress is set by admin approval")
	}
	if u == (model.CampaignUpdate{}) {
		return nil, appErrors.Validation(op, "nothing to update")
	}

	current, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, err)
	}
	if err := checkPatchTransition(op, current.Status, u.Status); err != nil {
		return nil, err
	}
	if err := checkAddressInvariant(op, merged(current, u)); err != nil {
		return nil, err
	}

	updated, err := s.CampaignRepo.Update(ctx, id, u)
	if err != nil {
		return nil, storeError(op, err)
	}

	s.publish(model.CampaignEvent{
		CampaignID:      updated.ID,
		Type:            model.EventCampaignUpdated,
		Status:          updated.Status,
		TransactionHash: updated.TransactionHash,
		CampaignAddress: updated.CampaignAddress,
		TreasuryAddress: updated.TreasuryAddress,
	})
	return updated, nil
}

// ApproveCampaign activates a campaign once its treasury is deployed. Only
// the configured platform admin may call it.
func (s *CampaignService) ApproveCampaign(ctx context.Context, id int, adminAddress, treasuryAddress string) (*model.Campaign, error) {
	const op = "campaign.approve"

	c, err := s.approve(ctx, op, id, adminAddress, treasuryAddress)
	if s.Metrics != nil {
		s.Metrics.ApprovalsTotal.WithLabelValues(outcome(err)).Inc()
	}
	if err != nil {
		s.logger().Warn("approval rejected", zap.Int("campaign_id", id), zap.Error(err))
		return nil, err
	}

	s.logger().Info("campaign approved", zap.Int("campaign_id", c.ID), zap.String("treasury", c.TreasuryAddress))
	s.publish(model.CampaignEvent{
		CampaignID:      c.ID,
		Type:            model.EventCampaignApproved,
		Status:          c.Status,
		Actor:           adminAddress,
		TransactionHash: c.TransactionHash,
		CampaignAddress: c.CampaignAddress,
		TreasuryAddress: c.TreasuryAddress,
	})
	return c, nil
}

func (s *CampaignService) approve(ctx context.Context, op string, id int, adminAddress, treasuryAddress string) (*model.Campaign, error) {
	if id <= 0 {
		return nil, appErrors.Validation(op, "Campaign ID is required")
	}
	if s.PlatformAdmin == "" {
		return nil, appErrors.Configuration(op, "platform admin address not configured")
	}
	if !chain.SameAddress(adminAddress, s.PlatformAdmin) {
		return nil, appErrors.Authorization(op, "Unauthorized: Admin access only")
	}

	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, err)
	}
	if c.CampaignAddress == "" {
		return nil, appErrors.Validation(op, "Campaign address not found")
	}
	if !common.IsHexAddress(treasuryAddress) {
		return nil, appErrors.Validation(op, "Treasury address is required")
	}

	updated, err := s.CampaignRepo.Update(ctx, id, model.CampaignUpdate{
		Status:          model.StatusActive,
		TreasuryAddress: treasuryAddress,
	})
	if err != nil {
		return nil, storeError(op, err)
	}
	return updated, nil
}

// ListCampaigns returns reconciled campaigns in the requested statuses.
// Views without any campaign address are dropped.
func (s *CampaignService) ListCampaigns(ctx context.Context, q ListQuery) ([]model.CampaignView, map[string]int, error) {
	const op = "campaign.list"

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, nil, appErrors.Validation(op, "invalid status %q", st)
		}
	}

	filter := repository.CampaignFilter{
		Statuses:  statuses,
		Search:    strings.TrimSpace(q.Search),
		Addressed: true,
	}
	page, pageSize := q.Page, q.PageSize
	if page > 0 {
		if pageSize < 1 {
			pageSize = defaultPageSize
		}
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}
		filter.Offset = (page - 1) * pageSize
		filter.Limit = pageSize
	}

	var total int
	views, err := s.Reconciler.Load(ctx, func(ctx context.Context) ([]*model.Campaign, error) {
		rows, n, err := s.CampaignRepo.ListCampaigns(ctx, filter)
		if err != nil {
			return nil, appErrors.Persistence(op, err, "Failed to fetch campaigns")
		}
		total = n
		return rows, nil
	})
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	out := make([]model.CampaignView, 0, len(views))
	for _, v := range views {
		if v.Address == "" {
			continue
		}
		v.DisplayStatus = Classify(v, now)
		out = append(out, v)
	}

	var pagination map[string]int
	if page > 0 {
		pagination = map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": (total + pageSize - 1) / pageSize,
		}
	}
	return out, pagination, nil
}

// ListUserCampaigns returns every campaign of a creator, drafts included,
// with the dashboard stats. An empty address lists all creators.
func (s *CampaignService) ListUserCampaigns(ctx context.Context, creatorAddress string) ([]model.CampaignView, model.CampaignStats, error) {
	const op = "campaign.list_user"

	views, err := s.Reconciler.Load(ctx, func(ctx context.Context) ([]*model.Campaign, error) {
		rows, _, err := s.CampaignRepo.ListCampaigns(ctx, repository.CampaignFilter{CreatorAddress: creatorAddress})
		if err != nil {
			return nil, appErrors.Persistence(op, err, "Failed to fetch user campaigns")
		}
		return rows, nil
	})
	if err != nil {
		return nil, model.CampaignStats{}, err
	}

	now := s.now()
	ApplyDisplayStatus(views, now)
	return views, ComputeStats(views, now), nil
}

// GetCampaignBySlug fetches a single campaign with its images
func (s *CampaignService) GetCampaignBySlug(ctx context.Context, slug string) (*model.Campaign, error) {
	const op = "campaign.get"
	if strings.TrimSpace(slug) == "" {
		return nil, appErrors.Validation(op, "slug is required")
	}
	c, err := s.CampaignRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(op, err)
	}
	return c, nil
}

// GetCampaign fetches a single campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("campaign.get", err)
	}
	return c, nil
}

// publish is best effort: the write already happened, so a broker failure
// is logged and counted only.
func (s *CampaignService) publish(evt model.CampaignEvent) {
	if s.Queue == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.now()
	}
	if err := s.Queue.Publish(queue.CampaignEventsTopic, evt); err != nil {
		s.logger().Warn("failed to publish campaign event",
			zap.String("type", string(evt.Type)),
			zap.Int("campaign_id", evt.CampaignID),
			zap.Error(err),
		)
		if s.Metrics != nil {
			s.Metrics.QueuePublishFailedTotal.WithLabelValues(string(evt.Type)).Inc()
		}
	}
}

func merged(c *model.Campaign, u model.CampaignUpdate) model.Campaign {
	out := *c
	if u.Status != "" {
		out.Status = u.Status
	}
	if u.TransactionHash != "" {
		out.TransactionHash = u.TransactionHash
	}
	if u.CampaignAddress != "" {
		out.CampaignAddress = u.CampaignAddress
	}
	if u.TreasuryAddress != "" {
		out.TreasuryAddress = u.TreasuryAddress
	}
	return out
}

func checkAddressInvariant(op string, c model.Campaign) error {
	switch c.Status {
	case model.StatusActive:
		if c.CampaignAddress == "" || c.TreasuryAddress == "" {
			return appErrors.Validation(op, "active campaigns need both a campaign and a treasury address")
		}
	case model.StatusDraft:
		if c.CampaignAddress != "" || c.TreasuryAddress != "" {
			return appErrors.Validation(op, "draft campaigns cannot carry contract addresses")
		}
	}
	return nil
}

// storeError keeps not-found errors and classifies the rest as persistence
// failures.
func storeError(op string, err error) error {
	if appErrors.KindOf(err) != appErrors.KindInternal {
		return err
	}
	return appErrors.Persistence(op, err, "database error")
}

func outcome(err error) string {
	if err == nil {
		return "approved"
	}
	return string(appErrors.KindOf(err))
}
