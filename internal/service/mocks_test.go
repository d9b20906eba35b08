package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/repository"
)

// MockCampaignRepo keeps campaigns in memory
type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	nextID    int

	LastFilter repository.CampaignFilter
	Total      int
	ListErr    error
	CreateErr  error
	Updates    []model.CampaignUpdate
}

func NewMockCampaignRepo(cs ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}, nextID: 1}
	for _, c := range cs {
		m.campaigns[c.ID] = c
		if c.ID >= m.nextID {
			m.nextID = c.ID + 1
		}
	}
	return m
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID
	m.nextID++
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) GetBySlug(_ context.Context, slug string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.campaigns {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, appErrors.NewCampaignSlugNotFound(slug)
}

func (m *MockCampaignRepo) Update(_ context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	m.Updates = append(m.Updates, u)
	if u.Status != "" {
		c.Status = u.Status
	}
	if u.TransactionHash != "" {
		c.TransactionHash = u.TransactionHash
	}
	if u.CampaignAddress != "" {
		c.CampaignAddress = u.CampaignAddress
	}
	if u.TreasuryAddress != "" {
		c.TreasuryAddress = u.TreasuryAddress
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, f repository.CampaignFilter) ([]*model.Campaign, int, error) {
	m.LastFilter = f
	if m.ListErr != nil {
		return nil, 0, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*model.Campaign{}
	for id := m.nextID; id >= 0; id-- {
		c, ok := m.campaigns[id]
		if !ok {
			continue
		}
		if f.CreatorAddress != "" && !strings.EqualFold(f.CreatorAddress, c.CreatorAddress) {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, c.Status) {
			continue
		}
		if f.Addressed && c.CampaignAddress == "" && c.TransactionHash == "" {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	total := len(out)
	if m.Total > 0 {
		total = m.Total
	}
	return out, total, nil
}

func hasStatus(set []model.CampaignStatus, s model.CampaignStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

// FakeEventSource returns canned events
type FakeEventSource struct {
	Events []chain.CampaignCreatedEvent
	Err    error
	Calls  int
}

func (f *FakeEventSource) CampaignCreated(context.Context) ([]chain.CampaignCreatedEvent, error) {
	f.Calls++
	return f.Events, f.Err
}

// RecordingQueue captures published payloads
type RecordingQueue struct {
	mu        sync.Mutex
	Published []any
	Err       error
}

func (q *RecordingQueue) Publish(_ string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.Published = append(q.Published, payload)
	return nil
}

func (q *RecordingQueue) Subscribe(string, func(any) error) error { return nil }

func (q *RecordingQueue) Events() []model.CampaignEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []model.CampaignEvent{}
	for _, p := range q.Published {
		if e, ok := p.(model.CampaignEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

var errDB = errors.New("connection refused")
