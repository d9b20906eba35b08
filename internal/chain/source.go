package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/unclebandit/crowdfund-backend/internal/config"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

// FactoryEventSource validates the chain configuration and dials the RPC
// endpoint on first use, so a server without chain settings still boots and
// reports a configuration error per request.
type FactoryEventSource struct {
	Config config.ChainConfig

	mu     sync.Mutex
	client *ethclient.Client
}

func (s *FactoryEventSource) reader(ctx context.Context) (*EventReader, error) {
	if s.Config.CampaignInfoFactory == "" || s.Config.RPCURL == "" {
		return nil, appErrors.Configuration("chain.reader", "campaign factory address or RPC URL not configured")
	}
	factory, err := ParseAddress(s.Config.CampaignInfoFactory)
	if err != nil {
		return nil, appErrors.Configuration("chain.reader", "campaign factory: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		c, err := ethclient.DialContext(ctx, s.Config.RPCURL)
		if err != nil {
			return nil, appErrors.ChainInteraction("chain.reader", err, "dial RPC endpoint")
		}
		s.client = c
	}
	return &EventReader{Client: s.client, Factory: factory}, nil
}

// CampaignCreated reads every factory creation event.
func (s *FactoryEventSource) CampaignCreated(ctx context.Context) ([]CampaignCreatedEvent, error) {
	r, err := s.reader(ctx)
	if err != nil {
		return nil, err
	}
	events, err := r.CampaignCreated(ctx)
	if err != nil {
		return nil, appErrors.ChainInteraction("chain.reader", err, "read campaign events")
	}
	return events, nil
}

func (s *FactoryEventSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}
