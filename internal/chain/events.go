package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CampaignCreatedEvent is one decoded CampaignInfoFactoryCampaignCreated log.
type CampaignCreatedEvent struct {
	IdentifierHash  common.Hash
	CampaignAddress common.Address
	Owner           common.Address
	LaunchTime      *big.Int
	Deadline        *big.Int
	GoalAmount      *big.Int
	TransactionHash common.Hash
	BlockNumber     uint64
}

// LogFilterer is the subset of ethclient.Client the reader needs.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// EventReader scans the campaign factory's creation logs.
type EventReader struct {
	Client  LogFilterer
	Factory common.Address
}

// CampaignCreated returns every creation event from block 0 to the latest
// block. It rescans the full history on each call.
func (r *EventReader) CampaignCreated(ctx context.Context) ([]CampaignCreatedEvent, error) {
	event := CampaignInfoFactoryABI.Events[CampaignCreatedEventName]
	q := ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		ToBlock:   nil,
		Addresses: []common.Address{r.Factory},
		Topics:    [][]common.Hash{{event.ID}},
	}

	logs, err := r.Client.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", CampaignCreatedEventName, err)
	}

	events := make([]CampaignCreatedEvent, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		e, err := DecodeCampaignCreated(l)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// DecodeCampaignCreated decodes a factory log into a CampaignCreatedEvent.
func DecodeCampaignCreated(l types.Log) (CampaignCreatedEvent, error) {
	event := CampaignInfoFactoryABI.Events[CampaignCreatedEventName]
	if len(l.Topics) != 3 || l.Topics[0] != event.ID {
		return CampaignCreatedEvent{}, fmt.Errorf("log %s:%d is not %s", l.TxHash.Hex(), l.Index, CampaignCreatedEventName)
	}

	values, err := event.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return CampaignCreatedEvent{}, fmt.Errorf("unpack %s: %w", CampaignCreatedEventName, err)
	}
	if len(values) != 4 {
		return CampaignCreatedEvent{}, fmt.Errorf("unpack %s: got %d values", CampaignCreatedEventName, len(values))
	}

	owner, ok1 := values[0].(common.Address)
	launch, ok2 := values[1].(*big.Int)
	deadline, ok3 := values[2].(*big.Int)
	goal, ok4 := values[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return CampaignCreatedEvent{}, fmt.Errorf("unpack %s: unexpected value types", CampaignCreatedEventName)
	}

	return CampaignCreatedEvent{
		IdentifierHash:  l.Topics[1],
		CampaignAddress: common.BytesToAddress(l.Topics[2].Bytes()),
		Owner:           owner,
		LaunchTime:      launch,
		Deadline:        deadline,
		GoalAmount:      goal,
		TransactionHash: l.TxHash,
		BlockNumber:     l.BlockNumber,
	}, nil
}
