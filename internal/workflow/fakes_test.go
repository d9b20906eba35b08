package workflow_test

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

var (
	adminAddr    = common.HexToAddress("0xA11CE00000000000000000000000000000000001")
	otherAddr    = common.HexToAddress("0xB0B0000000000000000000000000000000000002")
	campaignAddr = common.HexToAddress("0xCA00000000000000000000000000000000000003")
	treasuryAddr = common.HexToAddress("0x7EA0000000000000000000000000000000000004")
	factoryAddr  = common.HexToAddress("0xFAC0000000000000000000000000000000000005")
	platformHash = common.HexToHash("0x01")
	sentTx       = common.HexToHash("0x1234")
)

type fakeWallet struct {
	mu        sync.Mutex
	address   common.Address
	unknown   bool
	switchErr error
	added     []chain.ChainParams
	switches  int
	sent      [][]byte
	sentTo    []common.Address
}

func (w *fakeWallet) Address(context.Context) (common.Address, error) { return w.address, nil }

func (w *fakeWallet) SwitchChain(context.Context, *big.Int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.switches++
	if w.switchErr != nil {
		return w.switchErr
	}
	if w.unknown {
		return chain.ErrUnrecognizedChain
	}
	return nil
}

func (w *fakeWallet) AddChain(_ context.Context, p chain.ChainParams) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added = append(w.added, p)
	w.unknown = false
	return nil
}

func (w *fakeWallet) SendTransaction(_ context.Context, to common.Address, data []byte) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, data)
	w.sentTo = append(w.sentTo, to)
	return sentTx, nil
}

type fakeReceipts struct {
	receipt *types.Receipt
	pending int
}

func (r *fakeReceipts) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if r.pending > 0 {
		r.pending--
		return nil, ethereum.NotFound
	}
	return r.receipt, nil
}

type fakeAdmins struct {
	admin common.Address
	err   error
}

func (a fakeAdmins) PlatformAdmin(context.Context, common.Hash) (common.Address, error) {
	return a.admin, a.err
}

type fakeStore struct {
	campaign   *model.Campaign
	approveErr error
	approvals  []string
	updates    []model.CampaignUpdate
}

func (s *fakeStore) ApproveCampaign(_ context.Context, id int, admin, treasury string) (*model.Campaign, error) {
	s.approvals = append(s.approvals, treasury)
	if s.approveErr != nil {
		return nil, s.approveErr
	}
	return &model.Campaign{ID: id, Status: model.StatusActive, TreasuryAddress: treasury, CampaignAddress: campaignAddr.Hex()}, nil
}

func (s *fakeStore) GetCampaign(_ context.Context, id int) (*model.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != id {
		return nil, errors.New("not found")
	}
	cp := *s.campaign
	return &cp, nil
}

func (s *fakeStore) UpdateCampaign(_ context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	s.updates = append(s.updates, u)
	cp := *s.campaign
	cp.Status = u.Status
	cp.TransactionHash = u.TransactionHash
	if u.CampaignAddress != "" {
		cp.CampaignAddress = u.CampaignAddress
	}
	return &cp, nil
}

func treasuryDeployedLog() *types.Log {
	event := chain.TreasuryFactoryABI.Events[chain.TreasuryDeployedEventName]
	data, err := event.Inputs.NonIndexed().Pack(treasuryAddr)
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: factoryAddr,
		Topics: []common.Hash{
			event.ID,
			platformHash,
			common.BigToHash(big.NewInt(0)),
			common.BytesToHash(campaignAddr.Bytes()),
		},
		Data:   data,
		TxHash: sentTx,
	}
}

func campaignCreatedLog() *types.Log {
	event := chain.CampaignInfoFactoryABI.Events[chain.CampaignCreatedEventName]
	data, err := event.Inputs.NonIndexed().Pack(adminAddr, big.NewInt(100), big.NewInt(200), big.NewInt(300))
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: factoryAddr,
		Topics: []common.Hash{
			event.ID,
			chain.IdentifierHash("solar-x"),
			common.BytesToHash(campaignAddr.Bytes()),
		},
		Data:   data,
		TxHash: sentTx,
	}
}

func receiptWith(status uint64, logs ...*types.Log) *types.Receipt {
	return &types.Receipt{Status: status, TxHash: sentTx, Logs: logs}
}
