package workflow

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// SubmissionStore reads and patches campaign records.
type SubmissionStore interface {
	GetCampaign(ctx context.Context, id int) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error)
}

// Submitter registers a stored campaign with the campaign factory.
type Submitter struct {
	Wallet       chain.Wallet
	Receipts     chain.ReceiptFetcher
	Records      SubmissionStore
	Network      chain.ChainParams
	Factory      common.Address
	PlatformHash common.Hash
	PollInterval time.Duration
	Logger       *zap.Logger
}

type SubmitResult struct {
	TransactionHash common.Hash
	CampaignAddress common.Address
	Campaign        *model.Campaign
}

// Submit sends createCampaign for a draft (or previously failed) campaign.
// A mined transaction moves the record to pending_approval; a reverted one
// marks it failed. Both keep the transaction hash.
func (s *Submitter) Submit(ctx context.Context, id int) (*SubmitResult, error) {
	const op = "submit"
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Int("campaign_id", id))

	if s.Factory == (common.Address{}) || s.PlatformHash == (common.Hash{}) {
		return nil, appErrors.Configuration(op, "campaign factory or platform hash not configured")
	}
	if s.Wallet == nil {
		return nil, appErrors.Validation(op, "no wallet connected")
	}

	c, err := s.Records.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusDraft && c.Status != model.StatusFailed {
		return nil, appErrors.Validation(op, "campaign %d is %s, only draft or failed campaigns can be submitted", id, c.Status)
	}

	walletAddr, err := s.Wallet.Address(ctx)
	if err != nil {
		return nil, appErrors.ChainInteraction(op, err, "no wallet account available")
	}
	if !chain.SameAddress(walletAddr.Hex(), c.CreatorAddress) {
		return nil, appErrors.Authorization(op, "wallet %s is not the campaign creator", walletAddr.Hex())
	}

	goal, err := chain.ParseUnits(c.FundingGoal)
	if err != nil {
		return nil, appErrors.Validation(op, "invalid funding goal %q", c.FundingGoal)
	}
	data, err := chain.PackCreateCampaign(walletAddr, chain.IdentifierHash(c.Slug), s.PlatformHash, chain.CampaignData{
		LaunchTime: big.NewInt(c.StartTime.Unix()),
		Deadline:   big.NewInt(c.EndTime.Unix()),
		GoalAmount: goal,
	})
	if err != nil {
		return nil, appErrors.ChainInteraction(op, err, "encode createCampaign")
	}

	if err := ensureNetwork(ctx, s.Wallet, s.Network); err != nil {
		return nil, appErrors.ChainInteraction(op, err, "wrong network")
	}

	txHash, err := s.Wallet.SendTransaction(ctx, s.Factory, data)
	if err != nil {
		return nil, appErrors.ChainInteraction(op, err, "createCampaign rejected")
	}
	res := &SubmitResult{TransactionHash: txHash}
	logger.Info("campaign creation submitted", zap.String("tx", txHash.Hex()))

	receipt, err := chain.WaitReceipt(ctx, s.Receipts, txHash, s.PollInterval)
	if err != nil {
		if errors.Is(err, chain.ErrTransactionReverted) {
			if _, uerr := s.Records.UpdateCampaign(ctx, id, model.CampaignUpdate{
				Status:          model.StatusFailed,
				TransactionHash: txHash.Hex(),
			}); uerr != nil {
				logger.Error("failed to mark campaign failed", zap.Error(uerr))
			}
		}
		return res, appErrors.ChainInteraction(op, err, "createCampaign not confirmed")
	}

	update := model.CampaignUpdate{
		Status:          model.StatusPendingApproval,
		TransactionHash: txHash.Hex(),
	}
	// the reconciler also finds the address by transaction hash, so a
	// missing log only leaves the stored address empty
	if evt, err := chain.CampaignCreatedFromReceipt(receipt); err == nil {
		res.CampaignAddress = evt.CampaignAddress
		update.CampaignAddress = evt.CampaignAddress.Hex()
	} else {
		logger.Warn("creation log not found in receipt", zap.Error(err))
	}

	updated, err := s.Records.UpdateCampaign(ctx, id, update)
	if err != nil {
		return res, err
	}
	res.Campaign = updated
	return res, nil
}
