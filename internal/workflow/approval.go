package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// State is a step of the approval workflow.
type State string

const (
	StateRequested         State = "Requested"
	StateNetworkVerified   State = "NetworkVerified"
	StateAdminVerified     State = "AdminVerified"
	StateTreasuryDeployed  State = "TreasuryDeployed"
	StateRecordUpdated     State = "RecordUpdated"
	StateLocalStateUpdated State = "LocalStateUpdated"
	StateFailed            State = "Failed"
)

// StepError reports the step an approval stopped at.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("approval failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// AdminReader returns the on-chain platform admin.
type AdminReader interface {
	PlatformAdmin(ctx context.Context, platformHash common.Hash) (common.Address, error)
}

// ApprovalStore records an approval in the campaign record store.
type ApprovalStore interface {
	ApproveCampaign(ctx context.Context, id int, adminAddress, treasuryAddress string) (*model.Campaign, error)
}

// Approver deploys a campaign's treasury and activates the campaign. It runs
// each step once; a failure after the deployment leaves the treasury on
// chain without a matching record.
type Approver struct {
	Wallet          chain.Wallet
	Receipts        chain.ReceiptFetcher
	Admins          AdminReader
	Records         ApprovalStore
	Board           *Board
	Network         chain.ChainParams
	TreasuryFactory common.Address
	PlatformHash    common.Hash
	// PlatformAdmin is the configured admin address; the wallet must match
	// it and the on-chain admin.
	PlatformAdmin string
	PollInterval  time.Duration
	Logger        *zap.Logger

	// OnStep is called after every completed step.
	OnStep func(State)
}

type ApprovalRequest struct {
	CampaignID      int
	CampaignAddress string
}

type ApprovalResult struct {
	State           State
	TransactionHash common.Hash
	TreasuryAddress common.Address
	Campaign        *model.Campaign
}

// Approve walks the workflow from Requested to LocalStateUpdated. On error
// the result's State is Failed and the error is a *StepError.
func (a *Approver) Approve(ctx context.Context, req ApprovalRequest) (*ApprovalResult, error) {
	res := &ApprovalResult{State: StateRequested}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.Int("campaign_id", req.CampaignID))

	fail := func(step State, err error) (*ApprovalResult, error) {
		res.State = StateFailed
		logger.Error("approval failed", zap.String("step", string(step)), zap.Error(err))
		return res, &StepError{Step: step, Err: err}
	}
	advance := func(s State) {
		res.State = s
		logger.Info("approval step completed", zap.String("step", string(s)))
		if a.OnStep != nil {
			a.OnStep(s)
		}
	}

	// Requested
	if req.CampaignID <= 0 || req.CampaignAddress == "" {
		return fail(StateRequested, appErrors.Validation("approve", "campaign ID and campaign address are required"))
	}
	campaignAddr, err := chain.ParseAddress(req.CampaignAddress)
	if err != nil {
		return fail(StateRequested, appErrors.Validation("approve", "%v", err))
	}
	if a.Wallet == nil {
		return fail(StateRequested, appErrors.Validation("approve", "no wallet connected"))
	}
	if a.PlatformAdmin == "" || a.TreasuryFactory == (common.Address{}) || a.PlatformHash == (common.Hash{}) {
		return fail(StateRequested, appErrors.Configuration("approve", "platform admin, treasury factory or platform hash not configured"))
	}
	walletAddr, err := a.Wallet.Address(ctx)
	if err != nil {
		return fail(StateRequested, appErrors.ChainInteraction("approve", err, "no wallet account available"))
	}
	if !chain.SameAddress(walletAddr.Hex(), a.PlatformAdmin) {
		return fail(StateRequested, appErrors.Authorization("approve", "Unauthorized: Admin access only"))
	}
	if a.OnStep != nil {
		a.OnStep(StateRequested)
	}

	// NetworkVerified
	if err := ensureNetwork(ctx, a.Wallet, a.Network); err != nil {
		return fail(StateNetworkVerified, appErrors.ChainInteraction("approve", err, "wrong network"))
	}
	advance(StateNetworkVerified)

	// AdminVerified
	onChainAdmin, err := a.Admins.PlatformAdmin(ctx, a.PlatformHash)
	if err != nil {
		return fail(StateAdminVerified, appErrors.ChainInteraction("approve", err, "read platform admin"))
	}
	if !chain.SameAddress(walletAddr.Hex(), onChainAdmin.Hex()) {
		return fail(StateAdminVerified, appErrors.Authorization("approve",
			"wallet %s is not the platform admin %s", walletAddr.Hex(), onChainAdmin.Hex()))
	}
	advance(StateAdminVerified)

	// TreasuryDeployed
	data, err := chain.PackTreasuryDeploy(a.PlatformHash, big.NewInt(0), campaignAddr)
	if err != nil {
		return fail(StateTreasuryDeployed, appErrors.ChainInteraction("approve", err, "encode treasury deployment"))
	}
	txHash, err := a.Wallet.SendTransaction(ctx, a.TreasuryFactory, data)
	if err != nil {
		return fail(StateTreasuryDeployed, appErrors.ChainInteraction("approve", err, "treasury deployment rejected"))
	}
	res.TransactionHash = txHash
	logger.Info("treasury deployment submitted", zap.String("tx", txHash.Hex()))

	receipt, err := chain.WaitReceipt(ctx, a.Receipts, txHash, a.PollInterval)
	if err != nil {
		msg := "wait for treasury deployment"
		if errors.Is(err, chain.ErrTransactionReverted) {
			msg = "treasury deployment reverted"
		}
		return fail(StateTreasuryDeployed, appErrors.ChainInteraction("approve", err, "%s", msg))
	}
	treasury, err := chain.TreasuryAddressFromReceipt(receipt)
	if err != nil {
		return fail(StateTreasuryDeployed, appErrors.ChainInteraction("approve", err, "receipt mined without a treasury deployment event"))
	}
	res.TreasuryAddress = treasury
	advance(StateTreasuryDeployed)

	// RecordUpdated
	campaign, err := a.Records.ApproveCampaign(ctx, req.CampaignID, walletAddr.Hex(), treasury.Hex())
	if err != nil {
		logger.Warn("treasury deployed but campaign record not updated",
			zap.String("treasury", treasury.Hex()),
			zap.String("tx", txHash.Hex()),
		)
		return fail(StateRecordUpdated, err)
	}
	res.Campaign = campaign
	advance(StateRecordUpdated)

	// LocalStateUpdated
	if a.Board != nil {
		address := campaign.CampaignAddress
		if address == "" {
			address = campaignAddr.Hex()
		}
		a.Board.ApplyApproval(req.CampaignID, model.StatusActive, treasury.Hex(), address)
	}
	advance(StateLocalStateUpdated)
	return res, nil
}
