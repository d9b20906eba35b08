package workflow_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/workflow"
)

func draftCampaign() *model.Campaign {
	start := time.Unix(1_750_000_000, 0).UTC()
	return &model.Campaign{
		ID:             3,
		Slug:           "solar-x",
		FundingGoal:    "1.5",
		StartTime:      start,
		EndTime:        start.Add(30 * 24 * time.Hour),
		CreatorAddress: adminAddr.Hex(),
		Status:         model.StatusDraft,
	}
}

func newSubmitter(w *fakeWallet, r *fakeReceipts, store *fakeStore) *workflow.Submitter {
	return &workflow.Submitter{
		Wallet:       w,
		Receipts:     r,
		Records:      store,
		Network:      chain.ChainParams{ChainID: big.NewInt(44787)},
		Factory:      factoryAddr,
		PlatformHash: platformHash,
		PollInterval: time.Millisecond,
	}
}

func TestSubmit_Success(t *testing.T) {
	w := &fakeWallet{address: adminAddr}
	r := &fakeReceipts{receipt: receiptWith(types.ReceiptStatusSuccessful, campaignCreatedLog())}
	store := &fakeStore{campaign: draftCampaign()}

	res, err := newSubmitter(w, r, store).Submit(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, campaignAddr, res.CampaignAddress)
	require.Len(t, store.updates, 1)
	assert.Equal(t, model.StatusPendingApproval, store.updates[0].Status)
	assert.Equal(t, sentTx.Hex(), store.updates[0].TransactionHash)
	assert.Equal(t, campaignAddr.Hex(), store.updates[0].CampaignAddress)

	c := draftCampaign()
	expected, err := chain.PackCreateCampaign(adminAddr, chain.IdentifierHash("solar-x"), platformHash, chain.CampaignData{
		LaunchTime: big.NewInt(c.StartTime.Unix()),
		Deadline:   big.NewInt(c.EndTime.Unix()),
		GoalAmount: big.NewInt(1_500_000_000_000_000_000),
	})
	require.NoError(t, err)
	require.Len(t, w.sent, 1)
	assert.Equal(t, expected, w.sent[0])
}

func TestSubmit_RevertMarksFailed(t *testing.T) {
	w := &fakeWallet{address: adminAddr}
	r := &fakeReceipts{receipt: receiptWith(types.ReceiptStatusFailed)}
	store := &fakeStore{campaign: draftCampaign()}

	_, err := newSubmitter(w, r, store).Submit(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrTransactionReverted)

	require.Len(t, store.updates, 1)
	assert.Equal(t, model.StatusFailed, store.updates[0].Status)
	assert.Equal(t, sentTx.Hex(), store.updates[0].TransactionHash)
}

func TestSubmit_Rejects(t *testing.T) {
	c := draftCampaign()
	c.Status = model.StatusActive
	_, err := newSubmitter(&fakeWallet{address: adminAddr}, &fakeReceipts{}, &fakeStore{campaign: c}).Submit(context.Background(), 3)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	w := &fakeWallet{address: otherAddr}
	_, err = newSubmitter(w, &fakeReceipts{}, &fakeStore{campaign: draftCampaign()}).Submit(context.Background(), 3)
	assert.ErrorIs(t, err, appErrors.ErrAuthorization)
	assert.Empty(t, w.sent)

	s := newSubmitter(&fakeWallet{address: adminAddr}, &fakeReceipts{}, &fakeStore{campaign: draftCampaign()})
	s.Factory = [20]byte{}
	_, err = s.Submit(context.Background(), 3)
	assert.ErrorIs(t, err, appErrors.ErrConfiguration)
}
