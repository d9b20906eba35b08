package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrEventNotFound       = errors.New("expected event not found in receipt")

	errReceiptPending = errors.New("receipt not yet available")
)

// ReceiptFetcher is satisfied by ethclient.Client.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

const (
	DefaultReceiptPollInterval = 2 * time.Second
	// MaxReceiptWait bounds how long WaitReceipt keeps polling.
	MaxReceiptWait = 10 * time.Minute
)

// WaitReceipt polls until the transaction is mined or ctx is done. A
// reverted receipt is returned together with ErrTransactionReverted.
func WaitReceipt(ctx context.Context, client ReceiptFetcher, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultReceiptPollInterval
	}

	receipt, err := backoff.Retry(ctx, func() (*types.Receipt, error) {
		receipt, err := client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			return receipt, nil
		case err == nil, errors.Is(err, ethereum.NotFound):
			return nil, errReceiptPending
		default:
			return nil, backoff.Permanent(fmt.Errorf("fetch receipt %s: %w", hash.Hex(), err))
		}
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(MaxReceiptWait),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s: %w", hash.Hex(), ErrTransactionReverted)
	}
	return receipt, nil
}

// TreasuryAddressFromReceipt finds the TreasuryFactoryTreasuryDeployed log
// in the receipt and returns the deployed treasury.
func TreasuryAddressFromReceipt(receipt *types.Receipt) (common.Address, error) {
	event := TreasuryFactoryABI.Events[TreasuryDeployedEventName]
	for _, l := range receipt.Logs {
		if l == nil || len(l.Topics) == 0 || l.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(l.Data)
		if err != nil {
			return common.Address{}, fmt.Errorf("unpack %s: %w", TreasuryDeployedEventName, err)
		}
		if len(values) == 1 {
			if addr, ok := values[0].(common.Address); ok {
				return addr, nil
			}
		}
	}
	return common.Address{}, fmt.Errorf("%s: %w", TreasuryDeployedEventName, ErrEventNotFound)
}

// CampaignCreatedFromReceipt returns the creation event emitted by the
// factory transaction in the receipt.
func CampaignCreatedFromReceipt(receipt *types.Receipt) (CampaignCreatedEvent, error) {
	event := CampaignInfoFactoryABI.Events[CampaignCreatedEventName]
	for _, l := range receipt.Logs {
		if l == nil || len(l.Topics) == 0 || l.Topics[0] != event.ID {
			continue
		}
		return DecodeCampaignCreated(*l)
	}
	return CampaignCreatedEvent{}, fmt.Errorf("%s: %w", CampaignCreatedEventName, ErrEventNotFound)
}
