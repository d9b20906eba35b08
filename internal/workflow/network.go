package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
)

// ensureNetwork switches the wallet to params.ChainID, registering the chain
// first when the wallet reports it as unknown.
func ensureNetwork(ctx context.Context, w chain.Wallet, params chain.ChainParams) error {
	err := w.SwitchChain(ctx, params.ChainID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, chain.ErrUnrecognizedChain) {
		return fmt.Errorf("switch network: %w", err)
	}

	if err := w.AddChain(ctx, params); err != nil {
		return fmt.Errorf("add network %s: %w", params.ChainName, err)
	}
	if err := w.SwitchChain(ctx, params.ChainID); err != nil {
		return fmt.Errorf("switch network after adding it: %w", err)
	}
	return nil
}
