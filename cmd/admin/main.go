// cmd/admin/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	"github.com/unclebandit/crowdfund-backend/internal/client"
	"github.com/unclebandit/crowdfund-backend/internal/config"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "operator tools for campaign submission and approval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		pendingCommand(),
		approveCommand(),
		submitCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what every command needs: config, logger and the record store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	api    *client.Client
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, api: client.New(cfg.APIURL)}, nil
}

// chainSession holds the node connection and the operator wallet.
type chainSession struct {
	node   *ethclient.Client
	wallet chain.Wallet
	close  func()
}

func (e *env) openChain(ctx context.Context) (*chainSession, error) {
	if e.cfg.Chain.RPCURL == "" {
		return nil, appErrors.Configuration("admin", "RPC_URL not configured")
	}
	node, err := ethclient.DialContext(ctx, e.cfg.Chain.RPCURL)
	if err != nil {
		return nil, appErrors.ChainInteraction("admin", err, "dial RPC endpoint")
	}

	s := &chainSession{node: node, close: node.Close}
	switch {
	case e.cfg.Wallet.PrivateKey != "":
		w, err := chain.NewKeyWallet(e.cfg.Wallet.PrivateKey, node)
		if err != nil {
			node.Close()
			return nil, appErrors.Configuration("admin", "WALLET_PRIVATE_KEY: %v", err)
		}
		s.wallet = w
	case e.cfg.Wallet.RPCURL != "":
		w, err := chain.DialRPCWallet(ctx, e.cfg.Wallet.RPCURL)
		if err != nil {
			node.Close()
			return nil, appErrors.ChainInteraction("admin", err, "connect wallet")
		}
		s.wallet = w
		s.close = func() {
			w.Close()
			node.Close()
		}
	default:
		node.Close()
		return nil, appErrors.Validation("admin", "no wallet connected: set WALLET_PRIVATE_KEY or WALLET_RPC_URL")
	}
	return s, nil
}

func networkParams(c config.ChainConfig) chain.ChainParams {
	p := chain.ChainParams{
		ChainID:        c.ChainIDBig(),
		ChainName:      c.ChainName,
		CurrencyName:   c.NativeCurrency,
		CurrencySymbol: c.NativeCurrency,
		Decimals:       chain.TokenDecimals,
	}
	if c.RPCURL != "" {
		p.RPCURLs = []string{c.RPCURL}
	}
	if c.ExplorerURL != "" {
		p.ExplorerURLs = []string{c.ExplorerURL}
	}
	return p
}

// optionalAddress parses a configured address; empty stays zero so the
// workflow reports it as unconfigured.
func optionalAddress(name, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	a, err := chain.ParseAddress(s)
	if err != nil {
		return common.Address{}, appErrors.Configuration("admin", "%s: %v", name, err)
	}
	return a, nil
}

func optionalHash(name, s string) (common.Hash, error) {
	if s == "" {
		return common.Hash{}, nil
	}
	h, err := chain.ParseHash32(s)
	if err != nil {
		return common.Hash{}, appErrors.Configuration("admin", "%s: %v", name, err)
	}
	return h, nil
}
