package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrUnrecognizedChain is returned by SwitchChain when the wallet does not
// know the requested chain (EIP-3085 error code 4902).
var ErrUnrecognizedChain = errors.New("chain not added to wallet")

const unrecognizedChainCode = 4902

// ChainParams is the wallet_addEthereumChain payload.
type ChainParams struct {
	ChainID        *big.Int
	ChainName      string
	CurrencyName   string
	CurrencySymbol string
	Decimals       int
	RPCURLs        []string
	ExplorerURLs   []string
}

// Wallet is the operator's signing account.
type Wallet interface {
	Address(ctx context.Context) (common.Address, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
	AddChain(ctx context.Context, params ChainParams) error
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// ====================== JSON-RPC wallet ======================

// RPCWallet talks to an EIP-1193 style wallet exposed over JSON-RPC.
type RPCWallet struct {
	client *rpc.Client
}

func DialRPCWallet(ctx context.Context, url string) (*RPCWallet, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet %s: %w", url, err)
	}
	return &RPCWallet{client: c}, nil
}

func (w *RPCWallet) Close() { w.client.Close() }

func (w *RPCWallet) Address(ctx context.Context) (common.Address, error) {
	var accounts []common.Address
	if err := w.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if err := w.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
			return common.Address{}, fmt.Errorf("eth_accounts: %w", err)
		}
	}
	if len(accounts) == 0 {
		return common.Address{}, errors.New("wallet exposes no accounts")
	}
	return accounts[0], nil
}

func (w *RPCWallet) SwitchChain(ctx context.Context, chainID *big.Int) error {
	params := map[string]string{"chainId": hexutil.EncodeBig(chainID)}
	err := w.client.CallContext(ctx, nil, "wallet_switchEthereumChain", params)
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == unrecognizedChainCode {
		return fmt.Errorf("%w: %s", ErrUnrecognizedChain, err)
	}
	return fmt.Errorf("wallet_switchEthereumChain: %w", err)
}

type addChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

func (w *RPCWallet) AddChain(ctx context.Context, p ChainParams) error {
	payload := addChainParams{
		ChainID:   hexutil.EncodeBig(p.ChainID),
		ChainName: p.ChainName,
		NativeCurrency: nativeCurrency{
			Name:     p.CurrencyName,
			Symbol:   p.CurrencySymbol,
			Decimals: p.Decimals,
		},
		RPCURLs:           p.RPCURLs,
		BlockExplorerURLs: p.ExplorerURLs,
	}
	if err := w.client.CallContext(ctx, nil, "wallet_addEthereumChain", payload); err != nil {
		return fmt.Errorf("wallet_addEthereumChain: %w", err)
	}
	return nil
}

func (w *RPCWallet) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from, err := w.Address(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	tx := map[string]interface{}{
		"from": from,
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	var hash common.Hash
	if err := w.client.CallContext(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		return common.Hash{}, fmt.Errorf("eth_sendTransaction: %w", err)
	}
	return hash, nil
}

// ====================== Local key wallet ======================

// KeyBackend is the subset of ethclient.Client used to sign and broadcast.
type KeyBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyWallet signs locally with a private key and broadcasts through an RPC
// node. "Switching" chains means confirming the node serves that chain;
// AddChain redials to the chain's RPC URL.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	backend KeyBackend
	chainID *big.Int
	dial    func(ctx context.Context, url string) (KeyBackend, error)
}

func NewKeyWallet(hexKey string, backend KeyBackend) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(trim0x(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyWallet{
		key:     key,
		backend: backend,
		dial: func(ctx context.Context, url string) (KeyBackend, error) {
			return ethclient.DialContext(ctx, url)
		},
	}, nil
}

func trim0x(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

func (w *KeyWallet) Address(context.Context) (common.Address, error) {
	return crypto.PubkeyToAddress(w.key.PublicKey), nil
}

func (w *KeyWallet) SwitchChain(ctx context.Context, chainID *big.Int) error {
	got, err := w.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	if got.Cmp(chainID) != 0 {
		return fmt.Errorf("%w: node serves chain %s, want %s", ErrUnrecognizedChain, got, chainID)
	}
	w.chainID = got
	return nil
}

func (w *KeyWallet) AddChain(ctx context.Context, p ChainParams) error {
	if len(p.RPCURLs) == 0 {
		return errors.New("add chain: no RPC URL")
	}
	backend, err := w.dial(ctx, p.RPCURLs[0])
	if err != nil {
		return fmt.Errorf("add chain %s: %w", p.ChainName, err)
	}
	w.backend = backend
	return nil
}

func (w *KeyWallet) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := crypto.PubkeyToAddress(w.key.PublicKey)
	chainID := w.chainID
	if chainID == nil {
		id, err := w.backend.ChainID(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("read chain id: %w", err)
		}
		chainID = id
	}

	nonce, err := w.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := w.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash(), nil
}

var (
	_ Wallet = (*RPCWallet)(nil)
	_ Wallet = (*KeyWallet)(nil)
)
