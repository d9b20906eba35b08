package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ContractCaller is satisfied by ethclient.Client.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// GlobalParams reads platform settings from the global-parameters contract.
type GlobalParams struct {
	Client  ContractCaller
	Address common.Address
}

// PlatformAdmin returns the admin address registered for platformHash.
func (g *GlobalParams) PlatformAdmin(ctx context.Context, platformHash common.Hash) (common.Address, error) {
	data, err := GlobalParamsABI.Pack("getPlatformAdminAddress", [32]byte(platformHash))
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getPlatformAdminAddress: %w", err)
	}

	out, err := g.Client.CallContract(ctx, ethereum.CallMsg{To: &g.Address, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call getPlatformAdminAddress: %w", err)
	}

	values, err := GlobalParamsABI.Unpack("getPlatformAdminAddress", out)
	if err != nil {
		return common.Address{}, fmt.Errorf("unpack getPlatformAdminAddress: %w", err)
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("unpack getPlatformAdminAddress: got %d values", len(values))
	}
	admin, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unpack getPlatformAdminAddress: unexpected type %T", values[0])
	}
	return admin, nil
}

// PackTreasuryDeploy builds calldata for TreasuryFactory.deploy.
func PackTreasuryDeploy(platformHash common.Hash, bytecodeIndex *big.Int, campaign common.Address) ([]byte, error) {
	return TreasuryFactoryABI.Pack("deploy", [32]byte(platformHash), bytecodeIndex, campaign)
}

// CampaignData mirrors the createCampaign tuple argument.
type CampaignData struct {
	LaunchTime *big.Int `abi:"launchTime"`
	Deadline   *big.Int `abi:"deadline"`
	GoalAmount *big.Int `abi:"goalAmount"`
}

// PackCreateCampaign builds calldata for CampaignInfoFactory.createCampaign
// with no platform data.
func PackCreateCampaign(creator common.Address, identifierHash common.Hash, platformHash common.Hash, data CampaignData) ([]byte, error) {
	return CampaignInfoFactoryABI.Pack("createCampaign",
		creator,
		[32]byte(identifierHash),
		[][32]byte{platformHash},
		[][32]byte{},
		[][32]byte{},
		data,
	)
}

// IdentifierHash is keccak256 of the campaign's identifier string.
func IdentifierHash(identifier string) common.Hash {
	return crypto.Keccak256Hash([]byte(identifier))
}

// ParseAddress validates a hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseHash32 validates a 0x-prefixed 32-byte hex value.
func ParseHash32(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid bytes32 %q: got %d bytes", s, len(b))
	}
	return common.BytesToHash(b), nil
}

// SameAddress compares two hex addresses case-insensitively. Empty strings
// never match.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b) && common.IsHexAddress(a) && common.IsHexAddress(b)
}
