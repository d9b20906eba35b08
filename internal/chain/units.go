package chain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed-point scale of on-chain token amounts.
const TokenDecimals = 18

// FormatUnits renders an amount scaled by 10^18 as a decimal string
// without trailing zeros.
func FormatUnits(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -TokenDecimals).String()
}

// ParseUnits converts a decimal string into its 10^18-scaled integer.
// Digits past the 18th decimal place are truncated.
func ParseUnits(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return d.Shift(TokenDecimals).BigInt(), nil
}
