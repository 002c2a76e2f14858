package token

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenInfo describes a token on a specific chain. Identity is the
// (address, chain) pair; Symbol is a display label and must not be
// assumed unique across chains.
type TokenInfo struct {
	Symbol   string `json:"symbol" mapstructure:"symbol"`
	Address  string `json:"address" mapstructure:"address"`
	Decimals int32  `json:"decimals" mapstructure:"decimals"`
	Chain    string `json:"chain" mapstructure:"chain"`
	IsNative bool   `json:"is_native" mapstructure:"is_native"`
}

// EqualID reports whether two tokens refer to the same on-chain asset.
func (t TokenInfo) EqualID(other TokenInfo) bool {
	return strings.EqualFold(t.Address, other.Address) && t.Chain == other.Chain
}

// ToBaseUnits converts a human-readable amount to base units
// (wei, lamports, ...) as amount * 10^decimals, truncated toward zero.
func (t TokenInfo) ToBaseUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(t.Decimals).Truncate(0).BigInt()
}

// FromBaseUnits converts base units back to a human-readable amount.
// The division by 10^decimals is exact.
func (t TokenInfo) FromBaseUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, 0).Shift(-t.Decimals)
}

// Amount wraps a value in this token's units.
func (t TokenInfo) Amount(value decimal.Decimal) TokenAmount {
	return TokenAmount{Token: t, Value: value}
}

// AmountFromBaseUnits wraps a raw base-unit value.
func (t TokenInfo) AmountFromBaseUnits(raw *big.Int) TokenAmount {
	return TokenAmount{Token: t, Value: t.FromBaseUnits(raw)}
}

func (t TokenInfo) String() string {
	return fmt.Sprintf("%s(%s@%s)", t.Symbol, t.Address, t.Chain)
}

// TokenAmount is a token together with a human-unit value.
type TokenAmount struct {
	Token TokenInfo       `json:"token"`
	Value decimal.Decimal `json:"value"`
}

// BaseUnits returns the amount in the token's base units.
func (a TokenAmount) BaseUnits() *big.Int {
	return a.Token.ToBaseUnits(a.Value)
}

func (a TokenAmount) String() string {
	return fmt.Sprintf("%s %s", a.Value.String(), a.Token.Symbol)
}
