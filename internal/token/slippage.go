package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// BpsDenominator is the number of basis points in 100%.
const BpsDenominator = 10000

// ErrInvalidSlippage is returned when a slippage tolerance falls outside
// the [0, 10000] basis point range.
var ErrInvalidSlippage = errors.New("slippage must be between 0 and 10000 basis points")

// Slippage is a slippage tolerance expressed in basis points (1 bps = 0.01%).
type Slippage struct {
	bps int64
}

// NewSlippage validates bps and returns a Slippage value.
func NewSlippage(bps int64) (Slippage, error) {
	if bps < 0 || bps > BpsDenominator {
		return Slippage{}, fmt.Errorf("%w: got %d", ErrInvalidSlippage, bps)
	}
	return Slippage{bps: bps}, nil
}

// SlippageFromPercent converts a percentage (1.0 == 1%) to basis points.
func SlippageFromPercent(percent decimal.Decimal) (Slippage, error) {
	return NewSlippage(percent.Mul(decimal.NewFromInt(100)).IntPart())
}

// Bps returns the tolerance in basis points.
func (s Slippage) Bps() int64 { return s.bps }

// Percent returns the tolerance as a percentage.
func (s Slippage) Percent() decimal.Decimal {
	return decimal.NewFromInt(s.bps).Shift(-2)
}

// MinimumAmount returns floor(raw * (10000 - bps) / 10000), the smallest
// acceptable output for a trade of the given raw size.
func (s Slippage) MinimumAmount(raw *big.Int) *big.Int {
	out := new(big.Int).Mul(raw, big.NewInt(BpsDenominator-s.bps))
	return out.Quo(out, big.NewInt(BpsDenominator))
}

func (s Slippage) String() string {
	return fmt.Sprintf("%d bps", s.bps)
}
