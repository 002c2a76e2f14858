package uniswap

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"dexflow/internal/dex"
)

// divPrecision is the number of fractional digits kept when dividing
// pool state into a price. Generous enough for any 18-decimal token.
const divPrecision = 40

var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// midPriceFromReserves derives the pool mid price from V2 reserves.
// With reverse false it returns token1 per token0; with reverse true,
// token0 per token1. Decimals are applied so the result is in human units.
func midPriceFromReserves(reserve0, reserve1 *big.Int, decimals0, decimals1 int32, reverse bool) (decimal.Decimal, error) {
	if reserve0 == nil || reserve1 == nil || reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("%w: pair has empty reserves", dex.ErrNoMarket)
	}
	r0 := decimal.NewFromBigInt(reserve0, -decimals0)
	r1 := decimal.NewFromBigInt(reserve1, -decimals1)
	if reverse {
		return r0.DivRound(r1, divPrecision), nil
	}
	return r1.DivRound(r0, divPrecision), nil
}

// priceFromSqrtX96 derives the pool price from a V3 slot0 sqrtPriceX96.
// The raw ratio (sqrtPriceX96/2^96)^2 is token1 per token0 in base units;
// decimals convert it to human units and reverse inverts the direction.
func priceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 int32, reverse bool) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("%w: pool is uninitialized", dex.ErrNoMarket)
	}
	num := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	den := q192
	shift := decimals0 - decimals1
	if reverse {
		num, den = den, num
		shift = -shift
	}
	ratio := decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), divPrecision)
	return ratio.Shift(shift), nil
}

// priceImpactBps estimates the price impact of spending rawIn against a
// pool with the given in-range liquidity, as rawIn * 10000 / liquidity.
// This is a linear approximation that ignores the tick distribution; it
// serves as an order-of-magnitude guardrail, not an execution estimate.
func priceImpactBps(rawIn, liquidity *big.Int) int64 {
	if liquidity == nil || liquidity.Sign() == 0 {
		return math.MaxInt64
	}
	impact := new(big.Int).Mul(rawIn, big.NewInt(10000))
	impact.Quo(impact, liquidity)
	if !impact.IsInt64() {
		return math.MaxInt64
	}
	return impact.Int64()
}
