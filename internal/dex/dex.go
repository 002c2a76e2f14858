// Package dex defines the venue-agnostic trading contract shared by all
// concrete DEX clients.
package dex

import (
	"context"

	"github.com/shopspring/decimal"

	"dexflow/internal/token"
)

// Venue is the uniform contract implemented by every trading venue.
type Venue interface {
	// Name returns the registry identifier, e.g. "uniswap_v2".
	Name() string

	// Chain returns the chain this client is bound to.
	Chain() string

	// TokenPrice returns the amount of tokenOut obtained per 1 unit of
	// tokenIn at the current on-chain state.
	TokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error)

	// Swap spends baseAmount of base in exchange for quote, honoring the
	// slippage tolerance. Pre-flight failures (invalid slippage, missing
	// market, insufficient balance) are returned as errors before anything
	// is broadcast; post-broadcast failures are reported through the
	// SwapResult.
	Swap(ctx context.Context, base, quote token.TokenInfo, baseAmount decimal.Decimal, slippage token.Slippage) (SwapResult, error)

	// MarketsForTokens returns every valid trading pair among the given
	// tokens, each unordered pair reported exactly once with its two
	// tokens ordered by ascending address.
	MarketsForTokens(ctx context.Context, tokens []token.TokenInfo) ([]Market, error)
}

// Market is a tradable pair. TokenA always has the lower address.
type Market struct {
	TokenA token.TokenInfo
	TokenB token.TokenInfo
}

// SwapResult records the outcome of a swap attempt.
//
// On success QuoteAmountReceived is the amount actually transferred to the
// recipient, reconciled from the receipt's Transfer events rather than the
// pre-trade estimate. On failure it is zero and BaseAmountSpent carries the
// caller's requested input.
type SwapResult struct {
	Success             bool
	BaseAmountSpent     token.TokenAmount
	QuoteAmountReceived token.TokenAmount
	TxHash              string
	BlockNumber         uint64
	Err                 string
}

// Successful builds a SwapResult for a confirmed swap. blockNumber is
// the receipt's inclusion block, preserved so recorded swaps keep their
// chain order.
func Successful(spent, received token.TokenAmount, txHash string, blockNumber uint64) SwapResult {
	return SwapResult{
		Success:             true,
		BaseAmountSpent:     spent,
		QuoteAmountReceived: received,
		TxHash:              txHash,
		BlockNumber:         blockNumber,
	}
}

// Failure builds a SwapResult for a swap that failed after broadcast.
func Failure(spent token.TokenAmount, quote token.TokenInfo, txHash, reason string) SwapResult {
	return SwapResult{
		Success:             false,
		BaseAmountSpent:     spent,
		QuoteAmountReceived: quote.Amount(decimal.Zero),
		TxHash:              txHash,
		Err:                 reason,
	}
}
