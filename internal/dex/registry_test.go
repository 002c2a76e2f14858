package dex

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexflow/internal/config"
	"dexflow/internal/token"
)

type stubVenue struct {
	chain string
}

func (s *stubVenue) Name() string  { return "stub" }
func (s *stubVenue) Chain() string { return s.chain }

func (s *stubVenue) TokenPrice(context.Context, token.TokenInfo, token.TokenInfo) (decimal.Decimal, error) {
	return decimal.Zero, ErrNotImplemented
}

func (s *stubVenue) Swap(context.Context, token.TokenInfo, token.TokenInfo, decimal.Decimal, token.Slippage) (SwapResult, error) {
	return SwapResult{}, ErrNotImplemented
}

func (s *stubVenue) MarketsForTokens(context.Context, []token.TokenInfo) ([]Market, error) {
	return nil, ErrNotImplemented
}

func TestRegistryUnknownVenue(t *testing.T) {
	r := NewRegistry()
	_, err := r.New(context.Background(), "no_such_venue", config.Config{}, "ethereum", zap.NewNop())
	var unknown *UnknownVenueError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVenueError, got %v", err)
	}
	if unknown.Name != "no_such_venue" {
		t.Fatalf("error should carry the name, got %q", unknown.Name)
	}
}

func TestRegistryRegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func(_ context.Context, _ config.Config, chain string, _ *zap.Logger) (Venue, error) {
		return &stubVenue{chain: chain}, nil
	})

	venue, err := r.New(context.Background(), "stub", config.Config{}, "base", zap.NewNop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if venue.Chain() != "base" {
		t.Fatalf("chain: %s", venue.Chain())
	}

	// Registries are independent values.
	other := NewRegistry()
	if _, err := other.New(context.Background(), "stub", config.Config{}, "base", zap.NewNop()); err == nil {
		t.Fatal("fresh registry must not see registrations from another")
	}
}

func TestSwapResultConstructors(t *testing.T) {
	weth := token.TokenInfo{Symbol: "WETH", Address: "0xW", Decimals: 18, Chain: "ethereum"}
	usdc := token.TokenInfo{Symbol: "USDC", Address: "0xU", Decimals: 6, Chain: "ethereum"}

	spent := weth.Amount(decimal.RequireFromString("1.5"))
	received := usdc.Amount(decimal.RequireFromString("3000"))

	ok := Successful(spent, received, "0xabc", 18_500_000)
	if !ok.Success || ok.Err != "" || !ok.QuoteAmountReceived.Value.Equal(received.Value) {
		t.Fatalf("unexpected success result: %+v", ok)
	}
	if ok.BlockNumber != 18_500_000 {
		t.Fatalf("block number not carried: %d", ok.BlockNumber)
	}

	fail := Failure(spent, usdc, "0xdef", "UniswapV2: INSUFFICIENT_OUTPUT_AMOUNT")
	if fail.Success {
		t.Fatal("failure result marked success")
	}
	if !fail.QuoteAmountReceived.Value.IsZero() {
		t.Fatal("failed swap must report zero received")
	}
	if !fail.BaseAmountSpent.Value.Equal(spent.Value) {
		t.Fatal("failed swap must carry the requested input")
	}
}
