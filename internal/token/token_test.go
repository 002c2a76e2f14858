package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBaseUnitsRoundTrip(t *testing.T) {
	values := []string{"0", "1", "0.5", "123.456", "0.000001", "98765.000001"}
	for _, decimals := range []int32{0, 6, 9, 18} {
		info := TokenInfo{Symbol: "TST", Address: "0x01", Decimals: decimals, Chain: "ethereum"}
		for _, v := range values {
			amount := decimal.RequireFromString(v)
			// Skip values finer than the token can represent.
			if amount.Exponent() < -decimals {
				continue
			}
			raw := info.ToBaseUnits(amount)
			back := info.FromBaseUnits(raw)
			if !back.Equal(amount) {
				t.Fatalf("decimals=%d value=%s: round trip gave %s", decimals, v, back)
			}
		}
	}
}

func TestToBaseUnitsExact(t *testing.T) {
	usdc := TokenInfo{Symbol: "USDC", Address: "0x02", Decimals: 6, Chain: "ethereum"}
	raw := usdc.ToBaseUnits(decimal.RequireFromString("1.5"))
	if raw.Cmp(big.NewInt(1_500_000)) != 0 {
		t.Fatalf("expected 1500000, got %s", raw)
	}

	weth := TokenInfo{Symbol: "WETH", Address: "0x03", Decimals: 18, Chain: "ethereum"}
	raw = weth.ToBaseUnits(decimal.RequireFromString("0.000000000000000001"))
	if raw.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("expected 1 wei, got %s", raw)
	}
}

func TestEqualID(t *testing.T) {
	a := TokenInfo{Symbol: "A", Address: "0xABCD", Chain: "base"}
	b := TokenInfo{Symbol: "B", Address: "0xabcd", Chain: "base"}
	c := TokenInfo{Symbol: "A", Address: "0xABCD", Chain: "ethereum"}
	if !a.EqualID(b) {
		t.Fatal("addresses differing only in case should match")
	}
	if a.EqualID(c) {
		t.Fatal("same address on a different chain must not match")
	}
}

func TestNewSlippageBounds(t *testing.T) {
	for _, bps := range []int64{-1, 10001} {
		if _, err := NewSlippage(bps); !errors.Is(err, ErrInvalidSlippage) {
			t.Fatalf("bps=%d: expected ErrInvalidSlippage, got %v", bps, err)
		}
	}
	for _, bps := range []int64{0, 1, 100, 10000} {
		if _, err := NewSlippage(bps); err != nil {
			t.Fatalf("bps=%d: unexpected error %v", bps, err)
		}
	}
}

func TestMinimumAmount(t *testing.T) {
	raw := big.NewInt(1_000_000)

	zero, _ := NewSlippage(0)
	if got := zero.MinimumAmount(raw); got.Cmp(raw) != 0 {
		t.Fatalf("zero slippage must preserve the amount, got %s", got)
	}

	for _, bps := range []int64{1, 50, 100, 9999, 10000} {
		s, _ := NewSlippage(bps)
		got := s.MinimumAmount(raw)
		if got.Cmp(raw) > 0 {
			t.Fatalf("bps=%d: minimum %s exceeds input %s", bps, got, raw)
		}
		want := new(big.Int).Mul(raw, big.NewInt(BpsDenominator-bps))
		want.Quo(want, big.NewInt(BpsDenominator))
		if got.Cmp(want) != 0 {
			t.Fatalf("bps=%d: got %s want %s", bps, got, want)
		}
	}

	full, _ := NewSlippage(10000)
	if got := full.MinimumAmount(raw); got.Sign() != 0 {
		t.Fatalf("10000 bps should floor to zero, got %s", got)
	}
}

func TestSlippageFromPercent(t *testing.T) {
	s, err := SlippageFromPercent(decimal.RequireFromString("1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Bps() != 100 {
		t.Fatalf("expected 100 bps, got %d", s.Bps())
	}
	if s.String() != "100 bps" {
		t.Fatalf("unexpected string: %s", s.String())
	}
}
