package jupiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dexflow/internal/dex"
	"dexflow/internal/token"
)

var (
	solToken = token.TokenInfo{
		Symbol:   "SOL",
		Address:  "So11111111111111111111111111111111111111112",
		Decimals: 9,
		Chain:    "solana",
		IsNative: true,
	}
	usdcToken = token.TokenInfo{
		Symbol:   "USDC",
		Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals: 6,
		Chain:    "solana",
	}
)

func TestNewRejectsNonSolana(t *testing.T) {
	_, err := New("ethereum", "https://quote-api.jup.ag/v6/quote", 100, zap.NewNop())
	assert.ErrorIs(t, err, dex.ErrUnsupportedChain)
}

func TestTokenPrice(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"inputMint":   q.Get("inputMint"),
			"outputMint":  q.Get("outputMint"),
			"amount":      q.Get("amount"),
			"slippageBps": q.Get("slippageBps"),
			"swapMode":    q.Get("swapMode"),
		}
		w.Header().Set("Content-Type", "application/json")
		// 1 SOL in, 150.25 USDC out.
		w.Write([]byte(`{
			"outAmount": "150250000",
			"routePlan": [
				{"swapInfo": {"label": "Whirlpool", "inputMint": "So1...", "outputMint": "EPj..."}, "percent": 100}
			]
		}`))
	}))
	defer srv.Close()

	c, err := New("solana", srv.URL, 100, zap.NewNop())
	require.NoError(t, err)

	price, err := c.TokenPrice(context.Background(), usdcToken, solToken)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("150.25")), "got %s", price)

	// The quote asks for exactly 1 tokenIn in base units, ExactIn mode.
	assert.Equal(t, solToken.Address, gotQuery["inputMint"])
	assert.Equal(t, usdcToken.Address, gotQuery["outputMint"])
	assert.Equal(t, "1000000000", gotQuery["amount"])
	assert.Equal(t, "100", gotQuery["slippageBps"])
	assert.Equal(t, "ExactIn", gotQuery["swapMode"])
}

func TestTokenPriceNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"outAmount": "0", "routePlan": []}`))
	}))
	defer srv.Close()

	c, err := New("solana", srv.URL, 100, zap.NewNop())
	require.NoError(t, err)

	_, err = c.TokenPrice(context.Background(), usdcToken, solToken)
	assert.ErrorIs(t, err, dex.ErrNoMarket)
}

func TestTokenPriceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "no route found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New("solana", srv.URL, 100, zap.NewNop())
	require.NoError(t, err)

	_, err = c.TokenPrice(context.Background(), usdcToken, solToken)
	require.Error(t, err)
	var rpcErr *dex.RpcError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "jupiter quote", rpcErr.Op)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSwapNotImplemented(t *testing.T) {
	c, err := New("solana", "https://quote-api.jup.ag/v6/quote", 100, zap.NewNop())
	require.NoError(t, err)

	slippage, err := token.NewSlippage(100)
	require.NoError(t, err)
	_, err = c.Swap(context.Background(), solToken, usdcToken, decimal.NewFromInt(1), slippage)
	assert.ErrorIs(t, err, dex.ErrNotImplemented)

	_, err = c.MarketsForTokens(context.Background(), []token.TokenInfo{solToken, usdcToken})
	assert.ErrorIs(t, err, dex.ErrNotImplemented)
}
