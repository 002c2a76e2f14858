// Package jupiter implements a quote-only venue backed by the Jupiter
// aggregator's public quote API on Solana.
package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexflow/internal/config"
	"dexflow/internal/dex"
	"dexflow/internal/metrics"
	"dexflow/internal/token"
)

const requestTimeout = 10 * time.Second

// Client quotes swaps through the Jupiter aggregator. Execution is not
// supported; Swap and MarketsForTokens return ErrNotImplemented.
type Client struct {
	chain       string
	quoteURL    string
	slippageBps int64
	httpClient  *http.Client
	logger      *zap.Logger
}

// New builds a Jupiter client. Only Solana mainnet is supported.
func New(chain, quoteURL string, slippageBps int64, logger *zap.Logger) (*Client, error) {
	if chain != "solana" {
		return nil, fmt.Errorf("%w: jupiter runs on solana, got %q", dex.ErrUnsupportedChain, chain)
	}
	if _, err := url.Parse(quoteURL); err != nil || quoteURL == "" {
		return nil, fmt.Errorf("invalid jupiter quote url %q", quoteURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		chain:       chain,
		quoteURL:    quoteURL,
		slippageBps: slippageBps,
		httpClient:  &http.Client{Timeout: requestTimeout},
		logger:      logger.Named("jupiter"),
	}, nil
}

// Builder returns the registry builder for the "jupiter" venue.
func Builder() dex.Builder {
	return func(_ context.Context, cfg config.Config, chain string, logger *zap.Logger) (dex.Venue, error) {
		return New(chain, cfg.Jupiter.QuoteURL, cfg.Jupiter.SlippageBps, logger)
	}
}

func (c *Client) Name() string  { return "jupiter" }
func (c *Client) Chain() string { return c.chain }

// rpcErr counts the upstream failure and wraps it for callers.
func (c *Client) rpcErr(err error) error {
	metrics.RPCErrors.WithLabelValues(c.chain).Inc()
	return &dex.RpcError{Op: "jupiter quote", Err: err}
}

type swapInfo struct {
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
}

type routeStep struct {
	SwapInfo swapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

type quoteResponse struct {
	OutAmount string      `json:"outAmount"`
	RoutePlan []routeStep `json:"routePlan"`
}

// TokenPrice quotes an exact-in trade of 1 tokenIn and returns the
// resulting tokenOut amount as the price.
func (c *Client) TokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	price, err := c.tokenPrice(ctx, tokenOut, tokenIn)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.QuotesTotal.WithLabelValues(c.Name(), outcome).Inc()
	return price, err
}

func (c *Client) tokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	amountIn := tokenIn.ToBaseUnits(decimal.NewFromInt(1))

	params := url.Values{}
	params.Set("inputMint", tokenIn.Address)
	params.Set("outputMint", tokenOut.Address)
	params.Set("amount", amountIn.String())
	params.Set("slippageBps", strconv.FormatInt(c.slippageBps, 10))
	params.Set("swapMode", "ExactIn")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+params.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, c.rpcErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, c.rpcErr(err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, c.rpcErr(fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("jupiter quote: decode response: %w", err)
	}
	outAmount, ok := new(big.Int).SetString(quote.OutAmount, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("jupiter quote: bad outAmount %q", quote.OutAmount)
	}
	if len(quote.RoutePlan) == 0 {
		return decimal.Zero, fmt.Errorf("%w: jupiter returned no route for %s/%s", dex.ErrNoMarket, tokenIn.Symbol, tokenOut.Symbol)
	}

	labels := make([]string, 0, len(quote.RoutePlan))
	for _, step := range quote.RoutePlan {
		labels = append(labels, step.SwapInfo.Label)
	}
	c.logger.Debug("jupiter quote",
		zap.String("in", tokenIn.Symbol),
		zap.String("out", tokenOut.Symbol),
		zap.String("out_amount", quote.OutAmount),
		zap.Strings("route", labels))

	return tokenOut.FromBaseUnits(outAmount), nil
}

// Swap is not supported: Jupiter execution requires a serialized
// transaction flow this venue does not implement.
func (c *Client) Swap(_ context.Context, _, _ token.TokenInfo, _ decimal.Decimal, _ token.Slippage) (dex.SwapResult, error) {
	return dex.SwapResult{}, fmt.Errorf("%w: jupiter swap execution", dex.ErrNotImplemented)
}

// MarketsForTokens is not supported: the aggregator has no enumerable
// pair registry.
func (c *Client) MarketsForTokens(_ context.Context, _ []token.TokenInfo) ([]dex.Market, error) {
	return nil, fmt.Errorf("%w: jupiter market discovery", dex.ErrNotImplemented)
}
