package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexflow/internal/chain/evm"
	"dexflow/internal/dex"
	"dexflow/internal/metrics"
	"dexflow/internal/token"
)

// V2 trades against Uniswap V2 style constant-product pairs.
type V2 struct {
	chain      string
	backend    Backend
	submitter  Submitter
	deployment Deployment
	logger     *zap.Logger
}

// NewV2 builds a V2 client for a chain with a known deployment.
func NewV2(chain string, backend Backend, submitter Submitter, logger *zap.Logger) (*V2, error) {
	d, err := v2Deployment(chain)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V2{
		chain:      chain,
		backend:    backend,
		submitter:  submitter,
		deployment: d,
		logger:     logger.Named("uniswap_v2").With(zap.String("chain", chain)),
	}, nil
}

func (v *V2) Name() string  { return "uniswap_v2" }
func (v *V2) Chain() string { return v.chain }

// pairAddress resolves the pair for two tokens, or ErrNoMarket when the
// factory has none.
func (v *V2) pairAddress(ctx context.Context, a, b common.Address) (common.Address, error) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		return common.Address{}, err
	}
	out, err := v.backend.CallMethod(ctx, v.deployment.Factory, factoryABI, "getPair", a, b)
	if err != nil {
		return common.Address{}, err
	}
	pair, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getPair output type %T", out[0])
	}
	if pair == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no v2 pair for %s/%s", dex.ErrNoMarket, a.Hex(), b.Hex())
	}
	return pair, nil
}

// TokenPrice returns the pair mid price: tokenOut received per 1 tokenIn.
func (v *V2) TokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	price, err := v.tokenPrice(ctx, tokenOut, tokenIn)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.QuotesTotal.WithLabelValues(v.Name(), outcome).Inc()
	return price, err
}

func (v *V2) tokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	outAddr, err := evm.ParseAddress(tokenOut.Address)
	if err != nil {
		return decimal.Zero, err
	}
	inAddr, err := evm.ParseAddress(tokenIn.Address)
	if err != nil {
		return decimal.Zero, err
	}
	pair, err := v.pairAddress(ctx, outAddr, inAddr)
	if err != nil {
		return decimal.Zero, err
	}

	pairABI, err := V2PairABI()
	if err != nil {
		return decimal.Zero, err
	}
	out, err := v.backend.CallMethod(ctx, pair, pairABI, "getReserves")
	if err != nil {
		return decimal.Zero, err
	}
	reserve0, ok0 := out[0].(*big.Int)
	reserve1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return decimal.Zero, fmt.Errorf("unexpected getReserves output types %T, %T", out[0], out[1])
	}

	// token0 is the lower address. With tokenOut as token0 the default
	// token1-per-token0 orientation must be inverted.
	reverse := addressLess(outAddr, inAddr)
	d0, d1 := tokenIn.Decimals, tokenOut.Decimals
	if reverse {
		d0, d1 = tokenOut.Decimals, tokenIn.Decimals
	}
	return midPriceFromReserves(reserve0, reserve1, d0, d1, reverse)
}

// Swap spends baseAmount of base for quote through the V2 router.
func (v *V2) Swap(ctx context.Context, base, quote token.TokenInfo, baseAmount decimal.Decimal, slippage token.Slippage) (dex.SwapResult, error) {
	baseAddr, err := evm.ParseAddress(base.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}
	quoteAddr, err := evm.ParseAddress(quote.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}
	price, err := v.tokenPrice(ctx, quote, base)
	if err != nil {
		return dex.SwapResult{}, err
	}

	plan := swapPlan{
		venue:      v.Name(),
		base:       base,
		quote:      quote,
		baseAmount: baseAmount,
		price:      price,
		slippage:   slippage,
		router:     v.deployment.Router,
		buildCalldata: func(rawIn, minOut, deadline *big.Int) ([]byte, error) {
			routerABI, err := V2RouterABI()
			if err != nil {
				return nil, err
			}
			path := []common.Address{baseAddr, quoteAddr}
			return routerABI.Pack("swapExactTokensForTokens", rawIn, minOut, path, v.submitter.Address(), deadline)
		},
	}
	return executeSwap(ctx, v.backend, v.submitter, v.logger, plan)
}

// MarketsForTokens returns every token pair the factory has a pair
// contract for, each reported once in canonical order.
func (v *V2) MarketsForTokens(ctx context.Context, tokens []token.TokenInfo) ([]dex.Market, error) {
	var markets []dex.Market
	for i := 0; i < len(tokens); i++ {
		addrI, err := evm.ParseAddress(tokens[i].Address)
		if err != nil {
			return nil, err
		}
		for j := i + 1; j < len(tokens); j++ {
			addrJ, err := evm.ParseAddress(tokens[j].Address)
			if err != nil {
				return nil, err
			}
			_, err = v.pairAddress(ctx, addrI, addrJ)
			if errors.Is(err, dex.ErrNoMarket) {
				continue
			}
			if err != nil {
				// Lookup failures degrade the scan, not the whole listing.
				v.logger.Warn("pair lookup failed",
					zap.String("token_a", tokens[i].Symbol),
					zap.String("token_b", tokens[j].Symbol),
					zap.Error(err))
				continue
			}
			markets = append(markets, orderMarket(tokens[i], tokens[j], addrI, addrJ))
		}
	}
	return markets, nil
}
