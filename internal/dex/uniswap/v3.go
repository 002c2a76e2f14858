package uniswap

import (
	"context"
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

// feeTiers are the standard V3 fee tiers probed for each pair, in
// hundredths of a bip.
var feeTiers = []int64{500, 3000, 10000}

// poolInfo is the state of one candidate pool, gathered once per
// operation so price and execution use the same pool.
type poolInfo struct {
	addr      common.Address
	fee       int64
	liquidity *big.Int
	token0    common.Address
}

// V3 trades against Uniswap V3 concentrated-liquidity pools. For each
// pair it routes through the standard-tier pool with the deepest in-range
// liquidity.
type V3 struct {
	chain      string
	backend    Backend
	submitter  Submitter
	deployment Deployment
	logger     *zap.Logger
}

// NewV3 builds a V3 client for a chain with a known deployment.
func NewV3(chain string, backend Backend, submitter Submitter, logger *zap.Logger) (*V3, error) {
	d, err := v3Deployment(chain)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V3{
		chain:      chain,
		backend:    backend,
		submitter:  submitter,
		deployment: d,
		logger:     logger.Named("uniswap_v3").With(zap.String("chain", chain)),
	}, nil
}

func (v *V3) Name() string  { return "uniswap_v3" }
func (v *V3) Chain() string { return v.chain }

// poolsFor probes every fee tier and returns the pools that exist.
func (v *V3) poolsFor(ctx context.Context, a, b common.Address) ([]poolInfo, error) {
	factoryABI, err := V3FactoryABI()
	if err != nil {
		return nil, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}

	var pools []poolInfo
	for _, fee := range feeTiers {
		out, err := v.backend.CallMethod(ctx, v.deployment.Factory, factoryABI, "getPool", a, b, big.NewInt(fee))
		if err != nil {
			return nil, err
		}
		addr, ok := out[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected getPool output type %T", out[0])
		}
		if addr == (common.Address{}) {
			continue
		}

		liqOut, err := v.backend.CallMethod(ctx, addr, poolABI, "liquidity")
		if err != nil {
			return nil, err
		}
		liquidity, ok := liqOut[0].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected liquidity output type %T", liqOut[0])
		}

		t0Out, err := v.backend.CallMethod(ctx, addr, poolABI, "token0")
		if err != nil {
			return nil, err
		}
		token0, ok := t0Out[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected token0 output type %T", t0Out[0])
		}

		pools = append(pools, poolInfo{addr: addr, fee: fee, liquidity: liquidity, token0: token0})
	}
	return pools, nil
}

// selectHighestLiquidity picks the pool with the deepest liquidity. Ties
// keep the earlier (lower-fee) candidate. The choice depends only on the
// pool set, never on probe order of the token arguments.
func selectHighestLiquidity(pools []poolInfo) poolInfo {
	best := pools[0]
	for _, p := range pools[1:] {
		if p.liquidity.Cmp(best.liquidity) > 0 {
			best = p
		}
	}
	return best
}

func (v *V3) bestPool(ctx context.Context, a, b common.Address) (poolInfo, error) {
	pools, err := v.poolsFor(ctx, a, b)
	if err != nil {
		return poolInfo{}, err
	}
	if len(pools) == 0 {
		return poolInfo{}, fmt.Errorf("%w: no v3 pool for %s/%s", dex.ErrNoMarket, a.Hex(), b.Hex())
	}
	return selectHighestLiquidity(pools), nil
}

// poolPrice reads slot0 of the pool and orients the price as tokenOut per
// 1 tokenIn.
func (v *V3) poolPrice(ctx context.Context, pool poolInfo, tokenOut, tokenIn token.TokenInfo, outAddr common.Address) (decimal.Decimal, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return decimal.Zero, err
	}
	out, err := v.backend.CallMethod(ctx, pool.addr, poolABI, "slot0")
	if err != nil {
		return decimal.Zero, err
	}
	sqrtPriceX96, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected slot0 output type %T", out[0])
	}

	reverse := pool.token0 == outAddr
	d0, d1 := tokenIn.Decimals, tokenOut.Decimals
	if reverse {
		d0, d1 = tokenOut.Decimals, tokenIn.Decimals
	}
	return priceFromSqrtX96(sqrtPriceX96, d0, d1, reverse)
}

// TokenPrice returns tokenOut received per 1 tokenIn from the deepest
// pool across the standard fee tiers.
func (v *V3) TokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	price, err := v.tokenPrice(ctx, tokenOut, tokenIn)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.QuotesTotal.WithLabelValues(v.Name(), outcome).Inc()
	return price, err
}

func (v *V3) tokenPrice(ctx context.Context, tokenOut, tokenIn token.TokenInfo) (decimal.Decimal, error) {
	outAddr, err := evm.ParseAddress(tokenOut.Address)
	if err != nil {
		return decimal.Zero, err
	}
	inAddr, err := evm.ParseAddress(tokenIn.Address)
	if err != nil {
		return decimal.Zero, err
	}
	pool, err := v.bestPool(ctx, outAddr, inAddr)
	if err != nil {
		return decimal.Zero, err
	}
	return v.poolPrice(ctx, pool, tokenOut, tokenIn, outAddr)
}

// Swap spends baseAmount of base for quote through exactInputSingle on
// the selected pool's fee tier.
func (v *V3) Swap(ctx context.Context, base, quote token.TokenInfo, baseAmount decimal.Decimal, slippage token.Slippage) (dex.SwapResult, error) {
	baseAddr, err := evm.ParseAddress(base.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}
	quoteAddr, err := evm.ParseAddress(quote.Address)
	if err != nil {
		return dex.SwapResult{}, err
	}

	pool, err := v.bestPool(ctx, quoteAddr, baseAddr)
	if err != nil {
		return dex.SwapResult{}, err
	}
	price, err := v.poolPrice(ctx, pool, quote, base, quoteAddr)
	if err != nil {
		return dex.SwapResult{}, err
	}

	rawIn := base.ToBaseUnits(baseAmount)
	if impact := priceImpactBps(rawIn, pool.liquidity); impact > slippage.Bps()*2/3 {
		v.logger.Warn("estimated price impact leaves little slippage headroom",
			zap.Int64("impact_bps", impact),
			zap.Int64("slippage_bps", slippage.Bps()),
			zap.String("pool", pool.addr.Hex()),
			zap.Int64("fee", pool.fee))
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
			routerABI, err := V3RouterABI()
			if err != nil {
				return nil, err
			}
			params := struct {
				TokenIn           common.Address
				TokenOut          common.Address
				Fee               *big.Int
				Recipient         common.Address
				Deadline          *big.Int
				AmountIn          *big.Int
				AmountOutMinimum  *big.Int
				SqrtPriceLimitX96 *big.Int
			}{
				TokenIn:           baseAddr,
				TokenOut:          quoteAddr,
				Fee:               big.NewInt(pool.fee),
				Recipient:         v.submitter.Address(),
				Deadline:          deadline,
				AmountIn:          rawIn,
				AmountOutMinimum:  minOut,
				SqrtPriceLimitX96: big.NewInt(0),
			}
			return routerABI.Pack("exactInputSingle", params)
		},
	}
	return executeSwap(ctx, v.backend, v.submitter, v.logger, plan)
}

// MarketsForTokens returns every token pair with at least one pool on a
// standard fee tier, each reported once in canonical order.
func (v *V3) MarketsForTokens(ctx context.Context, tokens []token.TokenInfo) ([]dex.Market, error) {
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
			pools, err := v.poolsFor(ctx, addrI, addrJ)
			if err != nil {
				v.logger.Warn("pool scan failed",
					zap.String("token_a", tokens[i].Symbol),
					zap.String("token_b", tokens[j].Symbol),
					zap.Error(err))
				continue
			}
			if len(pools) == 0 {
				continue
			}
			markets = append(markets, orderMarket(tokens[i], tokens[j], addrI, addrJ))
		}
	}
	return markets, nil
}
