package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexflow/internal/token"
)

var (
	weth = token.TokenInfo{Symbol: "WETH", Address: "0x000000000000000000000000000000000000000a", Decimals: 18, Chain: "ethereum"}
	usdc = token.TokenInfo{Symbol: "USDC", Address: "0x000000000000000000000000000000000000000b", Decimals: 6, Chain: "ethereum"}
	dai  = token.TokenInfo{Symbol: "DAI", Address: "0x000000000000000000000000000000000000000c", Decimals: 18, Chain: "ethereum"}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buy(asset, counter token.TokenInfo, amount, cost string, block uint64) Swap {
	return Swap{
		Sold:        counter.Amount(dec(cost)),
		Bought:      asset.Amount(dec(amount)),
		BlockNumber: block,
	}
}

func sell(asset, counter token.TokenInfo, amount, proceeds string, block uint64) Swap {
	return Swap{
		Sold:        asset.Amount(dec(amount)),
		Bought:      counter.Amount(dec(proceeds)),
		BlockNumber: block,
	}
}

func assertDecimalNear(t *testing.T, expected, actual decimal.Decimal) {
	t.Helper()
	diff := expected.Sub(actual).Abs()
	assert.True(t, diff.LessThan(dec("1e-30")), "expected %s, got %s", expected, actual)
}

func TestComputePnLFIFOSingleLot(t *testing.T) {
	swaps := []Swap{
		buy(weth, usdc, "1", "10", 1),
		sell(weth, usdc, "0.6", "10", 2),
	}

	pnl := ComputePnLFIFO(swaps, weth)

	require.Len(t, pnl.Details["USDC"], 1)
	d := pnl.Details["USDC"][0]
	assert.True(t, d.SoldAmount.Equal(dec("0.6")))
	assert.True(t, d.BuyingPrice.Equal(dec("10")))
	// Proceeds 10 for 0.6 WETH: 6 cost basis against 10 received.
	assertDecimalNear(t, dec("4"), pnl.Total())

	// 0.4 WETH remains open at the original basis.
	require.Len(t, pnl.Open["USDC"], 1)
	assert.True(t, pnl.Open["USDC"][0].Amount.Equal(dec("0.4")))
	assert.True(t, pnl.Open["USDC"][0].Price.Equal(dec("10")))
}

func TestComputePnLFIFOClosesOldestFirst(t *testing.T) {
	swaps := []Swap{
		buy(weth, usdc, "1", "10", 1),
		buy(weth, usdc, "1", "8", 2),
		sell(weth, usdc, "1.5", "18", 3), // 12 USDC per WETH
	}

	pnl := ComputePnLFIFO(swaps, weth)

	details := pnl.Details["USDC"]
	require.Len(t, details, 2)
	assert.True(t, details[0].SoldAmount.Equal(dec("1")))
	assert.True(t, details[0].BuyingPrice.Equal(dec("10")))
	assert.True(t, details[0].PnL.Equal(dec("2")))
	assert.True(t, details[1].SoldAmount.Equal(dec("0.5")))
	assert.True(t, details[1].BuyingPrice.Equal(dec("8")))
	assert.True(t, details[1].PnL.Equal(dec("2")))
	assert.True(t, pnl.Total().Equal(dec("4")))

	require.Len(t, pnl.Open["USDC"], 1)
	assert.True(t, pnl.Open["USDC"][0].Amount.Equal(dec("0.5")))
	assert.True(t, pnl.OpenValue("USDC", dec("12")).Equal(dec("6")))
}

func TestComputePnLFIFOClosedRoundTrip(t *testing.T) {
	// Fully closed position: realized PnL must equal proceeds minus cost.
	swaps := []Swap{
		buy(weth, usdc, "1", "10", 1),
		sell(weth, usdc, "0.6", "10", 2),
		buy(weth, usdc, "1", "8", 3),
		sell(weth, usdc, "0.7", "9", 4),
		sell(weth, usdc, "0.7", "9", 5),
	}

	pnl := ComputePnLFIFO(swaps, weth)

	cost := dec("18")
	proceeds := dec("28")
	assertDecimalNear(t, proceeds.Sub(cost), pnl.Total())
	assert.Empty(t, pnl.Open["USDC"])
}

func TestComputePnLFIFOSymmetricNetZero(t *testing.T) {
	swaps := []Swap{
		buy(weth, usdc, "1", "10", 1),
		sell(weth, usdc, "1", "10", 2),
	}
	pnl := ComputePnLFIFO(swaps, weth)
	assertDecimalNear(t, decimal.Zero, pnl.Total())
}

func TestComputePnLFIFOSellWithoutBasis(t *testing.T) {
	swaps := []Swap{
		sell(weth, usdc, "1", "10", 1),
	}
	pnl := ComputePnLFIFO(swaps, weth)
	assert.Empty(t, pnl.Details)
	assert.True(t, pnl.Total().IsZero())
}

func TestComputePnLFIFOGroupsByCounterAsset(t *testing.T) {
	swaps := []Swap{
		buy(weth, usdc, "1", "10", 1),
		buy(weth, dai, "1", "11", 2),
		sell(weth, usdc, "1", "12", 3),
		// Sold for DAI: only the DAI lot queue is eligible.
		sell(weth, dai, "1", "12", 4),
	}

	pnl := ComputePnLFIFO(swaps, weth)

	require.Len(t, pnl.Details["USDC"], 1)
	assert.True(t, pnl.Details["USDC"][0].PnL.Equal(dec("2")))
	require.Len(t, pnl.Details["DAI"], 1)
	assert.True(t, pnl.Details["DAI"][0].PnL.Equal(dec("1")))
}

func TestMatchTransfers(t *testing.T) {
	inbound := []Transfer{
		{Amount: weth.Amount(dec("1")), TxHash: "0x01", BlockNumber: 10},
		{Amount: weth.Amount(dec("2")), TxHash: "0x03", BlockNumber: 30},
	}
	outbound := []Transfer{
		// Out of block order on purpose.
		{Amount: usdc.Amount(dec("20")), TxHash: "0x03", BlockNumber: 30},
		{Amount: usdc.Amount(dec("10")), TxHash: "0x01", BlockNumber: 10},
		// No inbound counterpart: dropped.
		{Amount: usdc.Amount(dec("5")), TxHash: "0x02", BlockNumber: 20},
	}

	swaps := MatchTransfers(inbound, outbound)

	require.Len(t, swaps, 2)
	assert.Equal(t, "0x01", swaps[0].TxHash)
	assert.True(t, swaps[0].Sold.Value.Equal(dec("10")))
	assert.True(t, swaps[0].Bought.Value.Equal(dec("1")))
	assert.Equal(t, "0x03", swaps[1].TxHash)
}
