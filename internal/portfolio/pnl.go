package portfolio

import (
	"github.com/shopspring/decimal"

	"dexflow/internal/token"
)

// pricePrecision bounds the fractional digits of derived unit prices.
const pricePrecision = 40

// Lot is an open position in the tracked asset: an amount still held and
// its cost basis in the counter asset, per unit.
type Lot struct {
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// PnLDetail is one realized closure: a sell matched against the oldest
// open lot(s).
type PnLDetail struct {
	SoldAmount   decimal.Decimal
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	PnL          decimal.Decimal
}

// PnL aggregates realized closures and still-open lots for one tracked
// asset, grouped by counter asset symbol.
type PnL struct {
	Asset   token.TokenInfo
	Details map[string][]PnLDetail
	Open    map[string][]Lot
}

// Total sums realized PnL across every counter asset.
func (p *PnL) Total() decimal.Decimal {
	total := decimal.Zero
	for _, details := range p.Details {
		for _, d := range details {
			total = total.Add(d.PnL)
		}
	}
	return total
}

// OpenValue prices the remaining open lots of one counter asset at the
// given current price.
func (p *PnL) OpenValue(counter string, currentPrice decimal.Decimal) decimal.Decimal {
	value := decimal.Zero
	for _, lot := range p.Open[counter] {
		value = value.Add(lot.Amount.Mul(currentPrice))
	}
	return value
}

// ComputePnLFIFO walks swaps in the given (chronological) order. Each
// buy of the tracked asset opens a lot at its cost basis; each sell
// closes the oldest open lot(s) first, realizing
// (selling price - buying price) * matched amount. Sold amounts without
// a matching open lot have no known basis and realize nothing.
func ComputePnLFIFO(swaps []Swap, asset token.TokenInfo) *PnL {
	result := &PnL{
		Asset:   asset,
		Details: make(map[string][]PnLDetail),
		Open:    make(map[string][]Lot),
	}

	for _, swap := range swaps {
		switch {
		case swap.Bought.Token.EqualID(asset):
			if swap.Bought.Value.IsZero() {
				continue
			}
			counter := swap.Sold.Token.Symbol
			price := swap.Sold.Value.DivRound(swap.Bought.Value, pricePrecision)
			result.Open[counter] = append(result.Open[counter], Lot{
				Amount: swap.Bought.Value,
				Price:  price,
			})

		case swap.Sold.Token.EqualID(asset):
			if swap.Sold.Value.IsZero() {
				continue
			}
			counter := swap.Bought.Token.Symbol
			sellPrice := swap.Bought.Value.DivRound(swap.Sold.Value, pricePrecision)
			remaining := swap.Sold.Value

			lots := result.Open[counter]
			for remaining.IsPositive() && len(lots) > 0 {
				lot := lots[0]
				matched := decimal.Min(lot.Amount, remaining)
				result.Details[counter] = append(result.Details[counter], PnLDetail{
					SoldAmount:   matched,
					BuyingPrice:  lot.Price,
					SellingPrice: sellPrice,
					PnL:          sellPrice.Sub(lot.Price).Mul(matched),
				})
				remaining = remaining.Sub(matched)
				lot.Amount = lot.Amount.Sub(matched)
				if lot.Amount.IsPositive() {
					lots[0] = lot
				} else {
					lots = lots[1:]
				}
			}
			if len(lots) == 0 {
				delete(result.Open, counter)
			} else {
				result.Open[counter] = lots
			}
		}
	}
	return result
}
