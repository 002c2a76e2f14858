// Package portfolio reconciles observed token transfers into swaps and
// computes realized profit-and-loss with FIFO lot matching.
package portfolio

import (
	"sort"

	"dexflow/internal/token"
)

// Transfer is a single token movement attributed to the tracked wallet,
// extracted from transaction receipts or an indexer.
type Transfer struct {
	Amount      token.TokenAmount
	TxHash      string
	BlockNumber uint64
}

// Swap is a reconciled round-trip unit: one outbound and one inbound
// transfer sharing a transaction hash.
type Swap struct {
	Sold        token.TokenAmount
	Bought      token.TokenAmount
	TxHash      string
	BlockNumber uint64
}

// MatchTransfers pairs inbound and outbound transfers by transaction
// hash. Transfers without a counterpart are dropped; results come back
// in block order.
func MatchTransfers(inbound, outbound []Transfer) []Swap {
	inByHash := make(map[string]Transfer, len(inbound))
	for _, in := range inbound {
		inByHash[in.TxHash] = in
	}

	var swaps []Swap
	for _, out := range outbound {
		in, ok := inByHash[out.TxHash]
		if !ok {
			continue
		}
		swaps = append(swaps, Swap{
			Sold:        out.Amount,
			Bought:      in.Amount,
			TxHash:      out.TxHash,
			BlockNumber: out.BlockNumber,
		})
	}
	sort.SliceStable(swaps, func(i, j int) bool {
		return swaps[i].BlockNumber < swaps[j].BlockNumber
	})
	return swaps
}
