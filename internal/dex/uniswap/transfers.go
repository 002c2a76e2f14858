package uniswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"dexflow/internal/chain/evm"
)

// sumTransfersTo sums every ERC-20 Transfer of tokenAddr credited to
// recipient in the receipt logs. The sum is the authoritative received
// amount for a swap; multi-hop routes emit several partial transfers.
func sumTransfersTo(logs []*types.Log, tokenAddr, recipient common.Address) *big.Int {
	total := new(big.Int)
	for _, lg := range logs {
		if lg == nil || lg.Address != tokenAddr {
			continue
		}
		// Transfer(address indexed from, address indexed to, uint256 value)
		if len(lg.Topics) != 3 || lg.Topics[0] != evm.TransferTopic {
			continue
		}
		to := common.BytesToAddress(lg.Topics[2].Bytes())
		if to != recipient {
			continue
		}
		total.Add(total, new(big.Int).SetBytes(lg.Data))
	}
	return total
}
