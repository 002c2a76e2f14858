package uniswap

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"

	"dexflow/internal/dex"
	"dexflow/internal/token"
)

// addressLess reports whether a sorts before b, the same ordering the
// factory uses to assign token0.
func addressLess(a, b common.Address) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}

// orderMarket returns the pair with TokenA holding the lower address.
func orderMarket(a, b token.TokenInfo, addrA, addrB common.Address) dex.Market {
	if addressLess(addrA, addrB) {
		return dex.Market{TokenA: a, TokenB: b}
	}
	return dex.Market{TokenA: b, TokenB: a}
}
