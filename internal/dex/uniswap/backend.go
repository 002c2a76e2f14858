// Package uniswap implements the Uniswap V2 and V3 trading venues on top
// of a generic EVM backend.
package uniswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the read side of an EVM chain used for quoting and
// pre-flight checks. *evm.Client satisfies it.
type Backend interface {
	CallMethod(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error)
	TokenBalanceRaw(ctx context.Context, tokenAddr, owner common.Address) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Submitter signs, broadcasts and waits out a transaction. *evm.Signer
// satisfies it.
type Submitter interface {
	Address() common.Address
	Submit(ctx context.Context, to common.Address, data []byte, value *big.Int) (*types.Receipt, error)
}
