package uniswap

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"

	"dexflow/internal/chain/evm"
)

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}

func transferLog(tokenAddr, from, to common.Address, value *big.Int) *types.Log {
	return &types.Log{
		Address: tokenAddr,
		Topics:  []common.Hash{evm.TransferTopic, addressTopic(from), addressTopic(to)},
		Data:    common.LeftPadBytes(value.Bytes(), 32),
	}
}

func TestSumTransfersTo(t *testing.T) {
	tokenAddr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherToken := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	recipient := common.HexToAddress("0x0000000000000000000000000000000000000001")
	pool := common.HexToAddress("0x0000000000000000000000000000000000000002")
	stranger := common.HexToAddress("0x0000000000000000000000000000000000000003")

	logs := []*types.Log{
		// Two partial fills credited to the recipient.
		transferLog(tokenAddr, pool, recipient, big.NewInt(300)),
		transferLog(tokenAddr, pool, recipient, big.NewInt(200)),
		// Same token, different recipient.
		transferLog(tokenAddr, pool, stranger, big.NewInt(999)),
		// Right recipient, different token contract.
		transferLog(otherToken, pool, recipient, big.NewInt(999)),
		// Transfer topic with the wrong arity (e.g. an ERC-721 event).
		{
			Address: tokenAddr,
			Topics:  []common.Hash{evm.TransferTopic, addressTopic(pool), addressTopic(recipient), addressTopic(stranger)},
		},
		nil,
	}

	total := sumTransfersTo(logs, tokenAddr, recipient)
	assert.Equal(t, int64(500), total.Int64())
}

func TestSumTransfersToNoMatches(t *testing.T) {
	tokenAddr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	recipient := common.HexToAddress("0x0000000000000000000000000000000000000001")

	total := sumTransfersTo(nil, tokenAddr, recipient)
	assert.Equal(t, int64(0), total.Int64())
}
