package evm

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"dexflow/internal/dex"
)

const (
	// DefaultGasLimit is used when the chain config does not set one.
	DefaultGasLimit = 200_000

	confirmTimeout = 150 * time.Second
	pollInterval   = 2 * time.Second
)

// Signer owns a private key and submits EIP-1559 transactions through a
// Client. Nonce acquisition is serialized on the signer, so two
// transactions from the same key never race for a nonce.
type Signer struct {
	client   *Client
	key      *ecdsa.PrivateKey
	address  common.Address
	gasLimit uint64
	logger   *zap.Logger

	mu sync.Mutex
}

// NewSigner builds a signer from a hex private key. gasLimit of zero
// selects DefaultGasLimit.
func NewSigner(client *Client, privateKeyHex string, gasLimit uint64, logger *zap.Logger) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signer{
		client:   client,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		gasLimit: gasLimit,
		logger:   logger,
	}, nil
}

// Address returns the signer's wallet address.
func (s *Signer) Address() common.Address { return s.address }

// Submit builds, signs, and broadcasts a transaction to the given contract,
// then waits for its receipt. The nonce is read immediately before
// broadcast so a transaction that depends on a prior one (swap after
// approval) never reuses stale state. Fee policy:
// maxFeePerGas = 2*baseFee + priorityFee.
//
// A receipt with failed status is returned together with a RevertError
// carrying the replayed revert reason. Expiry of the wait window returns
// ErrTxTimeout: the transaction's on-chain fate is then unresolved.
func (s *Signer) Submit(ctx context.Context, to common.Address, data []byte, value *big.Int) (*types.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}

	signed, err := s.signNext(ctx, to, data, value)
	if err != nil {
		return nil, err
	}

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		reason := s.revertReason(ctx, signed, receipt)
		s.logger.Error("transaction reverted",
			zap.String("tx", signed.Hash().Hex()),
			zap.String("reason", reason))
		return receipt, &dex.RevertError{TxHash: signed.Hash().Hex(), Reason: reason}
	}

	return receipt, nil
}

// signNext acquires a fresh nonce, signs, and broadcasts under the signer
// lock; concurrent submissions from the same key are serialized here.
func (s *Signer) signNext(ctx context.Context, to common.Address, data []byte, value *big.Int) (*types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	tip, err := s.client.ethClient.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, s.client.rpcErr("gas tip", err)
	}

	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)

	nonce, err := s.client.ethClient.PendingNonceAt(ctx, s.address)
	if err != nil {
		return nil, s.client.rpcErr("nonce", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       s.gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	s.logger.Debug("submitting transaction",
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("max_fee", maxFee.String()))

	if err := s.client.ethClient.SendTransaction(ctx, signed); err != nil {
		return nil, s.client.rpcErr("send transaction", err)
	}
	return signed, nil
}

func (s *Signer) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(confirmTimeout)
	for {
		receipt, err := s.client.ethClient.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			s.logger.Debug("receipt poll failed", zap.String("tx", hash.Hex()), zap.Error(err))
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", dex.ErrTxTimeout, hash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// revertReason replays the failed transaction as an eth_call at the
// receipt's block and decodes the Error(string) payload.
func (s *Signer) revertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	msg := ethereum.CallMsg{
		From:  s.address,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err := s.client.CallContract(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return ""
	}
	if reason, ok := RevertReasonFromError(err); ok {
		return reason
	}
	return err.Error()
}

// errorSelector is the 4-byte selector of Error(string).
var errorSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// RevertReasonFromError extracts a revert reason from an eth_call error
// when the node attached return data to it.
func RevertReasonFromError(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	return DecodeRevertData(common.FromHex(hexData))
}

// DecodeRevertData decodes an ABI-encoded Error(string) revert payload.
func DecodeRevertData(data []byte) (string, bool) {
	if len(data) < 4+32+32 || !bytes.Equal(data[:4], errorSelector) {
		return "", false
	}
	payload := data[4:]
	offset := new(big.Int).SetBytes(payload[:32]).Uint64()
	if offset+32 > uint64(len(payload)) {
		return "", false
	}
	length := new(big.Int).SetBytes(payload[offset : offset+32]).Uint64()
	if offset+32+length > uint64(len(payload)) {
		return "", false
	}
	return string(payload[offset+32 : offset+32+length]), true
}
