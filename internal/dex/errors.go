package dex

import (
	"errors"
	"fmt"

	"dexflow/internal/token"
)

// Failure modes shared across venues and chain clients. Pre-flight errors
// (ErrInvalidSlippage, ErrInsufficientBalance, ErrNoMarket) are raised
// before any transaction is broadcast. Post-broadcast failures are terminal
// for the attempt and never retried here.
var (
	// ErrUnsupportedChain indicates a client was asked to operate on a
	// chain it does not support.
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrNoMarket indicates no pool or pair exists for the token pair.
	ErrNoMarket = errors.New("no market for token pair")

	// ErrInvalidSlippage aliases the token package sentinel so callers can
	// match it at the venue boundary.
	ErrInvalidSlippage = token.ErrInvalidSlippage

	// ErrInsufficientBalance indicates the wallet cannot cover the
	// requested input amount.
	ErrInsufficientBalance = errors.New("insufficient balance for swap")

	// ErrApprovalFailed indicates the spend approval transaction failed;
	// the swap transaction was never attempted.
	ErrApprovalFailed = errors.New("token approval failed")

	// ErrTxTimeout indicates an EVM transaction was not confirmed within
	// the wait window. Its on-chain fate is unresolved.
	ErrTxTimeout = errors.New("transaction confirmation timed out")

	// ErrConfirmationTimeout indicates a Solana signature did not reach
	// finalized status within the deadline.
	ErrConfirmationTimeout = errors.New("signature confirmation timed out")

	// ErrNotImplemented marks venue operations that are intentionally
	// unsupported (e.g. Jupiter swap execution).
	ErrNotImplemented = errors.New("operation not implemented for this venue")
)

// UnknownVenueError is returned by the registry for unregistered venue
// identifiers.
type UnknownVenueError struct {
	Name string
}

func (e *UnknownVenueError) Error() string {
	return fmt.Sprintf("unknown venue %q", e.Name)
}

// RevertError carries the revert reason of a failed transaction, recovered
// by replaying the call at the receipt's block.
type RevertError struct {
	TxHash string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxHash)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash, e.Reason)
}

// RpcError wraps a transient network or provider failure during a
// read-only call. Callers may retry; the engine does not retry internally.
type RpcError struct {
	Op  string
	Err error
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc %s: %v", e.Op, e.Err)
}

func (e *RpcError) Unwrap() error { return e.Err }

// ErrInvalidAddress indicates a malformed on-chain address input.
var ErrInvalidAddress = errors.New("invalid address")
