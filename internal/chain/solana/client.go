// Package solana provides the chain client for Solana: balance queries and
// transaction signing, submission, and confirmation.
package solana

import (
	"context"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dexflow/internal/dex"
	"dexflow/internal/metrics"
	"dexflow/internal/token"
)

// NativeDecimals is the lamport precision of SOL (1 SOL = 10^9 lamports).
const NativeDecimals = 9

const (
	confirmPollInterval = 1 * time.Second
	confirmTimeout      = 10 * time.Second
)

var supportedChains = map[string]struct{}{
	"solana":        {},
	"solana_devnet": {},
}

// Supported reports whether the chain name is served by this client.
func Supported(chain string) bool {
	_, ok := supportedChains[chain]
	return ok
}

// Signer wraps a base58-encoded Solana private key.
type Signer struct {
	key solanago.PrivateKey
}

// NewSigner parses a base58 private key.
func NewSigner(privateKeyBase58 string) (*Signer, error) {
	key, err := solanago.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the signer's wallet address.
func (s *Signer) Address() solanago.PublicKey {
	return s.key.PublicKey()
}

// Client wraps the Solana JSON-RPC API.
type Client struct {
	chain  string
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewClient creates a client for the given chain and RPC URL.
func NewClient(chain, rpcURL string, logger *zap.Logger) (*Client, error) {
	if !Supported(chain) {
		return nil, fmt.Errorf("%w: %q", dex.ErrUnsupportedChain, chain)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		chain:  chain,
		rpc:    rpc.New(rpcURL),
		logger: logger,
	}, nil
}

// Chain returns the chain name this client serves.
func (c *Client) Chain() string { return c.chain }

// rpcErr counts the failure against this chain and wraps it for callers.
func (c *Client) rpcErr(op string, err error) error {
	metrics.RPCErrors.WithLabelValues(c.chain).Inc()
	return &dex.RpcError{Op: op, Err: err}
}

// NativeBalance returns the SOL balance of an address.
func (c *Client) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	owner, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", dex.ErrInvalidAddress, address)
	}
	res, err := c.rpc.GetBalance(ctx, owner, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, c.rpcErr("getBalance", err)
	}
	return decimal.NewFromUint64(res.Value).Shift(-NativeDecimals), nil
}

// TokenBalance returns the balance of an SPL token for a wallet. A wallet
// with no token account for the mint has a balance of zero, not an error.
func (c *Client) TokenBalance(ctx context.Context, tok token.TokenInfo, address string) (decimal.Decimal, error) {
	if tok.IsNative {
		return c.NativeBalance(ctx, address)
	}

	owner, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", dex.ErrInvalidAddress, address)
	}
	mint, err := solanago.PublicKeyFromBase58(tok.Address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: mint %q", dex.ErrInvalidAddress, tok.Address)
	}

	accounts, err := c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Encoding: solanago.EncodingBase64},
	)
	if err != nil {
		return decimal.Zero, c.rpcErr("getTokenAccountsByOwner", err)
	}
	if len(accounts.Value) == 0 {
		return decimal.Zero, nil
	}

	balance, err := c.rpc.GetTokenAccountBalance(ctx, accounts.Value[0].Pubkey, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, c.rpcErr("getTokenAccountBalance", err)
	}
	return ParseTokenAmount(balance.Value.Amount, int32(balance.Value.Decimals))
}

// ParseTokenAmount converts a raw base-unit amount string and decimal count
// into a human-readable value.
func ParseTokenAmount(amount string, decimals int32) (decimal.Decimal, error) {
	raw, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse token amount %q: %w", amount, err)
	}
	return raw.Shift(-decimals), nil
}

// SubmitAndConfirm signs the transaction, submits it, and polls signature
// status until it is finalized. The deadline is hard: a transaction still
// unconfirmed when it expires surfaces ErrConfirmationTimeout to the
// caller instead of blocking indefinitely, and its on-chain fate is left
// unresolved.
func (c *Client) SubmitAndConfirm(ctx context.Context, tx *solanago.Transaction, signer *Signer) (solanago.Signature, error) {
	_, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(signer.Address()) {
			return &signer.key
		}
		return nil
	})
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return solanago.Signature{}, c.rpcErr("sendTransaction", err)
	}

	c.logger.Info("transaction submitted", zap.String("signature", sig.String()))

	if err := waitFinalized(ctx, sig, c.signatureStatus, confirmPollInterval, confirmTimeout, c.logger); err != nil {
		return sig, err
	}
	return sig, nil
}

func (c *Client) signatureStatus(ctx context.Context, sig solanago.Signature) (rpc.ConfirmationStatusType, error) {
	res, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return "", c.rpcErr("getSignatureStatuses", err)
	}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return "", nil
	}
	return res.Value[0].ConfirmationStatus, nil
}

type statusFn func(ctx context.Context, sig solanago.Signature) (rpc.ConfirmationStatusType, error)

func waitFinalized(ctx context.Context, sig solanago.Signature, fetch statusFn, interval, timeout time.Duration, logger *zap.Logger) error {
	deadline := time.Now().Add(timeout)
	for {
		status, err := fetch(ctx, sig)
		if err != nil {
			logger.Debug("status poll failed", zap.String("signature", sig.String()), zap.Error(err))
		} else if status == rpc.ConfirmationStatusFinalized {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s (last status %q)", dex.ErrConfirmationTimeout, sig, status)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
