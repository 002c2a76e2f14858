// Package evm provides the chain client for EVM-compatible networks:
// balance queries, ERC-20 calls, and the transaction lifecycle.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"

	"dexflow/internal/dex"
	"dexflow/internal/metrics"
	"dexflow/internal/token"
)

// NativeDecimals is the decimal count of the chain's gas token.
const NativeDecimals = 18

var supportedChains = map[string]struct{}{
	"ethereum":         {},
	"ethereum_sepolia": {},
	"base":             {},
	"base_sepolia":     {},
}

// Supported reports whether the chain name is served by this client.
func Supported(chain string) bool {
	_, ok := supportedChains[chain]
	return ok
}

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	chain     string
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu         sync.RWMutex
	tokenCache map[common.Address]token.TokenInfo

	chainIDOnce sync.Once
	chainID     *big.Int
	chainIDErr  error
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, chain, rpcURL string) (*Client, error) {
	if !Supported(chain) {
		return nil, fmt.Errorf("%w: %q", dex.ErrUnsupportedChain, chain)
	}

	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		metrics.RPCErrors.WithLabelValues(chain).Inc()
		return nil, &dex.RpcError{Op: "dial", Err: err}
	}

	return &Client{
		chain:      chain,
		rpcClient:  rpcClient,
		ethClient:  ethclient.NewClient(rpcClient),
		tokenCache: make(map[common.Address]token.TokenInfo),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Chain returns the chain name this client serves.
func (c *Client) Chain() string { return c.chain }

// rpcErr counts the failure against this chain and wraps it for callers.
func (c *Client) rpcErr(op string, err error) error {
	metrics.RPCErrors.WithLabelValues(c.chain).Inc()
	return &dex.RpcError{Op: op, Err: err}
}

// ChainID returns the chain ID, fetched once.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.chainIDOnce.Do(func() {
		c.chainID, c.chainIDErr = c.ethClient.ChainID(ctx)
	})
	if c.chainIDErr != nil {
		return nil, c.rpcErr("chain id", c.chainIDErr)
	}
	return c.chainID, nil
}

// ParseAddress validates and parses a hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", dex.ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// HeaderByNumber returns the block header by number, nil meaning latest.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	header, err := c.ethClient.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, c.rpcErr("header", err)
	}
	return header, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// CallMethod packs a contract method call, executes it, and unpacks the
// returned values.
func (c *Client) CallMethod(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := c.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, c.rpcErr("call "+method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// NativeBalance returns the gas-token balance of an address in whole units.
func (c *Client) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return decimal.Zero, err
	}
	wei, err := c.ethClient.BalanceAt(ctx, addr, nil)
	if err != nil {
		return decimal.Zero, c.rpcErr("balance", err)
	}
	return decimal.NewFromBigInt(wei, 0).Shift(-NativeDecimals), nil
}

// TokenBalanceRaw returns an ERC-20 balance in base units.
func (c *Client) TokenBalanceRaw(ctx context.Context, tokenAddr, owner common.Address) (*big.Int, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err := c.CallMethod(ctx, tokenAddr, erc20, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return bal, nil
}

// TokenBalance returns an ERC-20 balance in human-readable units.
func (c *Client) TokenBalance(ctx context.Context, tok token.TokenInfo, owner string) (decimal.Decimal, error) {
	if tok.IsNative {
		return c.NativeBalance(ctx, owner)
	}
	tokenAddr, err := ParseAddress(tok.Address)
	if err != nil {
		return decimal.Zero, err
	}
	ownerAddr, err := ParseAddress(owner)
	if err != nil {
		return decimal.Zero, err
	}
	raw, err := c.TokenBalanceRaw(ctx, tokenAddr, ownerAddr)
	if err != nil {
		return decimal.Zero, err
	}
	return tok.FromBaseUnits(raw), nil
}

// TokenInfo fetches ERC-20 metadata, cached per address for the lifetime of
// the client. The cache is a session convenience, not an authoritative
// registry: metadata can change under the same address on test networks.
func (c *Client) TokenInfo(ctx context.Context, address string) (token.TokenInfo, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return token.TokenInfo{}, err
	}

	c.mu.RLock()
	info, ok := c.tokenCache[addr]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	info, err = c.fetchTokenInfo(ctx, addr)
	if err != nil {
		return token.TokenInfo{}, err
	}

	c.mu.Lock()
	c.tokenCache[addr] = info
	c.mu.Unlock()

	return info, nil
}

func (c *Client) fetchTokenInfo(ctx context.Context, addr common.Address) (token.TokenInfo, error) {
	erc20, err := ERC20ABI()
	if err != nil {
		return token.TokenInfo{}, err
	}

	values, err := c.CallMethod(ctx, addr, erc20, "decimals")
	if err != nil {
		return token.TokenInfo{}, err
	}
	decimals, err := asBigInt(values[0])
	if err != nil {
		return token.TokenInfo{}, fmt.Errorf("decimals: %w", err)
	}

	info := token.TokenInfo{
		Address:  addr.Hex(),
		Decimals: int32(decimals.Int64()),
		Chain:    c.chain,
	}

	// Some old tokens report symbol as bytes32 instead of string.
	if values, err := c.CallMethod(ctx, addr, erc20, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			info.Symbol = symbol
		}
	} else if bytes32ABI, abiErr := ERC20Bytes32ABI(); abiErr == nil {
		if values, err := c.CallMethod(ctx, addr, bytes32ABI, "symbol"); err == nil {
			if symbol, ok := bytes32ToString(values[0]); ok {
				info.Symbol = symbol
			}
		}
	}

	return info, nil
}
