package uniswap

import (
	"context"

	"go.uber.org/zap"

	"dexflow/internal/chain/evm"
	"dexflow/internal/config"
	"dexflow/internal/dex"
)

// evmStack dials the chain and builds a signer from its configured key.
func evmStack(ctx context.Context, cfg config.Config, chain string, logger *zap.Logger) (*evm.Client, *evm.Signer, error) {
	cc, err := cfg.Chain(chain)
	if err != nil {
		return nil, nil, err
	}
	client, err := evm.NewClient(ctx, chain, cc.RPCURL)
	if err != nil {
		return nil, nil, err
	}
	signer, err := evm.NewSigner(client, cc.PrivateKey, cc.GasLimit, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, signer, nil
}

// V2Builder returns the registry builder for the "uniswap_v2" venue.
func V2Builder() dex.Builder {
	return func(ctx context.Context, cfg config.Config, chain string, logger *zap.Logger) (dex.Venue, error) {
		client, signer, err := evmStack(ctx, cfg, chain, logger)
		if err != nil {
			return nil, err
		}
		return NewV2(chain, client, signer, logger)
	}
}

// V3Builder returns the registry builder for the "uniswap_v3" venue.
func V3Builder() dex.Builder {
	return func(ctx context.Context, cfg config.Config, chain string, logger *zap.Logger) (dex.Venue, error) {
		client, signer, err := evmStack(ctx, cfg, chain, logger)
		if err != nil {
			return nil, err
		}
		return NewV3(chain, client, signer, logger)
	}
}
