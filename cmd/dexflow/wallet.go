package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"dexflow/internal/chain/evm"
	"dexflow/internal/chain/solana"
	"dexflow/internal/dex"
	"dexflow/internal/portfolio"
	"dexflow/internal/portfolio/postgres"
)

func runBalance(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	chainName, _ := cmd.Flags().GetString("chain")
	tokenSym, _ := cmd.Flags().GetString("token")
	address, _ := cmd.Flags().GetString("address")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := cfg.Chain(chainName)
	if err != nil {
		return err
	}
	if address == "" {
		address = cc.WalletAddress
	}
	if address == "" {
		return fmt.Errorf("--address is required when no wallet_address is configured")
	}

	var balance decimal.Decimal
	symbol := "native"

	switch {
	case evm.Supported(chainName):
		client, err := evm.NewClient(ctx, chainName, cc.RPCURL)
		if err != nil {
			return err
		}
		defer client.Close()

		if tokenSym == "" {
			balance, err = client.NativeBalance(ctx, address)
		} else {
			tok, terr := cc.Token(chainName, tokenSym)
			if terr != nil {
				return terr
			}
			symbol = tok.Symbol
			balance, err = client.TokenBalance(ctx, tok, address)
		}
		if err != nil {
			return err
		}

	case solana.Supported(chainName):
		client, err := solana.NewClient(chainName, cc.RPCURL, logger)
		if err != nil {
			return err
		}

		if tokenSym == "" {
			balance, err = client.NativeBalance(ctx, address)
		} else {
			tok, terr := cc.Token(chainName, tokenSym)
			if terr != nil {
				return terr
			}
			symbol = tok.Symbol
			balance, err = client.TokenBalance(ctx, tok, address)
		}
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: %q", dex.ErrUnsupportedChain, chainName)
	}

	fmt.Printf("%s balance of %s: %s\n", symbol, address, balance)
	return nil
}

func runPnL(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	chainName, _ := cmd.Flags().GetString("chain")
	assetSym, _ := cmd.Flags().GetString("asset")
	if assetSym == "" {
		return fmt.Errorf("--asset is required")
	}
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("pg-dsn is required for pnl")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := cfg.Chain(chainName)
	if err != nil {
		return err
	}
	asset, err := cc.Token(chainName, assetSym)
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	swaps, err := store.SwapsForAsset(ctx, chainName, asset)
	if err != nil {
		return err
	}
	if len(swaps) == 0 {
		fmt.Printf("no recorded swaps for %s on %s\n", asset.Symbol, chainName)
		return nil
	}

	pnl := portfolio.ComputePnLFIFO(swaps, asset)
	for counter, details := range pnl.Details {
		for _, d := range details {
			fmt.Printf("sold %s %s: bought @ %s, sold @ %s %s, pnl %s\n",
				d.SoldAmount, asset.Symbol, d.BuyingPrice, d.SellingPrice, counter, d.PnL)
		}
	}
	for counter, lots := range pnl.Open {
		for _, lot := range lots {
			fmt.Printf("open %s %s @ %s %s\n", lot.Amount, asset.Symbol, lot.Price, counter)
		}
	}
	fmt.Printf("realized pnl: %s\n", pnl.Total())
	return nil
}
