package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dexflow/internal/portfolio"
	"dexflow/internal/portfolio/postgres"
	"dexflow/internal/token"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	venueName, _ := cmd.Flags().GetString("venue")
	chainName, _ := cmd.Flags().GetString("chain")
	baseSym, _ := cmd.Flags().GetString("base")
	quoteSym, _ := cmd.Flags().GetString("quote")
	if baseSym == "" || quoteSym == "" {
		return fmt.Errorf("--base and --quote are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := cfg.Chain(chainName)
	if err != nil {
		return err
	}
	base, err := cc.Token(chainName, baseSym)
	if err != nil {
		return err
	}
	quote, err := cc.Token(chainName, quoteSym)
	if err != nil {
		return err
	}

	venue, err := buildRegistry().New(ctx, venueName, cfg, chainName, logger)
	if err != nil {
		return err
	}

	price, err := venue.TokenPrice(ctx, quote, base)
	if err != nil {
		return err
	}
	fmt.Printf("1 %s = %s %s (%s on %s)\n", base.Symbol, price, quote.Symbol, venue.Name(), chainName)
	return nil
}

func runSwap(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	venueName, _ := cmd.Flags().GetString("venue")
	chainName, _ := cmd.Flags().GetString("chain")
	baseSym, _ := cmd.Flags().GetString("base")
	quoteSym, _ := cmd.Flags().GetString("quote")
	amountStr, _ := cmd.Flags().GetString("amount")
	slippageBps, _ := cmd.Flags().GetInt64("slippage-bps")
	if baseSym == "" || quoteSym == "" || amountStr == "" {
		return fmt.Errorf("--base, --quote and --amount are required")
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	slippage, err := token.NewSlippage(slippageBps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := cfg.Chain(chainName)
	if err != nil {
		return err
	}
	base, err := cc.Token(chainName, baseSym)
	if err != nil {
		return err
	}
	quote, err := cc.Token(chainName, quoteSym)
	if err != nil {
		return err
	}

	venue, err := buildRegistry().New(ctx, venueName, cfg, chainName, logger)
	if err != nil {
		return err
	}

	logger.Info("executing swap",
		zap.String("venue", venueName),
		zap.String("chain", chainName),
		zap.String("base", base.Symbol),
		zap.String("quote", quote.Symbol),
		zap.String("amount", amount.String()),
		zap.Int64("slippage_bps", slippage.Bps()))

	result, err := venue.Swap(ctx, base, quote, amount, slippage)
	if err != nil {
		return err
	}

	if !result.Success {
		fmt.Printf("swap failed: %s (tx %s)\n", result.Err, result.TxHash)
		return nil
	}
	fmt.Printf("spent %s, received %s (tx %s)\n",
		result.BaseAmountSpent, result.QuoteAmountReceived, result.TxHash)

	if cfg.PostgresDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		swap := portfolio.Swap{
			Sold:        result.BaseAmountSpent,
			Bought:      result.QuoteAmountReceived,
			TxHash:      result.TxHash,
			BlockNumber: result.BlockNumber,
		}
		if err := store.RecordSwap(ctx, chainName, swap); err != nil {
			return fmt.Errorf("record swap: %w", err)
		}
		logger.Info("swap recorded", zap.String("tx", result.TxHash))
	}
	return nil
}

func runMarkets(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	venueName, _ := cmd.Flags().GetString("venue")
	chainName, _ := cmd.Flags().GetString("chain")
	symbols, _ := cmd.Flags().GetStringSlice("tokens")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := cfg.Chain(chainName)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		for symbol := range cc.Tokens {
			symbols = append(symbols, symbol)
		}
	}
	tokens := make([]token.TokenInfo, 0, len(symbols))
	for _, symbol := range symbols {
		info, err := cc.Token(chainName, symbol)
		if err != nil {
			return err
		}
		tokens = append(tokens, info)
	}

	venue, err := buildRegistry().New(ctx, venueName, cfg, chainName, logger)
	if err != nil {
		return err
	}

	markets, err := venue.MarketsForTokens(ctx, tokens)
	if err != nil {
		return err
	}
	if len(markets) == 0 {
		fmt.Println("no markets found")
		return nil
	}
	for _, m := range markets {
		fmt.Printf("%s/%s\n", m.TokenA.Symbol, m.TokenB.Symbol)
	}
	return nil
}
