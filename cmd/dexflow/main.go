package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dexflow/internal/config"
	"dexflow/internal/dex"
	"dexflow/internal/dex/jupiter"
	"dexflow/internal/dex/uniswap"
	"dexflow/internal/metrics"
)

func main() {
	// Secrets like private keys and RPC URLs commonly live in a local
	// .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "dexflow",
		Short:        "Multi-chain DEX trading engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("metrics-addr", "", "address for the Prometheus endpoint, empty disables it")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN for swap persistence")

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Quote a token pair on a venue",
		RunE:  runPrice,
	}
	priceCmd.Flags().String("venue", "uniswap_v3", "venue identifier")
	priceCmd.Flags().String("chain", "ethereum", "chain name")
	priceCmd.Flags().String("base", "", "base token symbol (the token being priced)")
	priceCmd.Flags().String("quote", "", "quote token symbol (the pricing unit)")
	root.AddCommand(priceCmd)

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Execute a swap on a venue",
		RunE:  runSwap,
	}
	swapCmd.Flags().String("venue", "uniswap_v3", "venue identifier")
	swapCmd.Flags().String("chain", "ethereum", "chain name")
	swapCmd.Flags().String("base", "", "token to spend")
	swapCmd.Flags().String("quote", "", "token to receive")
	swapCmd.Flags().String("amount", "", "amount of the base token to spend, in human units")
	swapCmd.Flags().Int64("slippage-bps", 100, "slippage tolerance in basis points")
	root.AddCommand(swapCmd)

	marketsCmd := &cobra.Command{
		Use:   "markets",
		Short: "List tradable pairs among configured tokens",
		RunE:  runMarkets,
	}
	marketsCmd.Flags().String("venue", "uniswap_v3", "venue identifier")
	marketsCmd.Flags().String("chain", "ethereum", "chain name")
	marketsCmd.Flags().StringSlice("tokens", nil, "token symbols (comma-separated), empty means all configured")
	root.AddCommand(marketsCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a wallet balance",
		RunE:  runBalance,
	}
	balanceCmd.Flags().String("chain", "ethereum", "chain name")
	balanceCmd.Flags().String("token", "", "token symbol, empty means the native asset")
	balanceCmd.Flags().String("address", "", "wallet address, defaults to the configured wallet")
	root.AddCommand(balanceCmd)

	pnlCmd := &cobra.Command{
		Use:   "pnl",
		Short: "Compute realized FIFO PnL for an asset from stored swaps",
		RunE:  runPnL,
	}
	pnlCmd.Flags().String("chain", "ethereum", "chain name")
	pnlCmd.Flags().String("asset", "", "tracked asset symbol")
	root.AddCommand(pnlCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRegistry assembles the default venue set.
func buildRegistry() *dex.Registry {
	r := dex.NewRegistry()
	r.Register("uniswap_v2", uniswap.V2Builder())
	r.Register("uniswap_v3", uniswap.V3Builder())
	r.Register("jupiter", jupiter.Builder())
	return r
}

// setup loads config, builds the logger and starts the optional metrics
// endpoint.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}
	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
