package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dexflow/internal/token"
)

// ChainConfig holds per-chain settings. The engine treats these values as
// validated input; Load performs shape validation only.
type ChainConfig struct {
	RPCURL        string                     `mapstructure:"rpc_url"`
	PrivateKey    string                     `mapstructure:"private_key"`
	WalletAddress string                     `mapstructure:"wallet_address"`
	GasLimit      uint64                     `mapstructure:"gas_limit"`
	Tokens        map[string]token.TokenInfo `mapstructure:"tokens"`
}

// JupiterConfig holds the aggregator quote endpoint settings.
type JupiterConfig struct {
	QuoteURL    string `mapstructure:"quote_url"`
	SlippageBps int64  `mapstructure:"slippage_bps"`
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	LogLevel    string
	MetricsAddr string
	PostgresDSN string
	Chains      map[string]ChainConfig
	Jupiter     JupiterConfig
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("jupiter.quote_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("jupiter.slippage_bps", int64(100))

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		LogLevel:    v.GetString("log-level"),
		MetricsAddr: v.GetString("metrics-addr"),
		PostgresDSN: v.GetString("pg-dsn"),
	}

	if err := v.UnmarshalKey("chains", &cfg.Chains); err != nil {
		return Config{}, fmt.Errorf("parse chains: %w", err)
	}
	if err := v.UnmarshalKey("jupiter", &cfg.Jupiter); err != nil {
		return Config{}, fmt.Errorf("parse jupiter: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	for name, chain := range c.Chains {
		if chain.RPCURL == "" {
			return fmt.Errorf("chain %q: rpc_url is required", name)
		}
		for symbol, info := range chain.Tokens {
			if info.Address == "" {
				return fmt.Errorf("chain %q token %q: address is required", name, symbol)
			}
			if info.Decimals < 0 {
				return fmt.Errorf("chain %q token %q: negative decimals", name, symbol)
			}
		}
	}
	return nil
}

// Chain returns the configuration for the named chain.
func (c Config) Chain(name string) (ChainConfig, error) {
	chain, ok := c.Chains[name]
	if !ok {
		return ChainConfig{}, fmt.Errorf("chain %q is not configured", name)
	}
	return chain, nil
}

// Token resolves a symbol against the chain's token registry. The chain
// name is stamped onto the result so callers get a complete identity.
func (c ChainConfig) Token(chain, symbol string) (token.TokenInfo, error) {
	info, ok := c.Tokens[symbol]
	if !ok {
		return token.TokenInfo{}, fmt.Errorf("token %q is not configured on chain %q", symbol, chain)
	}
	info.Symbol = symbol
	info.Chain = chain
	return info, nil
}
