package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadChainsAndTokens(t *testing.T) {
	path := writeConfig(t, `
log-level: debug
chains:
  ethereum_sepolia:
    rpc_url: https://sepolia.example
    gas_limit: 300000
    tokens:
      USDC:
        address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"
        decimals: 6
      WETH:
        address: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"
        decimals: 18
  solana:
    rpc_url: https://api.mainnet-beta.solana.com
    tokens:
      SOL:
        address: "So11111111111111111111111111111111111111112"
        decimals: 9
        is_native: true
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level: %s", cfg.LogLevel)
	}

	chain, err := cfg.Chain("ethereum_sepolia")
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if chain.GasLimit != 300000 {
		t.Fatalf("gas limit: %d", chain.GasLimit)
	}

	usdc, err := chain.Token("ethereum_sepolia", "USDC")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if usdc.Decimals != 6 || usdc.Chain != "ethereum_sepolia" || usdc.Symbol != "USDC" {
		t.Fatalf("token not fully resolved: %+v", usdc)
	}

	sol, err := cfg.Chains["solana"].Token("solana", "SOL")
	if err != nil {
		t.Fatalf("sol token: %v", err)
	}
	if !sol.IsNative {
		t.Fatal("SOL should be native")
	}

	if _, err := cfg.Chain("base"); err == nil {
		t.Fatal("unknown chain should error")
	}
	if _, err := chain.Token("ethereum_sepolia", "PEPE"); err == nil {
		t.Fatal("unknown token should error")
	}
}

func TestLoadRejectsMissingRPC(t *testing.T) {
	path := writeConfig(t, `
chains:
  ethereum:
    gas_limit: 100000
`)
	if _, err := Load(path, nil); err == nil {
		t.Fatal("expected validation error for missing rpc_url")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
chains: {}
`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Jupiter.QuoteURL == "" {
		t.Fatal("jupiter quote url default missing")
	}
	if cfg.Jupiter.SlippageBps != 100 {
		t.Fatalf("jupiter slippage default: %d", cfg.Jupiter.SlippageBps)
	}
}
