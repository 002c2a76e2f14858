package evm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"dexflow/internal/dex"
	"dexflow/internal/metrics"
)

func TestNewClientUnsupportedChain(t *testing.T) {
	_, err := NewClient(context.Background(), "dogechain", "http://localhost:8545")
	if !errors.Is(err, dex.ErrUnsupportedChain) {
		t.Fatalf("want ErrUnsupportedChain, got %v", err)
	}
}

func TestNewClientDialFailureCounted(t *testing.T) {
	counter := metrics.RPCErrors.WithLabelValues("ethereum")
	before := testutil.ToFloat64(counter)

	_, err := NewClient(context.Background(), "ethereum", "bad-scheme://node")
	if err == nil {
		t.Fatal("dial with unknown scheme must fail")
	}
	var rpcErr *dex.RpcError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("want RpcError, got %v", err)
	}
	if rpcErr.Op != "dial" {
		t.Fatalf("op = %q, want dial", rpcErr.Op)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("rpc error counter = %v, want %v", got, before+1)
	}
}
