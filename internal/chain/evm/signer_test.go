package evm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func encodeRevert(t *testing.T, reason string) []byte {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("string type: %v", err)
	}
	args := abi.Arguments{{Type: stringType}}
	packed, err := args.Pack(reason)
	if err != nil {
		t.Fatalf("pack reason: %v", err)
	}
	return append(append([]byte{}, errorSelector...), packed...)
}

func TestDecodeRevertData(t *testing.T) {
	reason := "UniswapV2Router: INSUFFICIENT_OUTPUT_AMOUNT"
	got, ok := DecodeRevertData(encodeRevert(t, reason))
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got != reason {
		t.Fatalf("got %q want %q", got, reason)
	}
}

func TestDecodeRevertDataRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01, 0x02},
		make([]byte, 68), // right length, wrong selector
	}
	for _, data := range cases {
		if _, ok := DecodeRevertData(data); ok {
			t.Fatalf("decode should fail for %x", data)
		}
	}
}

func TestDecodeRevertDataTruncated(t *testing.T) {
	full := encodeRevert(t, "some fairly long revert reason text")
	if _, ok := DecodeRevertData(full[:40]); ok {
		t.Fatal("truncated payload must not decode")
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if _, err := ParseAddress("not-an-address"); err == nil {
		t.Fatal("malformed address accepted")
	}
	if _, err := ParseAddress("0x123"); err == nil {
		t.Fatal("short address accepted")
	}
}

func TestPackApprove(t *testing.T) {
	spender, err := ParseAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	data, err := PackApprove(spender, big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	// approve selector is 0x095ea7b3
	if len(data) != 4+32+32 || data[0] != 0x09 || data[1] != 0x5e || data[2] != 0xa7 || data[3] != 0xb3 {
		t.Fatalf("unexpected calldata: %x", data)
	}
}
