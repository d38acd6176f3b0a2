package metadata

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestIsPrintableASCII(t *testing.T) {
	if IsPrintableASCII("") {
		t.Fatal("expected empty string to be non-printable")
	}
	if !IsPrintableASCII("hello") {
		t.Fatal("expected printable ascii to be accepted")
	}
	if IsPrintableASCII("line\n") {
		t.Fatal("expected newline to be non-printable")
	}
	if IsPrintableASCII(string([]byte{0x7f})) {
		t.Fatal("expected DEL to be non-printable")
	}
}

func TestFirstMetadataValue(t *testing.T) {
	md := metadata.MD{
		"X-Rbac-Ledger-Request-Id": {"\n", "req-1"},
	}
	if got := FirstMetadataValue(md, RequestIDHeader); got != "req-1" {
		t.Fatalf("value = %q, want req-1", got)
	}
	if FirstMetadataValue(metadata.MD{}, RequestIDHeader) != "" {
		t.Fatal("expected empty value for empty metadata")
	}
}

func TestIncomingValue(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		LocaleHeader, " pt-BR ",
		RequestIDHeader, "req-9",
	))
	if got := LocaleFromContext(ctx); got != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", got)
	}
	if got := IncomingValue(ctx, RequestIDHeader); got != "req-9" {
		t.Fatalf("request id = %q, want req-9", got)
	}
	if got := IncomingValue(context.Background(), RequestIDHeader); got != "" {
		t.Fatalf("request id = %q, want empty", got)
	}
}
