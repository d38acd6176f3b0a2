package discovery

import "testing"

func TestOrDefaultGRPCAddr(t *testing.T) {
	if got := OrDefaultGRPCAddr(" ledger:1234 "); got != "ledger:1234" {
		t.Fatalf("OrDefaultGRPCAddr = %q, want %q", got, "ledger:1234")
	}
	if got := OrDefaultGRPCAddr(""); got != "localhost:8095" {
		t.Fatalf("OrDefaultGRPCAddr(\"\") = %q, want %q", got, "localhost:8095")
	}
}

func TestDefaultMetricsAddr(t *testing.T) {
	if got := DefaultMetricsAddr(); got != ":9095" {
		t.Fatalf("DefaultMetricsAddr = %q, want %q", got, ":9095")
	}
}
