// Package discovery centralizes the ledger's default listen and dial addresses.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// GRPCPort is the default ledger gRPC port.
	GRPCPort = 8095
	// MetricsPort is the default Prometheus scrape port.
	MetricsPort = 9095
)

// DefaultGRPCAddr returns the local dial address of the ledger service.
func DefaultGRPCAddr() string {
	return "localhost:" + strconv.Itoa(GRPCPort)
}

// DefaultMetricsAddr returns the default metrics listen address.
func DefaultMetricsAddr() string {
	return ":" + strconv.Itoa(MetricsPort)
}

// OrDefaultGRPCAddr returns value when set, otherwise the ledger default.
func OrDefaultGRPCAddr(value string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr()
}
