package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/rbac-ledger/internal/cmd/ledgerctl"
)

func main() {
	cfg, err := ledgerctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ledgerctl.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("ledgerctl: %v", err)
	}
}
