package main

import (
	"flag"
	"log"
	"os"

	"github.com/louisbranch/rbac-ledger/internal/cmd/token"
)

func main() {
	cfg, err := token.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := token.Run(os.Stdout, cfg); err != nil {
		log.Fatalf("ledger-token: %v", err)
	}
}
