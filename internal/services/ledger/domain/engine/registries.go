package engine

import (
	"fmt"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/access"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

// Registries holds the command and event registries for every domain.
type Registries struct {
	Commands *command.Registry
	Events   *event.Registry
}

// NewRegistries registers the ledger, transfer and access domains.
func NewRegistries() (Registries, error) {
	commands := command.NewRegistry()
	events := event.NewRegistry()
	for name, register := range map[string]func(*command.Registry) error{
		"ledger":   ledger.RegisterCommands,
		"transfer": transfer.RegisterCommands,
		"access":   access.RegisterCommands,
	} {
		if err := register(commands); err != nil {
			return Registries{}, fmt.Errorf("register %s commands: %w", name, err)
		}
	}
	if err := ledger.RegisterEvents(events); err != nil {
		return Registries{}, fmt.Errorf("register ledger events: %w", err)
	}
	if err := transfer.RegisterEvents(events); err != nil {
		return Registries{}, fmt.Errorf("register transfer events: %w", err)
	}
	return Registries{Commands: commands, Events: events}, nil
}
