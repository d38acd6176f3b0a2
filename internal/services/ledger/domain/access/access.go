// Package access declares the capability pings that only the owner or the
// registry admin may call. They change no state and emit no events.
package access

import (
	"errors"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/guard"
)

const (
	CommandTypeOwnerPing command.Type = "access.owner_ping"
	CommandTypeAdminPing command.Type = "access.admin_ping"

	// OwnerOK is returned by a successful owner ping.
	OwnerOK = "owner_ok"
	// AdminOK is returned by a successful admin ping.
	AdminOK = "admin_ok"
)

// RegisterCommands registers the pings with the shared registry.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	if err := registry.Register(command.Definition{
		Type:   CommandTypeOwnerPing,
		Policy: guard.Policy{Authorization: guard.AuthorizeOwner},
	}); err != nil {
		return err
	}
	return registry.Register(command.Definition{
		Type:   CommandTypeAdminPing,
		Policy: guard.Policy{Authorization: guard.AuthorizeAdmin},
	})
}

// Decide accepts a ping once its guard has passed.
func Decide(cmd command.Command) (command.Decision, string) {
	switch cmd.Type {
	case CommandTypeOwnerPing:
		return command.Accept(), OwnerOK
	case CommandTypeAdminPing:
		return command.Accept(), AdminOK
	}
	return command.Reject(command.Rejection{Code: string(apperrors.CodeUnknown), Message: "unsupported access command: " + string(cmd.Type)}), ""
}
