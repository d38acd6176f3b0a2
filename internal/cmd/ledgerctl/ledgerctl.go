// Package ledgerctl implements a command-line client for the ledger service.
package ledgerctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	grpcmd "google.golang.org/grpc/metadata"

	entrypoint "github.com/louisbranch/rbac-ledger/internal/platform/cmd"
	"github.com/louisbranch/rbac-ledger/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/rbac-ledger/internal/platform/grpc"
	"github.com/louisbranch/rbac-ledger/internal/platform/timeouts"
	ledgergrpc "github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/ledger"
	grpcmeta "github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/metadata"
)

// Config holds ledgerctl configuration.
type Config struct {
	Addr   string `env:"ADDR"`
	Token  string `env:"TOKEN"`
	Locale string `env:"LOCALE"`
	// Args are the positional arguments: a command name and its operands.
	Args []string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", discovery.OrDefaultGRPCAddr(cfg.Addr), "Ledger gRPC address")
	fs.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token attesting the caller")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for error messages")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Args = fs.Args()
	return cfg, nil
}

// API is the subset of the ledger client the CLI drives.
type API interface {
	Mint(ctx context.Context, in *ledgergrpc.MintRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	Burn(ctx context.Context, in *ledgergrpc.BurnRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	Pause(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	Unpause(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	EmergencyPause(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	ViewSensitiveStats(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	ExecuteTransfer(ctx context.Context, in *ledgergrpc.ExecuteTransferRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	BatchMint(ctx context.Context, in *ledgergrpc.BatchRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	BatchBurn(ctx context.Context, in *ledgergrpc.BatchRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	ProposeTransfer(ctx context.Context, in *ledgergrpc.ProposeTransferRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	ApproveTransfer(ctx context.Context, in *ledgergrpc.TransferRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	ViewPendingTransfer(ctx context.Context, in *ledgergrpc.TransferRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	OwnerPing(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	AdminPing(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.CommandResponse, error)
	BalanceOf(ctx context.Context, in *ledgergrpc.BalanceRequest, opts ...grpc.CallOption) (*ledgergrpc.BalanceResponse, error)
	GetStatus(ctx context.Context, in *ledgergrpc.Empty, opts ...grpc.CallOption) (*ledgergrpc.StatusResponse, error)
	ListRoleMembers(ctx context.Context, in *ledgergrpc.RoleMembersRequest, opts ...grpc.CallOption) (*ledgergrpc.RoleMembersResponse, error)
	ListEvents(ctx context.Context, in *ledgergrpc.ListEventsRequest, opts ...grpc.CallOption) (*ledgergrpc.ListEventsResponse, error)
	GrantRole(ctx context.Context, in *ledgergrpc.RoleRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
	RevokeRole(ctx context.Context, in *ledgergrpc.RoleRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
	RenounceRole(ctx context.Context, in *ledgergrpc.RoleRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
	GetOwner(ctx context.Context, in *ledgergrpc.Empty, opts ...grpc.CallOption) (*ledgergrpc.OwnerResponse, error)
	TransferOwnership(ctx context.Context, in *ledgergrpc.TransferOwnershipRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
	AcceptOwnership(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
	RenounceOwnership(ctx context.Context, in *ledgergrpc.CallerRequest, opts ...grpc.CallOption) (*ledgergrpc.Empty, error)
}

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage: ledgerctl [flags] <command> [args]")

// Run dials the ledger and executes one command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if len(cfg.Args) == 0 {
		return ErrUsage
	}
	conn, err := platformgrpc.Dial(ctx, cfg.Addr, timeouts.GRPCDial, nil, platformgrpc.ClientOptions()...)
	if err != nil {
		return err
	}
	defer conn.Close()

	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	return Execute(outgoing(callCtx, cfg), ledgergrpc.NewClient(conn), cfg.Args, out)
}

func outgoing(ctx context.Context, cfg Config) context.Context {
	var pairs []string
	if token := strings.TrimSpace(cfg.Token); token != "" {
		pairs = append(pairs, grpcmeta.AuthorizationHeader, "Bearer "+token)
	}
	if locale := strings.TrimSpace(cfg.Locale); locale != "" {
		pairs = append(pairs, grpcmeta.LocaleHeader, locale)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return grpcmd.AppendToOutgoingContext(ctx, pairs...)
}

// Execute runs the command named by args[0] against api and writes the
// response as indented JSON.
func Execute(ctx context.Context, api API, args []string, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	name, operands := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(operands) != len(cmd.operands) {
		return fmt.Errorf("usage: ledgerctl %s %s", name, strings.Join(cmd.operands, " "))
	}
	resp, err := cmd.run(ctx, api, operands)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

type command struct {
	operands []string
	run      func(ctx context.Context, api API, args []string) (any, error)
}

var commands = map[string]command{
	"status": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.GetStatus(ctx, &ledgergrpc.Empty{})
	}},
	"balance": {operands: []string{"<account>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.BalanceOf(ctx, &ledgergrpc.BalanceRequest{Account: args[0]})
	}},
	"mint": {operands: []string{"<to>", "<amount>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.Mint(ctx, &ledgergrpc.MintRequest{To: args[0], Amount: args[1]})
	}},
	"burn": {operands: []string{"<from>", "<amount>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.Burn(ctx, &ledgergrpc.BurnRequest{From: args[0], Amount: args[1]})
	}},
	"transfer": {operands: []string{"<from>", "<to>", "<amount>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.ExecuteTransfer(ctx, &ledgergrpc.ExecuteTransferRequest{From: args[0], To: args[1], Amount: args[2]})
	}},
	"batch-mint": {operands: []string{"<accounts>", "<amounts>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.BatchMint(ctx, &ledgergrpc.BatchRequest{Accounts: splitList(args[0]), Amounts: splitList(args[1])})
	}},
	"batch-burn": {operands: []string{"<accounts>", "<amounts>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.BatchBurn(ctx, &ledgergrpc.BatchRequest{Accounts: splitList(args[0]), Amounts: splitList(args[1])})
	}},
	"propose": {operands: []string{"<from>", "<to>", "<amount>", "<approvals>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		required, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("approvals must be an unsigned integer: %w", err)
		}
		return api.ProposeTransfer(ctx, &ledgergrpc.ProposeTransferRequest{From: args[0], To: args[1], Amount: args[2], RequiredApprovals: uint32(required)})
	}},
	"approve": {operands: []string{"<id>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.ApproveTransfer(ctx, &ledgergrpc.TransferRequest{TransferID: id})
	}},
	"pending": {operands: []string{"<id>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		return api.ViewPendingTransfer(ctx, &ledgergrpc.TransferRequest{TransferID: id})
	}},
	"stats": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.ViewSensitiveStats(ctx, &ledgergrpc.CallerRequest{})
	}},
	"pause": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.Pause(ctx, &ledgergrpc.CallerRequest{})
	}},
	"unpause": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.Unpause(ctx, &ledgergrpc.CallerRequest{})
	}},
	"emergency-pause": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.EmergencyPause(ctx, &ledgergrpc.CallerRequest{})
	}},
	"owner-ping": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.OwnerPing(ctx, &ledgergrpc.CallerRequest{})
	}},
	"admin-ping": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.AdminPing(ctx, &ledgergrpc.CallerRequest{})
	}},
	"members": {operands: []string{"<role>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.ListRoleMembers(ctx, &ledgergrpc.RoleMembersRequest{Role: args[0]})
	}},
	"grant": {operands: []string{"<role>", "<account>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.GrantRole(ctx, &ledgergrpc.RoleRequest{Role: args[0], Account: args[1]})
	}},
	"revoke": {operands: []string{"<role>", "<account>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.RevokeRole(ctx, &ledgergrpc.RoleRequest{Role: args[0], Account: args[1]})
	}},
	"renounce": {operands: []string{"<role>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.RenounceRole(ctx, &ledgergrpc.RoleRequest{Role: args[0]})
	}},
	"owner": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.GetOwner(ctx, &ledgergrpc.Empty{})
	}},
	"transfer-ownership": {operands: []string{"<new-owner>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.TransferOwnership(ctx, &ledgergrpc.TransferOwnershipRequest{NewOwner: args[0]})
	}},
	"accept-ownership": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.AcceptOwnership(ctx, &ledgergrpc.CallerRequest{})
	}},
	"renounce-ownership": {run: func(ctx context.Context, api API, _ []string) (any, error) {
		return api.RenounceOwnership(ctx, &ledgergrpc.CallerRequest{})
	}},
	"events": {operands: []string{"<filter>"}, run: func(ctx context.Context, api API, args []string) (any, error) {
		return api.ListEvents(ctx, &ledgergrpc.ListEventsRequest{Filter: args[0], OrderBy: "seq desc"})
	}},
}

func parseID(value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("transfer id must be an unsigned integer: %w", err)
	}
	return id, nil
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}
