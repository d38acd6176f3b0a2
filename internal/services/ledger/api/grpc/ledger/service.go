package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.einride.tech/aip/ordering"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/platform/grpc/pagination"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/api/grpc/metadata"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/amount"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/filter"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/engine"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/storage"
)

var eventPageSize = pagination.PageSizeConfig{Default: 50, Max: 500}

var _ LedgerServer = (*Service)(nil)

// Service implements LedgerServer on top of the engine.
type Service struct {
	engine *engine.Handler
	events storage.EventPager
}

// NewService creates the gRPC service. events may be nil, in which case
// ListEvents is unavailable.
func NewService(handler *engine.Handler, events storage.EventPager) *Service {
	return &Service{engine: handler, events: events}
}

// Mint credits an account.
func (s *Service) Mint(ctx context.Context, in *MintRequest) (*CommandResponse, error) {
	value, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return s.command(ctx)(s.engine.Mint(ctx, callerOf(ctx, in.Caller), in.To, value))
}

// Burn debits an account.
func (s *Service) Burn(ctx context.Context, in *BurnRequest) (*CommandResponse, error) {
	value, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return s.command(ctx)(s.engine.Burn(ctx, callerOf(ctx, in.Caller), in.From, value))
}

// Pause halts pause-checked operations.
func (s *Service) Pause(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.Pause(ctx, callerOf(ctx, in.Caller)))
}

// Unpause resumes pause-checked operations.
func (s *Service) Unpause(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.Unpause(ctx, callerOf(ctx, in.Caller)))
}

// EmergencyPause lets the owner pause the ledger.
func (s *Service) EmergencyPause(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.EmergencyPause(ctx, callerOf(ctx, in.Caller)))
}

// ViewSensitiveStats returns supply, pending count and pause flag.
func (s *Service) ViewSensitiveStats(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.ViewSensitiveStats(ctx, callerOf(ctx, in.Caller)))
}

// ExecuteTransfer moves funds without the approval workflow.
func (s *Service) ExecuteTransfer(ctx context.Context, in *ExecuteTransferRequest) (*CommandResponse, error) {
	value, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return s.command(ctx)(s.engine.ExecuteTransfer(ctx, callerOf(ctx, in.Caller), in.From, in.To, value))
}

// BatchMint credits several accounts atomically.
func (s *Service) BatchMint(ctx context.Context, in *BatchRequest) (*CommandResponse, error) {
	amounts, err := parseAmounts(in.Amounts)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return s.command(ctx)(s.engine.BatchMint(ctx, callerOf(ctx, in.Caller), in.Accounts, amounts))
}

// BatchBurn debits several accounts atomically.
func (s *Service) BatchBurn(ctx context.Context, in *BatchRequest) (*CommandResponse, error) {
	amounts, err := parseAmounts(in.Amounts)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return s.command(ctx)(s.engine.BatchBurn(ctx, callerOf(ctx, in.Caller), in.Accounts, amounts))
}

// ProposeTransfer opens a pending transfer.
func (s *Service) ProposeTransfer(ctx context.Context, in *ProposeTransferRequest) (*CommandResponse, error) {
	value, err := parseAmount("amount", in.Amount)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	result, err := s.engine.ProposeTransfer(ctx, callerOf(ctx, in.Caller), in.From, in.To, value, in.RequiredApprovals)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	resp := commandResponse(result)
	id := result.TransferID
	resp.TransferID = &id
	return resp, nil
}

// ApproveTransfer records an approval and finalizes at threshold.
func (s *Service) ApproveTransfer(ctx context.Context, in *TransferRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.ApproveTransfer(ctx, callerOf(ctx, in.Caller), in.TransferID))
}

// ViewPendingTransfer returns one pending transfer.
func (s *Service) ViewPendingTransfer(ctx context.Context, in *TransferRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.ViewPendingTransfer(ctx, callerOf(ctx, in.Caller), in.TransferID))
}

// OwnerPing answers owner_ok for the owner.
func (s *Service) OwnerPing(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.OwnerPing(ctx, callerOf(ctx, in.Caller)))
}

// AdminPing answers admin_ok for operators.
func (s *Service) AdminPing(ctx context.Context, in *CallerRequest) (*CommandResponse, error) {
	return s.command(ctx)(s.engine.AdminPing(ctx, callerOf(ctx, in.Caller)))
}

// BalanceOf returns an account balance. Unknown accounts read as zero.
func (s *Service) BalanceOf(ctx context.Context, in *BalanceRequest) (*BalanceResponse, error) {
	account := strings.TrimSpace(in.Account)
	if account == "" {
		return nil, handleDomainError(ctx, apperrors.New(apperrors.CodeInvalidAccount, "account is required"))
	}
	return &BalanceResponse{Account: account, Balance: amount.Format(s.engine.BalanceOf(account))}, nil
}

// GetStatus returns supply, pause flag and journal head.
func (s *Service) GetStatus(context.Context, *Empty) (*StatusResponse, error) {
	seq, hash := s.engine.Head()
	return &StatusResponse{
		TotalSupply: amount.Format(s.engine.TotalSupply()),
		Paused:      s.engine.IsPaused(),
		HeadSeq:     seq,
		HeadHash:    hash,
	}, nil
}

// ListRoleMembers enumerates a role in grant order.
func (s *Service) ListRoleMembers(ctx context.Context, in *RoleMembersRequest) (*RoleMembersResponse, error) {
	r, ok := role.Parse(in.Role)
	if !ok {
		r = role.Name(in.Role)
	}
	members, err := s.engine.ListRoleMembers(ctx, r)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	if members == nil {
		members = []string{}
	}
	return &RoleMembersResponse{Role: string(r), Members: members}, nil
}

// ListEvents pages through the journal.
func (s *Service) ListEvents(ctx context.Context, in *ListEventsRequest) (*ListEventsResponse, error) {
	if s.events == nil {
		return nil, status.Error(codes.Unimplemented, "event listing is not configured")
	}
	cursor, err := pagination.DecodeSeqToken(in.PageToken)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	descending, err := parseOrderBy(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	cond, err := filter.ParseEventFilter(in.Filter)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	page, err := s.events.ListEventsPage(ctx, storage.ListEventsPageRequest{
		Cursor:     cursor,
		PageSize:   pagination.ClampPageSize(in.PageSize, eventPageSize),
		Filter:     cond,
		Descending: descending,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	resp := &ListEventsResponse{Events: eventsToWire(page.Events)}
	if page.HasMore {
		resp.NextPageToken = pagination.EncodeSeqToken(page.LastSeq)
	}
	return resp, nil
}

// GrantRole adds an account to a role. Only the role admin may grant.
func (s *Service) GrantRole(ctx context.Context, in *RoleRequest) (*Empty, error) {
	if err := s.engine.GrantRole(ctx, callerOf(ctx, in.Caller), in.Account, role.Name(in.Role)); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// RevokeRole removes an account from a role. Only the role admin may revoke.
func (s *Service) RevokeRole(ctx context.Context, in *RoleRequest) (*Empty, error) {
	if err := s.engine.RevokeRole(ctx, callerOf(ctx, in.Caller), in.Account, role.Name(in.Role)); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// RenounceRole drops the caller's own membership.
func (s *Service) RenounceRole(ctx context.Context, in *RoleRequest) (*Empty, error) {
	if err := s.engine.RenounceRole(ctx, callerOf(ctx, in.Caller), role.Name(in.Role)); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// GetOwner returns the current and pending owner.
func (s *Service) GetOwner(ctx context.Context, _ *Empty) (*OwnerResponse, error) {
	current, pending, err := s.engine.Owner(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &OwnerResponse{Owner: current, Pending: pending}, nil
}

// TransferOwnership nominates a new owner.
func (s *Service) TransferOwnership(ctx context.Context, in *TransferOwnershipRequest) (*Empty, error) {
	if err := s.engine.TransferOwnership(ctx, callerOf(ctx, in.Caller), in.NewOwner); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// AcceptOwnership completes a pending ownership transfer.
func (s *Service) AcceptOwnership(ctx context.Context, in *CallerRequest) (*Empty, error) {
	if err := s.engine.AcceptOwnership(ctx, callerOf(ctx, in.Caller)); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// RenounceOwnership leaves the ledger without an owner.
func (s *Service) RenounceOwnership(ctx context.Context, in *CallerRequest) (*Empty, error) {
	if err := s.engine.RenounceOwnership(ctx, callerOf(ctx, in.Caller)); err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &Empty{}, nil
}

// command adapts an engine result pair to a response.
func (s *Service) command(ctx context.Context) func(engine.Result, error) (*CommandResponse, error) {
	return func(result engine.Result, err error) (*CommandResponse, error) {
		if err != nil {
			return nil, handleDomainError(ctx, err)
		}
		return commandResponse(result), nil
	}
}

func callerOf(ctx context.Context, requested string) string {
	if caller := strings.TrimSpace(requested); caller != "" {
		return caller
	}
	attested, _ := authn.AttestedCaller(ctx)
	return attested
}

func parseAmount(field, value string) (*big.Int, error) {
	n, err := amount.Parse(value)
	if err != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidAmount,
			fmt.Sprintf("%s %q is not a base-10 integer", field, value),
			map[string]string{"Field": field})
	}
	return n, nil
}

func parseAmounts(values []string) ([]*big.Int, error) {
	amounts := make([]*big.Int, len(values))
	for i, value := range values {
		n, err := parseAmount(fmt.Sprintf("amounts[%d]", i), value)
		if err != nil {
			return nil, err
		}
		amounts[i] = n
	}
	return amounts, nil
}

func parseOrderBy(in *ListEventsRequest) (bool, error) {
	orderBy, err := ordering.ParseOrderBy(in)
	if err != nil {
		return false, fmt.Errorf("invalid order_by: %w", err)
	}
	if err := orderBy.ValidateForPaths("seq"); err != nil {
		return false, fmt.Errorf("invalid order_by: %w", err)
	}
	if len(orderBy.Fields) == 0 {
		return false, nil
	}
	return orderBy.Fields[0].Desc, nil
}

func handleDomainError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, metadata.LocaleFromContext(ctx))
}
