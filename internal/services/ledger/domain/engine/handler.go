package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/platform/requestctx"
	"github.com/louisbranch/rbac-ledger/internal/platform/telemetry/metrics"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/access"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/aggregate"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/checkpoint"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/guard"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ownership"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/replay"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

// DefaultSnapshotEvery is the journal distance between state snapshots.
const DefaultSnapshotEvery = 100

const tracerName = "github.com/louisbranch/rbac-ledger/engine"

var (
	// ErrJournalRequired indicates a missing journal.
	ErrJournalRequired = errors.New("journal is required")
	// ErrRoleAuthorityRequired indicates a missing role authority.
	ErrRoleAuthorityRequired = errors.New("role authority is required")
	// ErrOwnershipAuthorityRequired indicates a missing ownership authority.
	ErrOwnershipAuthorityRequired = errors.New("ownership authority is required")
)

// Journal appends committed events and lists them for replay.
type Journal interface {
	Append(ctx context.Context, events []event.Event) ([]event.Event, error)
	ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error)
	Head(ctx context.Context) (uint64, string, error)
}

// Config wires the engine's collaborators.
type Config struct {
	Roles  role.Authority
	Owners ownership.Authority
	// Authn defaults to authn.ContextAuthenticator.
	Authn   authn.Authenticator
	Journal Journal
	// Snapshots is optional; without it startup replays the whole journal.
	Snapshots     checkpoint.Store
	SnapshotEvery int
	Sink          EventSink
	Rules         ledger.Rules
	Logger        *zap.Logger
	Tracer        trace.Tracer
	Now           func() time.Time
}

// Result captures the outcome of a committed command.
type Result struct {
	// Events are the journaled events in commit order.
	Events []event.Event
	// Reply is set by capability pings.
	Reply string
	// TransferID is set by ProposeTransfer.
	TransferID uint64
	// Stats is set by ViewSensitiveStats.
	Stats *Stats
	// Pending is set by ViewPendingTransfer.
	Pending *transfer.Pending
}

// Handler dispatches commands against the single engine state.
type Handler struct {
	mu sync.Mutex

	registries    Registries
	folder        aggregate.Folder
	guard         guard.Guard
	roles         role.Authority
	owners        ownership.Authority
	journal       Journal
	snapshots     checkpoint.Store
	snapshotEvery int
	sink          EventSink
	rules         ledger.Rules
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time

	state       aggregate.State
	lastSeq     uint64
	lastHash    string
	snapshotSeq uint64
}

// New builds a handler and restores state from the latest snapshot plus the
// journal tail.
func New(ctx context.Context, cfg Config) (*Handler, error) {
	if cfg.Journal == nil {
		return nil, ErrJournalRequired
	}
	if cfg.Roles == nil {
		return nil, ErrRoleAuthorityRequired
	}
	if cfg.Owners == nil {
		return nil, ErrOwnershipAuthorityRequired
	}
	registries, err := NewRegistries()
	if err != nil {
		return nil, err
	}
	authenticator := cfg.Authn
	if authenticator == nil {
		authenticator = authn.ContextAuthenticator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	snapshotEvery := cfg.SnapshotEvery
	if snapshotEvery <= 0 {
		snapshotEvery = DefaultSnapshotEvery
	}

	h := &Handler{
		registries:    registries,
		folder:        aggregate.Folder{Events: registries.Events},
		guard:         guard.Guard{Authn: authenticator, Roles: cfg.Roles, Owners: cfg.Owners},
		roles:         cfg.Roles,
		owners:        cfg.Owners,
		journal:       cfg.Journal,
		snapshots:     cfg.Snapshots,
		snapshotEvery: snapshotEvery,
		sink:          cfg.Sink,
		rules:         cfg.Rules,
		logger:        logger,
		tracer:        tracer,
		now:           now,
		state:         aggregate.NewState(),
	}
	if err := h.restore(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Handler) restore(ctx context.Context) error {
	from := checkpoint.Snapshot{State: aggregate.NewState()}
	if h.snapshots != nil {
		snapshot, err := h.snapshots.LoadSnapshot(ctx)
		switch {
		case err == nil:
			from = snapshot
		case errors.Is(err, checkpoint.ErrNotFound):
		default:
			return fmt.Errorf("load snapshot: %w", err)
		}
	}
	result, err := replay.Replay(ctx, h.journal, h.folder, from, replay.Options{})
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	h.state = result.State
	h.lastSeq = result.LastSeq
	h.lastHash = result.LastHash
	h.snapshotSeq = from.Seq
	metrics.SetPendingTransfers(countPending(h.state.Transfers))
	h.logger.Info("engine state restored",
		zap.Uint64("snapshot_seq", from.Seq),
		zap.Int("replayed", result.Applied),
		zap.Uint64("last_seq", result.LastSeq),
	)
	return nil
}

// Execute runs cmd through validation, guards, decision and commit. A
// declined command returns an *apperrors.Error and changes nothing.
func (h *Handler) Execute(ctx context.Context, cmd command.Command) (Result, error) {
	ctx, span := h.tracer.Start(ctx, "engine.Execute", trace.WithAttributes(
		attribute.String("command.type", string(cmd.Type)),
	))
	defer span.End()

	if cmd.RequestID == "" {
		cmd.RequestID = requestctx.RequestIDFromContext(ctx)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := h.execute(ctx, cmd)
	cmdType := strings.TrimSpace(string(cmd.Type))
	switch code := apperrors.CodeOf(err); {
	case err == nil:
		types := make([]string, 0, len(result.Events))
		for _, evt := range result.Events {
			types = append(types, string(evt.Type))
		}
		metrics.CommandCommitted(cmdType, types)
		span.SetAttributes(attribute.Int("command.events", len(result.Events)))
	case code != apperrors.CodeUnknown:
		metrics.CommandRejected(cmdType, string(code))
		span.SetAttributes(attribute.String("command.rejection", string(code)))
		h.logger.Debug("command rejected",
			zap.String("command", cmdType),
			zap.String("caller", cmd.Caller),
			zap.String("code", string(code)),
			zap.Error(err),
		)
	default:
		metrics.CommandFailed(cmdType)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("command failed",
			zap.String("command", cmdType),
			zap.String("caller", cmd.Caller),
			zap.Error(err),
		)
	}
	return result, err
}

func (h *Handler) execute(ctx context.Context, cmd command.Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	cmd, def, err := h.registries.Commands.ValidateForDecision(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("validate command: %w", err)
	}
	if err := h.guard.Check(ctx, def.Policy, cmd.Caller, h.state.Ledger.Paused); err != nil {
		return Result{}, err
	}

	decision, result := h.decide(cmd)
	if decision.Rejected() {
		return Result{}, rejectionError(decision.Rejections[0])
	}
	if len(decision.Events) == 0 {
		return result, nil
	}

	validated := make([]event.Event, 0, len(decision.Events))
	for _, evt := range decision.Events {
		vetted, err := h.registries.Events.ValidateForAppend(evt)
		if err != nil {
			return Result{}, fmt.Errorf("validate event %s: %w", evt.Type, err)
		}
		validated = append(validated, vetted)
	}
	next, err := h.folder.FoldAll(h.state, validated)
	if err != nil {
		return Result{}, err
	}
	stored, err := h.journal.Append(ctx, validated)
	if err != nil {
		return Result{}, fmt.Errorf("append events: %w", err)
	}
	h.state = next
	last := stored[len(stored)-1]
	h.lastSeq, h.lastHash = last.Seq, last.Hash
	result.Events = stored

	metrics.SetPendingTransfers(countPending(h.state.Transfers))
	h.maybeSnapshot(ctx)
	h.publish(ctx, stored)
	h.logger.Info("command committed",
		zap.String("command", string(cmd.Type)),
		zap.String("caller", cmd.Caller),
		zap.Int("events", len(stored)),
		zap.Uint64("seq", h.lastSeq),
	)
	return result, nil
}

// decide routes cmd to the decider owning its type and fills the read-side
// parts of the result from the pre-commit state.
func (h *Handler) decide(cmd command.Command) (command.Decision, Result) {
	switch {
	case strings.HasPrefix(string(cmd.Type), "ledger."):
		decision := ledger.Decide(h.state.Ledger, cmd, h.rules, h.now)
		var result Result
		if cmd.Type == ledger.CommandTypeViewStats {
			stats := h.statsLocked()
			result.Stats = &stats
		}
		return decision, result
	case strings.HasPrefix(string(cmd.Type), "transfer."):
		decision := transfer.Decide(h.state.Transfers, h.state.Ledger, cmd, h.rules, h.now)
		var result Result
		switch cmd.Type {
		case transfer.CommandTypePropose:
			result.TransferID = h.state.Transfers.Counter
		case transfer.CommandTypeViewPending:
			var payload transfer.ViewPendingPayload
			if err := json.Unmarshal(cmd.PayloadJSON, &payload); err == nil {
				if pending, ok := h.state.Transfers.Get(payload.ID); ok {
					result.Pending = &pending
				}
			}
		}
		return decision, result
	case strings.HasPrefix(string(cmd.Type), "access."):
		decision, reply := access.Decide(cmd)
		return decision, Result{Reply: reply}
	}
	return command.Reject(command.Rejection{
		Code:    string(apperrors.CodeUnknown),
		Message: "no decider for command type " + string(cmd.Type),
	}), Result{}
}

func (h *Handler) maybeSnapshot(ctx context.Context) {
	if h.snapshots == nil || h.lastSeq-h.snapshotSeq < uint64(h.snapshotEvery) {
		return
	}
	if err := h.snapshots.SaveSnapshot(ctx, checkpoint.Snapshot{
		Seq:       h.lastSeq,
		Hash:      h.lastHash,
		State:     h.state,
		UpdatedAt: h.now().UTC(),
	}); err != nil {
		h.logger.Warn("save snapshot", zap.Uint64("seq", h.lastSeq), zap.Error(err))
		return
	}
	h.snapshotSeq = h.lastSeq
}

func (h *Handler) publish(ctx context.Context, events []event.Event) {
	if h.sink == nil {
		return
	}
	if err := h.sink.Emit(ctx, events); err != nil {
		h.logger.Warn("emit events", zap.Uint64("seq", h.lastSeq), zap.Error(err))
	}
}

func rejectionError(rejection command.Rejection) error {
	return apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, rejection.Metadata)
}

func countPending(state transfer.State) int {
	n := 0
	for _, p := range state.Pending {
		if !p.Executed {
			n++
		}
	}
	return n
}
