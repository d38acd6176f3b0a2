package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/access"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/checkpoint"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/journal"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ownership"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/transfer"
)

const (
	testAdmin = "admin"
	testOwner = "owner"
)

type fixture struct {
	handler *Handler
	roles   *role.Memory
	owners  *ownership.Memory
	journal *journal.Memory
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	ctx := context.Background()
	roles := role.NewMemory("")
	owners := ownership.NewMemory("")
	if err := Bootstrap(ctx, roles, owners, testAdmin, testOwner); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	store := journal.NewMemory()
	cfg := Config{
		Roles:   roles,
		Owners:  owners,
		Journal: store,
		Now:     func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	handler, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return &fixture{handler: handler, roles: roles, owners: owners, journal: store}
}

func as(caller string) context.Context {
	return authn.WithAttestedCaller(context.Background(), caller)
}

func (f *fixture) grant(t *testing.T, account string, roles ...role.Name) {
	t.Helper()
	for _, r := range roles {
		if err := f.roles.Grant(context.Background(), testAdmin, account, r); err != nil {
			t.Fatalf("grant %s to %s: %v", r, account, err)
		}
	}
}

func requireCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", want)
	}
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("code = %s, want %s (err = %v)", got, want, err)
	}
}

func requireBalance(t *testing.T, h *Handler, account string, want int64) {
	t.Helper()
	if got := h.BalanceOf(account); got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("balance(%s) = %s, want %d", account, got, want)
	}
}

func TestBootstrapGrantsAdminRoles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for _, r := range []role.Name{role.Minter, role.Operator} {
		ok, _ := f.roles.HasRole(ctx, testAdmin, r)
		if !ok {
			t.Fatalf("admin lacks %s", r)
		}
	}
	minters, err := f.handler.ListRoleMembers(ctx, role.Minter)
	if err != nil {
		t.Fatalf("list minters: %v", err)
	}
	if len(minters) != 1 || minters[0] != testAdmin {
		t.Fatalf("minters = %v", minters)
	}
	if _, err := f.handler.ListRoleMembers(ctx, "wizard"); apperrors.CodeOf(err) != apperrors.CodeInvalidRole {
		t.Fatalf("err = %v, want invalid role", err)
	}
	if f.handler.IsPaused() || f.handler.TotalSupply().Sign() != 0 {
		t.Fatal("expected unpaused ledger with zero supply")
	}
	current, pending, err := f.handler.Owner(ctx)
	if err != nil || current != testOwner || pending != "" {
		t.Fatalf("owner = %q pending = %q err = %v", current, pending, err)
	}
}

func TestBootstrapDoesNotRegrantRevokedRoles(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if err := f.roles.Revoke(ctx, testAdmin, testAdmin, role.Minter); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.roles.Renounce(ctx, testAdmin, role.Operator); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if err := Bootstrap(ctx, f.roles, f.owners, testAdmin, testOwner); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	for _, r := range []role.Name{role.Minter, role.Operator} {
		if ok, _ := f.roles.HasRole(ctx, testAdmin, r); ok {
			t.Fatalf("admin holds %s after second bootstrap, want revoked", r)
		}
	}
	if admin, _ := f.roles.Admin(ctx); admin != testAdmin {
		t.Fatalf("admin = %q, want %q", admin, testAdmin)
	}
}

func TestMintProposeApproveScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "proposer", role.Transfer)
	f.grant(t, "X", role.Approver)
	f.grant(t, "Y", role.Approver)
	h := f.handler

	if _, err := h.Mint(as(testAdmin), testAdmin, "A", big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := h.TotalSupply(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply = %s, want 100", got)
	}
	requireBalance(t, h, "A", 100)

	proposed, err := h.ProposeTransfer(as("proposer"), "proposer", "A", "B", big.NewInt(40), 2)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if proposed.TransferID != 0 {
		t.Fatalf("id = %d, want 0", proposed.TransferID)
	}

	first, err := h.ApproveTransfer(as("X"), "X", 0)
	if err != nil {
		t.Fatalf("approve X: %v", err)
	}
	if len(first.Events) != 1 || first.Events[0].Type != transfer.EventTypeApproved {
		t.Fatalf("events = %+v", first.Events)
	}
	requireBalance(t, h, "A", 100)
	requireBalance(t, h, "B", 0)

	second, err := h.ApproveTransfer(as("Y"), "Y", 0)
	if err != nil {
		t.Fatalf("approve Y: %v", err)
	}
	if len(second.Events) != 2 || second.Events[1].Type != transfer.EventTypeFinalized {
		t.Fatalf("events = %+v", second.Events)
	}
	requireBalance(t, h, "A", 60)
	requireBalance(t, h, "B", 40)

	f.grant(t, "viewer", role.Viewer)
	view, err := h.ViewPendingTransfer(as("viewer"), "viewer", 0)
	if err != nil {
		t.Fatalf("view pending: %v", err)
	}
	if view.Pending == nil || view.Pending.Approvals != 2 || !view.Pending.Executed {
		t.Fatalf("pending = %+v", view.Pending)
	}

	events, err := f.journal.ListEvents(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if err := event.VerifyChain(events, ""); err != nil {
		t.Fatalf("verify chain: %v", err)
	}
}

func TestDuplicateApprovalAndIdempotentFinalize(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "p", role.Transfer)
	f.grant(t, "X", role.Approver)
	f.grant(t, "Y", role.Approver)
	f.grant(t, "Z", role.Approver)
	h := f.handler
	if _, err := h.Mint(as(testAdmin), testAdmin, "A", big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := h.ProposeTransfer(as("p"), "p", "A", "B", big.NewInt(10), 2); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := h.ApproveTransfer(as("X"), "X", 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err := h.ApproveTransfer(as("X"), "X", 0)
	requireCode(t, err, apperrors.CodeAlreadyApproved)

	view, _ := h.ViewPendingTransfer(as(testAdmin), testAdmin, 0)
	if view.Pending != nil {
		t.Fatal("admin without viewer role must not read pending transfers")
	}

	if _, err := h.ApproveTransfer(as("Y"), "Y", 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = h.ApproveTransfer(as("Z"), "Z", 0)
	requireCode(t, err, apperrors.CodeAlreadyExecuted)
	requireBalance(t, h, "A", 0)
	requireBalance(t, h, "B", 10)

	_, err = h.ApproveTransfer(as("Z"), "Z", 9)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestGuardOrder(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler
	f.grant(t, "pauser", role.Pauser)
	if _, err := h.Pause(as("pauser"), "pauser"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	// Not attested, no role, paused: authentication fails first.
	_, err := h.Mint(context.Background(), "nobody", "a", big.NewInt(1))
	requireCode(t, err, apperrors.CodeUnauthenticated)

	// Attested as someone else.
	_, err = h.Mint(as("mallory"), testAdmin, "a", big.NewInt(1))
	requireCode(t, err, apperrors.CodeUnauthenticated)

	// Authenticated, no role, paused: role fails before pause.
	_, err = h.Mint(as("nobody"), "nobody", "a", big.NewInt(1))
	requireCode(t, err, apperrors.CodeUnauthorized)

	// Authorized, paused, invalid input: pause fails before validation.
	_, err = h.Mint(as(testAdmin), testAdmin, "", big.NewInt(-1))
	requireCode(t, err, apperrors.CodeContractPaused)

	if _, err := h.Unpause(as("pauser"), "pauser"); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	_, err = h.Mint(as(testAdmin), testAdmin, "", big.NewInt(1))
	requireCode(t, err, apperrors.CodeInvalidAccount)
	_, err = h.Mint(as(testAdmin), testAdmin, "a", nil)
	requireCode(t, err, apperrors.CodeInvalidAmount)
}

func TestRoleEnforcement(t *testing.T) {
	type op struct {
		name  string
		role  role.Name
		setup func(t *testing.T, f *fixture)
		call  func(h *Handler, caller string) error
	}
	proposeOne := func(t *testing.T, f *fixture) {
		t.Helper()
		f.grant(t, "proposer", role.Transfer)
		if _, err := f.handler.ProposeTransfer(as("proposer"), "proposer", "a", "b", big.NewInt(1), 2); err != nil {
			t.Fatalf("propose: %v", err)
		}
	}
	ops := []op{
		{"mint", role.Minter, nil, func(h *Handler, c string) error {
			_, err := h.Mint(as(c), c, "a", big.NewInt(1))
			return err
		}},
		{"burn", role.Burner, nil, func(h *Handler, c string) error {
			_, err := h.Burn(as(c), c, "a", big.NewInt(1))
			return err
		}},
		{"pause", role.Pauser, nil, func(h *Handler, c string) error {
			_, err := h.Pause(as(c), c)
			return err
		}},
		{"view stats", role.Viewer, nil, func(h *Handler, c string) error {
			_, err := h.ViewSensitiveStats(as(c), c)
			return err
		}},
		{"execute transfer", role.Transfer, nil, func(h *Handler, c string) error {
			_, err := h.ExecuteTransfer(as(c), c, "a", "b", big.NewInt(1))
			return err
		}},
		{"batch mint", role.Operator, nil, func(h *Handler, c string) error {
			_, err := h.BatchMint(as(c), c, []string{"a"}, []*big.Int{big.NewInt(1)})
			return err
		}},
		{"propose", role.Transfer, nil, func(h *Handler, c string) error {
			_, err := h.ProposeTransfer(as(c), c, "a", "b", big.NewInt(1), 1)
			return err
		}},
		{"unpause", role.Pauser, nil, func(h *Handler, c string) error {
			_, err := h.Unpause(as(c), c)
			return err
		}},
		{"batch burn", role.Operator, nil, func(h *Handler, c string) error {
			_, err := h.BatchBurn(as(c), c, []string{"a"}, []*big.Int{big.NewInt(1)})
			return err
		}},
		{"view pending transfer", role.Viewer, proposeOne, func(h *Handler, c string) error {
			_, err := h.ViewPendingTransfer(as(c), c, 0)
			return err
		}},
		{"approve", role.Approver, proposeOne, func(h *Handler, c string) error {
			_, err := h.ApproveTransfer(as(c), c, 0)
			return err
		}},
	}
	for _, tt := range ops {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			requireCode(t, tt.call(f.handler, "caller"), apperrors.CodeUnauthorized)
			f.grant(t, "caller", tt.role)
			if err := tt.call(f.handler, "caller"); err != nil {
				t.Fatalf("after grant: %v", err)
			}
		})
	}
}

func TestApproveRequiresApproverRole(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "p", role.Transfer)
	if _, err := f.handler.ProposeTransfer(as("p"), "p", "a", "b", big.NewInt(1), 1); err != nil {
		t.Fatalf("propose: %v", err)
	}
	_, err := f.handler.ApproveTransfer(as("x"), "x", 0)
	requireCode(t, err, apperrors.CodeUnauthorized)
	f.grant(t, "x", role.Approver)
	if _, err := f.handler.ApproveTransfer(as("x"), "x", 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestPauseExclusion(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "ops", role.Burner, role.Transfer, role.Approver, role.Pauser, role.Viewer)
	h := f.handler
	if _, err := h.Mint(as(testAdmin), testAdmin, "a", big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := h.ProposeTransfer(as("ops"), "ops", "a", "b", big.NewInt(5), 1); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := h.EmergencyPause(as(testOwner), testOwner); err != nil {
		t.Fatalf("emergency pause: %v", err)
	}
	if !h.IsPaused() {
		t.Fatal("expected paused")
	}

	mutations := map[string]func() error{
		"mint": func() error { _, err := h.Mint(as(testAdmin), testAdmin, "a", big.NewInt(1)); return err },
		"burn": func() error { _, err := h.Burn(as("ops"), "ops", "a", big.NewInt(1)); return err },
		"execute": func() error {
			_, err := h.ExecuteTransfer(as("ops"), "ops", "a", "b", big.NewInt(1))
			return err
		},
		"batch mint": func() error {
			_, err := h.BatchMint(as(testAdmin), testAdmin, []string{"a"}, []*big.Int{big.NewInt(1)})
			return err
		},
		"batch burn": func() error {
			_, err := h.BatchBurn(as(testAdmin), testAdmin, []string{"a"}, []*big.Int{big.NewInt(1)})
			return err
		},
		"propose": func() error {
			_, err := h.ProposeTransfer(as("ops"), "ops", "a", "b", big.NewInt(1), 1)
			return err
		},
		"approve": func() error { _, err := h.ApproveTransfer(as("ops"), "ops", 0); return err },
	}
	for name, call := range mutations {
		err := call()
		if apperrors.CodeOf(err) != apperrors.CodeContractPaused {
			t.Fatalf("%s: err = %v, want %s", name, err, apperrors.CodeContractPaused)
		}
	}
	requireBalance(t, h, "a", 50)
	requireBalance(t, h, "b", 0)

	if _, err := h.ViewSensitiveStats(as("ops"), "ops"); err != nil {
		t.Fatalf("view stats while paused: %v", err)
	}
	if _, err := h.Pause(as("ops"), "ops"); err != nil {
		t.Fatalf("pause while paused: %v", err)
	}
	if _, err := h.Unpause(as("ops"), "ops"); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := h.ApproveTransfer(as("ops"), "ops", 0); err != nil {
		t.Fatalf("approve after unpause: %v", err)
	}
	requireBalance(t, h, "b", 5)
}

func TestConservation(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "ops", role.Burner, role.Transfer)
	h := f.handler
	accounts := []string{"a", "b", "c", "d"}
	for i := 0; i < 40; i++ {
		from := accounts[i%len(accounts)]
		to := accounts[(i*3+1)%len(accounts)]
		value := big.NewInt(int64(i*7%13 + 1))
		var err error
		switch i % 3 {
		case 0:
			_, err = h.Mint(as(testAdmin), testAdmin, from, value)
		case 1:
			_, err = h.Burn(as("ops"), "ops", from, value)
		case 2:
			_, err = h.ExecuteTransfer(as("ops"), "ops", from, to, value)
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		sum := new(big.Int)
		for _, account := range accounts {
			sum.Add(sum, h.BalanceOf(account))
		}
		if sum.Cmp(h.TotalSupply()) != 0 {
			t.Fatalf("step %d: sum = %s, supply = %s", i, sum, h.TotalSupply())
		}
	}
}

func TestBatchLengthMismatch(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler
	_, err := h.BatchMint(as(testAdmin), testAdmin, []string{"A", "B"}, []*big.Int{big.NewInt(10)})
	requireCode(t, err, apperrors.CodeLengthMismatch)
	requireBalance(t, h, "A", 0)
	requireBalance(t, h, "B", 0)
	if seq, _ := h.Head(); seq != 0 {
		t.Fatalf("head = %d, want 0", seq)
	}

	result, err := h.BatchMint(as(testAdmin), testAdmin, []string{"A", "B"}, []*big.Int{big.NewInt(10), big.NewInt(20)})
	if err != nil {
		t.Fatalf("batch mint: %v", err)
	}
	if len(result.Events) != 3 || result.Events[2].Type != ledger.EventTypeBatchOperation {
		t.Fatalf("events = %+v", result.Events)
	}
	requireBalance(t, h, "B", 20)
}

func TestStrictBalances(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.Rules = ledger.Rules{StrictBalances: true} })
	f.grant(t, "ops", role.Burner)
	_, err := f.handler.Burn(as("ops"), "ops", "a", big.NewInt(1))
	requireCode(t, err, apperrors.CodeInsufficientBalance)

	permissive := newFixture(t, nil)
	permissive.grant(t, "ops", role.Burner)
	if _, err := permissive.handler.Burn(as("ops"), "ops", "a", big.NewInt(1)); err != nil {
		t.Fatalf("permissive burn: %v", err)
	}
	requireBalance(t, permissive.handler, "a", -1)
}

func TestViewSensitiveStats(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "v", role.Viewer)
	f.grant(t, "p", role.Transfer)
	h := f.handler
	if _, err := h.Mint(as(testAdmin), testAdmin, "a", big.NewInt(12)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := h.ProposeTransfer(as("p"), "p", "a", "b", big.NewInt(1), 1); err != nil {
		t.Fatalf("propose: %v", err)
	}
	result, err := h.ViewSensitiveStats(as("v"), "v")
	if err != nil {
		t.Fatalf("view stats: %v", err)
	}
	if result.Stats == nil || result.Stats.TotalSupply.Cmp(big.NewInt(12)) != 0 || result.Stats.PendingCount != 1 || result.Stats.Paused {
		t.Fatalf("stats = %+v", result.Stats)
	}
	if len(result.Events) != 1 || result.Events[0].Type != ledger.EventTypeSensitiveDataAccessed {
		t.Fatalf("events = %+v", result.Events)
	}
	_, err = h.ViewPendingTransfer(as("v"), "v", 5)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestOwnerAndAdminPing(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler
	result, err := h.OwnerPing(as(testOwner), testOwner)
	if err != nil || result.Reply != access.OwnerOK {
		t.Fatalf("owner ping = %+v, %v", result, err)
	}
	if len(result.Events) != 0 {
		t.Fatalf("events = %d, want 0", len(result.Events))
	}
	_, err = h.OwnerPing(as(testAdmin), testAdmin)
	requireCode(t, err, apperrors.CodeUnauthorized)

	result, err = h.AdminPing(as(testAdmin), testAdmin)
	if err != nil || result.Reply != access.AdminOK {
		t.Fatalf("admin ping = %+v, %v", result, err)
	}
	_, err = h.AdminPing(as(testOwner), testOwner)
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = h.EmergencyPause(as(testAdmin), testAdmin)
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestRestoreFromSnapshotAndJournal(t *testing.T) {
	snapshots := checkpoint.NewMemory()
	f := newFixture(t, func(cfg *Config) {
		cfg.Snapshots = snapshots
		cfg.SnapshotEvery = 2
	})
	f.grant(t, "p", role.Transfer)
	f.grant(t, "x", role.Approver)
	h := f.handler
	for i := 0; i < 3; i++ {
		if _, err := h.Mint(as(testAdmin), testAdmin, "a", big.NewInt(10)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	if _, err := h.ProposeTransfer(as("p"), "p", "a", "b", big.NewInt(4), 1); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if _, err := h.ApproveTransfer(as("x"), "x", 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	snapshot, err := snapshots.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if snapshot.Seq == 0 {
		t.Fatal("expected a snapshot")
	}

	restored, err := New(context.Background(), Config{
		Roles:     f.roles,
		Owners:    f.owners,
		Journal:   f.journal,
		Snapshots: snapshots,
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	requireBalance(t, restored, "a", 26)
	requireBalance(t, restored, "b", 4)
	wantSeq, wantHash := h.Head()
	if seq, hash := restored.Head(); seq != wantSeq || hash != wantHash {
		t.Fatalf("head = %d %s, want %d %s", seq, hash, wantSeq, wantHash)
	}
	result, err := restored.ProposeTransfer(as("p"), "p", "a", "b", big.NewInt(1), 1)
	if err != nil {
		t.Fatalf("propose after restore: %v", err)
	}
	if result.TransferID != 1 {
		t.Fatalf("id = %d, want 1", result.TransferID)
	}
}

func TestSinkReceivesCommittedEvents(t *testing.T) {
	var mu sync.Mutex
	var seen []event.Event
	sink := SinkFunc(func(_ context.Context, events []event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, events...)
		return errors.New("sink offline")
	})
	f := newFixture(t, func(cfg *Config) { cfg.Sink = MultiSink{sink, LogSink{}} })
	if _, err := f.handler.Mint(as(testAdmin), testAdmin, "a", big.NewInt(1)); err != nil {
		t.Fatalf("mint must not fail on sink error: %v", err)
	}
	if _, err := f.handler.Mint(as("nobody"), "nobody", "a", big.NewInt(1)); err == nil {
		t.Fatal("expected rejection")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0].Seq != 1 || seen[0].Type != ledger.EventTypeMinted {
		t.Fatalf("seen = %+v", seen)
	}
}

func TestExecuteRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := newFixture(t, func(cfg *Config) { cfg.Tracer = provider.Tracer("test") })
	if _, err := f.handler.Mint(as(testAdmin), testAdmin, "a", big.NewInt(1)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "engine.Execute" {
		t.Fatalf("spans = %d", len(spans))
	}
}

func TestConcurrentProposalsGetDistinctIDs(t *testing.T) {
	f := newFixture(t, nil)
	f.grant(t, "p", role.Transfer)
	const n = 20
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.handler.ProposeTransfer(as("p"), "p", "a", "b", big.NewInt(1), 1)
			if err != nil {
				t.Errorf("propose: %v", err)
				return
			}
			ids <- result.TransferID
		}()
	}
	wg.Wait()
	close(ids)
	seen := make(map[uint64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("ids = %d, want %d", len(seen), n)
	}
}

func TestAdministrationRequiresAuthentication(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler
	requireCode(t, h.GrantRole(context.Background(), testAdmin, "x", role.Viewer), apperrors.CodeUnauthenticated)
	requireCode(t, h.GrantRole(as("x"), "x", "x", role.Viewer), apperrors.CodeUnauthorized)
	requireCode(t, h.GrantRole(as(testAdmin), testAdmin, "x", "wizard"), apperrors.CodeInvalidRole)
	if err := h.GrantRole(as(testAdmin), testAdmin, "x", role.Viewer); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := h.RenounceRole(as("x"), "x", role.Viewer); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if err := h.TransferOwnership(as(testOwner), testOwner, "next"); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if err := h.AcceptOwnership(as("next"), "next"); err != nil {
		t.Fatalf("accept ownership: %v", err)
	}
	if result, err := h.OwnerPing(as("next"), "next"); err != nil || result.Reply != access.OwnerOK {
		t.Fatalf("owner ping = %+v, %v", result, err)
	}
}
