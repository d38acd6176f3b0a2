package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/filter"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/aggregate"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/authn"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/checkpoint"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/engine"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/journal"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ownership"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/role"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/storage"
)

var (
	_ engine.Journal        = (*Store)(nil)
	_ checkpoint.Store      = (*Store)(nil)
	_ role.Authority        = (*Store)(nil)
	_ role.Initializer      = (*Store)(nil)
	_ ownership.Authority   = (*Store)(nil)
	_ ownership.Initializer = (*Store)(nil)
	_ storage.EventPager    = (*Store)(nil)
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func testEvent(evtType event.Type, entityID string) event.Event {
	return event.Event{
		Type:        evtType,
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ActorID:     "admin",
		EntityType:  "account",
		EntityID:    entityID,
		PayloadJSON: []byte(`{"amount":"1"}`),
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCloseNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestAppendChainsBatches(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, []event.Event{testEvent("ledger.minted", "a"), testEvent("ledger.minted", "b")})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first[0].Seq != 1 || first[1].Seq != 2 {
		t.Fatalf("seqs = %d, %d; want 1, 2", first[0].Seq, first[1].Seq)
	}
	if first[0].PrevHash != "" || first[1].PrevHash != first[0].Hash {
		t.Fatal("first batch is not chained")
	}
	second, err := store.Append(ctx, []event.Event{testEvent("ledger.burned", "a")})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if second[0].Seq != 3 || second[0].PrevHash != first[1].Hash {
		t.Fatalf("second batch = seq %d prev %q", second[0].Seq, second[0].PrevHash)
	}

	all, err := store.ListEvents(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	if err := event.VerifyChain(all, ""); err != nil {
		t.Fatalf("verify chain: %v", err)
	}
	if string(all[0].PayloadJSON) != `{"amount":"1"}` {
		t.Fatalf("payload = %s", all[0].PayloadJSON)
	}

	seq, hash, err := store.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if seq != 3 || hash != second[0].Hash {
		t.Fatalf("head = %d %q, want 3 %q", seq, hash, second[0].Hash)
	}

	tail, err := store.ListEvents(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 || tail[0].Seq != 2 {
		t.Fatalf("tail = %+v, want seq 2", tail)
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	store, _ := openTestStore(t)
	if _, err := store.Append(context.Background(), nil); !errors.Is(err, journal.ErrEmptyBatch) {
		t.Fatalf("err = %v, want %v", err, journal.ErrEmptyBatch)
	}
}

func TestHeadEmpty(t *testing.T) {
	store, _ := openTestStore(t)
	seq, hash, err := store.Head(context.Background())
	if err != nil || seq != 0 || hash != "" {
		t.Fatalf("head = %d %q %v, want zero values", seq, hash, err)
	}
}

func TestListEventsPage(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	var batch []event.Event
	for _, id := range []string{"a", "b", "a", "c", "a"} {
		batch = append(batch, testEvent("ledger.minted", id))
	}
	if _, err := store.Append(ctx, batch); err != nil {
		t.Fatalf("append: %v", err)
	}

	page, err := store.ListEventsPage(ctx, storage.ListEventsPageRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page.Events) != 2 || !page.HasMore || page.LastSeq != 2 {
		t.Fatalf("page = %d events more=%v last=%d", len(page.Events), page.HasMore, page.LastSeq)
	}
	next, err := store.ListEventsPage(ctx, storage.ListEventsPageRequest{PageSize: 10, Cursor: page.LastSeq})
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(next.Events) != 3 || next.HasMore {
		t.Fatalf("next = %d events more=%v", len(next.Events), next.HasMore)
	}

	cond, err := filter.ParseEventFilter(`entity_id = "a"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	filtered, err := store.ListEventsPage(ctx, storage.ListEventsPageRequest{PageSize: 10, Filter: cond, Descending: true})
	if err != nil {
		t.Fatalf("filtered page: %v", err)
	}
	if len(filtered.Events) != 3 {
		t.Fatalf("filtered = %d events, want 3", len(filtered.Events))
	}
	if filtered.Events[0].Seq != 5 || filtered.Events[2].Seq != 1 {
		t.Fatalf("descending order = %d..%d", filtered.Events[0].Seq, filtered.Events[2].Seq)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := store.LoadSnapshot(ctx); !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, checkpoint.ErrNotFound)
	}

	state := aggregate.NewState()
	state.Ledger.Credit("alice", new(big.Int).Lsh(big.NewInt(1), 100))
	state.Ledger.SetPaused(true)
	state.Transfers.Counter = 3
	updated := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := store.SaveSnapshot(ctx, checkpoint.Snapshot{Seq: 7, Hash: "h7", State: state, UpdatedAt: updated}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveSnapshot(ctx, checkpoint.Snapshot{Seq: 3, Hash: "h3", State: aggregate.NewState()}); err != nil {
		t.Fatalf("save older: %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Seq != 7 || got.Hash != "h7" || !got.UpdatedAt.Equal(updated) {
		t.Fatalf("snapshot = seq %d hash %q at %v", got.Seq, got.Hash, got.UpdatedAt)
	}
	if got.State.Ledger.BalanceOf("alice").Cmp(state.Ledger.BalanceOf("alice")) != 0 {
		t.Fatalf("balance = %s", got.State.Ledger.BalanceOf("alice"))
	}
	if !got.State.Ledger.Paused || got.State.Transfers.Counter != 3 {
		t.Fatalf("state = %+v", got.State)
	}
	wantJSON, _ := json.Marshal(state)
	gotJSON, _ := json.Marshal(got.State)
	if string(wantJSON) != string(gotJSON) {
		t.Fatalf("state json = %s, want %s", gotJSON, wantJSON)
	}
}

func TestRoles(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	admin, created, err := store.InitAdmin(ctx, "admin")
	if err != nil || admin != "admin" || !created {
		t.Fatalf("init admin = %q, %v, %v", admin, created, err)
	}
	if admin, created, _ := store.InitAdmin(ctx, "other"); admin != "admin" || created {
		t.Fatalf("InitAdmin = %q, %v, want admin, false", admin, created)
	}

	if err := store.Grant(ctx, "mallory", "mallory", role.Minter); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("grant by non-admin err = %v", err)
	}
	if err := store.Grant(ctx, "admin", " ", role.Minter); !apperrors.IsCode(err, apperrors.CodeInvalidAccount) {
		t.Fatalf("grant empty err = %v", err)
	}
	for _, account := range []string{"carol", "alice", "bob", "alice"} {
		if err := store.Grant(ctx, "admin", account, role.Minter); err != nil {
			t.Fatalf("grant %s: %v", account, err)
		}
	}
	members, err := role.Members(ctx, store, role.Minter)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 3 || members[0] != "carol" || members[1] != "alice" || members[2] != "bob" {
		t.Fatalf("members = %v, want [carol alice bob]", members)
	}
	if ok, _ := store.HasRole(ctx, "alice", role.Minter); !ok {
		t.Fatal("alice should hold minter")
	}
	if ok, _ := store.HasRole(ctx, "alice", role.Burner); ok {
		t.Fatal("alice should not hold burner")
	}

	if err := store.Revoke(ctx, "bob", "alice", role.Minter); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("revoke by non-admin err = %v", err)
	}
	if err := store.Revoke(ctx, "admin", "alice", role.Minter); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.Renounce(ctx, "carol", role.Minter); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if err := store.Renounce(ctx, "carol", role.Minter); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("second renounce err = %v", err)
	}
	if n, _ := store.MemberCount(ctx, role.Minter); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if _, err := store.MemberAt(ctx, role.Minter, 1); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("MemberAt out of range err = %v", err)
	}
}

func TestOwnership(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()

	if owner, err := store.InitOwner(ctx, "owner"); err != nil || owner != "owner" {
		t.Fatalf("init owner = %q, %v", owner, err)
	}
	if err := store.AcceptOwnership(ctx, "bob"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("accept without pending err = %v", err)
	}
	if err := store.TransferOwnership(ctx, "bob", "bob"); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("transfer by non-owner err = %v", err)
	}
	if err := store.TransferOwnership(ctx, "owner", ""); !apperrors.IsCode(err, apperrors.CodeInvalidAccount) {
		t.Fatalf("transfer to empty err = %v", err)
	}
	if err := store.TransferOwnership(ctx, "owner", "bob"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if pending, _ := store.PendingOwner(ctx); pending != "bob" {
		t.Fatalf("pending = %q, want bob", pending)
	}
	if err := store.AcceptOwnership(ctx, "carol"); !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("accept by wrong caller err = %v", err)
	}
	if err := store.AcceptOwnership(ctx, "bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if owner, _ := store.CurrentOwner(ctx); owner != "bob" {
		t.Fatalf("owner = %q, want bob", owner)
	}
	if err := store.RenounceOwnership(ctx, "bob"); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	owner, err := reopened.InitOwner(ctx, "owner")
	if err != nil {
		t.Fatalf("init owner after renounce: %v", err)
	}
	if owner != "" {
		t.Fatalf("owner = %q, want renounced", owner)
	}
}

func TestEngineRestoresFromStore(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	if err := engine.Bootstrap(ctx, store, store, "admin", "owner"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	cfg := engine.Config{Roles: store, Owners: store, Journal: store, Snapshots: store, SnapshotEvery: 2}
	h, err := engine.New(ctx, cfg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	admin := authn.WithAttestedCaller(ctx, "admin")
	for i := 0; i < 3; i++ {
		if _, err := h.Mint(admin, "admin", "alice", big.NewInt(5)); err != nil {
			t.Fatalf("mint: %v", err)
		}
	}
	wantSeq, wantHash := h.Head()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	restored, err := engine.New(ctx, engine.Config{Roles: reopened, Owners: reopened, Journal: reopened, Snapshots: reopened})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := restored.BalanceOf("alice"); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("balance = %s, want 15", got)
	}
	if seq, hash := restored.Head(); seq != wantSeq || hash != wantHash {
		t.Fatalf("head = %d %q, want %d %q", seq, hash, wantSeq, wantHash)
	}
}

func TestBootstrapKeepsRevokedRolesAcrossRestart(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	if err := engine.Bootstrap(ctx, store, store, "admin", "owner"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if ok, _ := store.HasRole(ctx, "admin", role.Minter); !ok {
		t.Fatal("expected admin to hold minter after first bootstrap")
	}
	if err := store.Revoke(ctx, "admin", "admin", role.Minter); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if err := engine.Bootstrap(ctx, reopened, reopened, "admin", "owner"); err != nil {
		t.Fatalf("bootstrap after restart: %v", err)
	}
	if ok, err := reopened.HasRole(ctx, "admin", role.Minter); err != nil || ok {
		t.Fatalf("HasRole(admin, minter) = %v, %v, want false", ok, err)
	}
	if ok, _ := reopened.HasRole(ctx, "admin", role.Operator); !ok {
		t.Fatal("expected admin to keep operator after restart")
	}
}
