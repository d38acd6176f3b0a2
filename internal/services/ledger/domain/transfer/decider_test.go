package transfer

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/command"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
)

var fixedNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

type world struct {
	transfers State
	balances  ledger.State
	rules     ledger.Rules
}

func newWorld() *world {
	return &world{transfers: NewState(), balances: ledger.NewState()}
}

func (w *world) run(t *testing.T, cmdType command.Type, caller string, payload any) command.Decision {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	cmd := command.Command{Type: cmdType, Caller: caller, PayloadJSON: raw}
	decision := Decide(w.transfers, w.balances, cmd, w.rules, fixedNow)
	if decision.Rejected() {
		return decision
	}
	transfers, balances := w.transfers.Clone(), w.balances.Clone()
	for _, evt := range decision.Events {
		var err error
		if transfers, balances, err = Fold(transfers, balances, evt); err != nil {
			t.Fatalf("fold %s: %v", evt.Type, err)
		}
	}
	w.transfers, w.balances = transfers, balances
	return decision
}

func requireCode(t *testing.T, decision command.Decision, want apperrors.Code) {
	t.Helper()
	if !decision.Rejected() {
		t.Fatalf("expected %s rejection, got events %+v", want, decision.Events)
	}
	if got := decision.Rejections[0].Code; got != string(want) {
		t.Fatalf("code = %s, want %s", got, want)
	}
}

func requireBalance(t *testing.T, state ledger.State, account string, want int64) {
	t.Helper()
	if got := state.BalanceOf(account); got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("balance(%s) = %s, want %d", account, got, want)
	}
}

func TestProposeAssignsSequentialIDs(t *testing.T) {
	w := newWorld()
	for want := uint64(0); want < 3; want++ {
		decision := w.run(t, CommandTypePropose, "proposer", ProposePayload{From: "a", To: "b", Amount: "1", RequiredApprovals: 1})
		if decision.Rejected() {
			t.Fatalf("rejected: %+v", decision.Rejections)
		}
		if got := decision.Events[0].EntityID; got != strconv.FormatUint(want, 10) {
			t.Fatalf("entity id = %s, want %d", got, want)
		}
	}
	if w.transfers.Counter != 3 {
		t.Fatalf("counter = %d, want 3", w.transfers.Counter)
	}
	pending, ok := w.transfers.Get(1)
	if !ok || pending.Approvals != 0 || pending.Executed || pending.Proposer != "proposer" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestProposeStopsAtLastTransferID(t *testing.T) {
	w := newWorld()
	w.transfers.Counter = math.MaxUint64 - 1
	payload := ProposePayload{From: "a", To: "b", Amount: "1", RequiredApprovals: 1}
	decision := w.run(t, CommandTypePropose, "p", payload)
	if decision.Rejected() {
		t.Fatalf("rejected: %+v", decision.Rejections)
	}
	if w.transfers.Counter != math.MaxUint64 {
		t.Fatalf("counter = %d, want %d", w.transfers.Counter, uint64(math.MaxUint64))
	}
	requireCode(t, w.run(t, CommandTypePropose, "p", payload), apperrors.CodeTransferIDExhausted)
	if w.transfers.Counter != math.MaxUint64 {
		t.Fatalf("counter = %d after rejection, want %d", w.transfers.Counter, uint64(math.MaxUint64))
	}
	if _, ok := w.transfers.Get(0); ok {
		t.Fatal("transfer id 0 was reused")
	}
}

func TestProposeRejectsInvalidInput(t *testing.T) {
	w := newWorld()
	requireCode(t, w.run(t, CommandTypePropose, "p", ProposePayload{From: "a", To: "b", Amount: "1"}), apperrors.CodeInvalidThreshold)
	requireCode(t, w.run(t, CommandTypePropose, "p", ProposePayload{From: "a", To: "b", Amount: "-1", RequiredApprovals: 1}), apperrors.CodeInvalidAmount)
	requireCode(t, w.run(t, CommandTypePropose, "p", ProposePayload{From: "a", Amount: "1", RequiredApprovals: 1}), apperrors.CodeInvalidAccount)
	if w.transfers.Counter != 0 {
		t.Fatalf("counter = %d, want 0", w.transfers.Counter)
	}
}

func TestApproveScenario(t *testing.T) {
	w := newWorld()
	w.balances.Credit("A", big.NewInt(100))

	w.run(t, CommandTypePropose, "proposer", ProposePayload{From: "A", To: "B", Amount: "40", RequiredApprovals: 2})

	first := w.run(t, CommandTypeApprove, "X", ApprovePayload{ID: 0})
	if first.Rejected() || len(first.Events) != 1 {
		t.Fatalf("first approval = %+v", first)
	}
	pending, _ := w.transfers.Get(0)
	if pending.Approvals != 1 || pending.Executed {
		t.Fatalf("pending = %+v", pending)
	}
	requireBalance(t, w.balances, "A", 100)
	requireBalance(t, w.balances, "B", 0)

	second := w.run(t, CommandTypeApprove, "Y", ApprovePayload{ID: 0})
	if second.Rejected() || len(second.Events) != 2 {
		t.Fatalf("second approval = %+v", second)
	}
	if second.Events[1].Type != EventTypeFinalized {
		t.Fatalf("event = %s, want %s", second.Events[1].Type, EventTypeFinalized)
	}
	var approved ApprovedPayload
	_ = json.Unmarshal(second.Events[0].PayloadJSON, &approved)
	if approved.CurrentApprovals != 2 || approved.RequiredApprovals != 2 || approved.Approver != "Y" {
		t.Fatalf("approved = %+v", approved)
	}
	pending, _ = w.transfers.Get(0)
	if pending.Approvals != 2 || !pending.Executed {
		t.Fatalf("pending = %+v", pending)
	}
	requireBalance(t, w.balances, "A", 60)
	requireBalance(t, w.balances, "B", 40)
	if got := w.balances.Supply(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply = %s, want 100", got)
	}
}

func TestApproveThresholdOfThree(t *testing.T) {
	w := newWorld()
	w.balances.Credit("A", big.NewInt(9))
	w.run(t, CommandTypePropose, "p", ProposePayload{From: "A", To: "B", Amount: "9", RequiredApprovals: 3})
	for i, approver := range []string{"x", "y"} {
		if d := w.run(t, CommandTypeApprove, approver, ApprovePayload{ID: 0}); d.Rejected() {
			t.Fatalf("approval %d rejected: %+v", i, d.Rejections)
		}
		requireBalance(t, w.balances, "B", 0)
	}
	w.run(t, CommandTypeApprove, "z", ApprovePayload{ID: 0})
	requireBalance(t, w.balances, "A", 0)
	requireBalance(t, w.balances, "B", 9)
}

func TestApproveRejections(t *testing.T) {
	w := newWorld()
	requireCode(t, w.run(t, CommandTypeApprove, "x", ApprovePayload{ID: 7}), apperrors.CodeNotFound)

	w.run(t, CommandTypePropose, "p", ProposePayload{From: "A", To: "B", Amount: "1", RequiredApprovals: 2})
	w.run(t, CommandTypeApprove, "x", ApprovePayload{ID: 0})
	duplicate := w.run(t, CommandTypeApprove, "x", ApprovePayload{ID: 0})
	requireCode(t, duplicate, apperrors.CodeAlreadyApproved)
	if got := duplicate.Rejections[0].Metadata["TransferID"]; got != "0" {
		t.Fatalf("transfer id metadata = %q, want 0", got)
	}
	pending, _ := w.transfers.Get(0)
	if pending.Approvals != 1 {
		t.Fatalf("approvals = %d, want 1", pending.Approvals)
	}

	w.run(t, CommandTypeApprove, "y", ApprovePayload{ID: 0})
	requireCode(t, w.run(t, CommandTypeApprove, "z", ApprovePayload{ID: 0}), apperrors.CodeAlreadyExecuted)
	requireCode(t, w.run(t, CommandTypeApprove, "y", ApprovePayload{ID: 0}), apperrors.CodeAlreadyApproved)
	requireBalance(t, w.balances, "A", -1)
	requireBalance(t, w.balances, "B", 1)
}

func TestApproveStrictFinalizeRejectsWholeApproval(t *testing.T) {
	w := newWorld()
	w.rules = ledger.Rules{StrictBalances: true}
	w.run(t, CommandTypePropose, "p", ProposePayload{From: "A", To: "B", Amount: "5", RequiredApprovals: 1})
	requireCode(t, w.run(t, CommandTypeApprove, "x", ApprovePayload{ID: 0}), apperrors.CodeInsufficientBalance)
	if w.transfers.HasApproved(0, "x") {
		t.Fatal("approval marker recorded on rejected approval")
	}
	w.balances.Credit("A", big.NewInt(5))
	if d := w.run(t, CommandTypeApprove, "x", ApprovePayload{ID: 0}); d.Rejected() {
		t.Fatalf("rejected: %+v", d.Rejections)
	}
	requireBalance(t, w.balances, "B", 5)
}

func TestViewPending(t *testing.T) {
	w := newWorld()
	requireCode(t, w.run(t, CommandTypeViewPending, "v", ViewPendingPayload{ID: 0}), apperrors.CodeNotFound)
	w.run(t, CommandTypePropose, "p", ProposePayload{From: "A", To: "B", Amount: "1", RequiredApprovals: 1})
	decision := w.run(t, CommandTypeViewPending, "v", ViewPendingPayload{ID: 0})
	if decision.Rejected() || len(decision.Events) != 1 {
		t.Fatalf("decision = %+v", decision)
	}
	if decision.Events[0].Type != ledger.EventTypeSensitiveDataAccessed {
		t.Fatalf("event = %s", decision.Events[0].Type)
	}
}
