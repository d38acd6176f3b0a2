package transfer

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/ledger"
)

func TestFoldFinalizeIsIdempotent(t *testing.T) {
	transfers := NewState()
	balances := ledger.NewState()
	transfers.Pending[0] = Pending{ID: 0, From: "A", To: "B", Amount: big.NewInt(10), RequiredApprovals: 1}

	raw, _ := json.Marshal(FinalizedPayload{ID: 0, From: "A", To: "B", Amount: "10"})
	evt := event.Event{Type: EventTypeFinalized, PayloadJSON: raw}
	for i := 0; i < 2; i++ {
		var err error
		if transfers, balances, err = Fold(transfers, balances, evt); err != nil {
			t.Fatalf("fold %d: %v", i, err)
		}
	}

	if got := balances.BalanceOf("B"); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("balance(B) = %s, want 10", got)
	}
	if !transfers.Pending[0].Executed {
		t.Fatal("expected executed")
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	state := NewState()
	state.Counter = 2
	state.Pending[1] = Pending{ID: 1, From: "A", To: "B", Amount: big.NewInt(3), RequiredApprovals: 2, Approvals: 1}
	state.Approvals[1] = map[string]bool{"x": true}

	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded State
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Counter != 2 || !decoded.HasApproved(1, "x") {
		t.Fatalf("decoded = %+v", decoded)
	}
	if got := decoded.Pending[1].Amount; got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("amount = %s, want 3", got)
	}
}

func TestFoldProposedRejectsCorruptAmount(t *testing.T) {
	raw, _ := json.Marshal(ProposedPayload{ID: 0, From: "A", To: "B", Amount: "lots", RequiredApprovals: 1})
	evt := event.Event{Type: EventTypeProposed, PayloadJSON: raw}
	transfers, _, err := Fold(NewState(), ledger.NewState(), evt)
	if err == nil {
		t.Fatal("expected fold error for unparseable amount")
	}
	if _, ok := transfers.Get(0); ok {
		t.Fatal("expected no pending transfer recorded")
	}
}
