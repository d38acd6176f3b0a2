package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	coreencoding "github.com/louisbranch/rbac-ledger/internal/services/ledger/core/encoding"
)

// Type identifies the event type string.
type Type string

// Event is the journal envelope for a ledger fact.
type Event struct {
	Seq         uint64
	Hash        string
	PrevHash    string
	Type        Type
	Timestamp   time.Time
	ActorID     string
	EntityType  string
	EntityID    string
	RequestID   string
	PayloadJSON []byte
}

type hashInput struct {
	Seq         uint64          `json:"seq"`
	PrevHash    string          `json:"prev_hash"`
	Type        Type            `json:"type"`
	TimestampMs int64           `json:"ts"`
	ActorID     string          `json:"actor_id"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	RequestID   string          `json:"request_id"`
	Payload     json.RawMessage `json:"payload"`
}

// ComputeHash returns the hex SHA-256 of the canonical event content,
// including Seq and PrevHash so each hash commits to the whole prefix.
func ComputeHash(evt Event) (string, error) {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	canonical, err := coreencoding.CanonicalJSON(hashInput{
		Seq:         evt.Seq,
		PrevHash:    evt.PrevHash,
		Type:        evt.Type,
		TimestampMs: evt.Timestamp.UTC().UnixMilli(),
		ActorID:     evt.ActorID,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		RequestID:   evt.RequestID,
		Payload:     payload,
	})
	if err != nil {
		return "", fmt.Errorf("canonical event: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Chain assigns seq, prevHash and the resulting hash to evt.
func Chain(evt Event, seq uint64, prevHash string) (Event, error) {
	evt.Seq = seq
	evt.PrevHash = prevHash
	evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
	hash, err := ComputeHash(evt)
	if err != nil {
		return Event{}, err
	}
	evt.Hash = hash
	return evt, nil
}

// VerifyChain checks that events are contiguous from their first sequence and
// that every hash matches its content and predecessor.
func VerifyChain(events []Event, prevHash string) error {
	for i, evt := range events {
		if i > 0 && evt.Seq != events[i-1].Seq+1 {
			return fmt.Errorf("event sequence gap: expected %d got %d", events[i-1].Seq+1, evt.Seq)
		}
		if evt.PrevHash != prevHash {
			return fmt.Errorf("event %d prev hash mismatch", evt.Seq)
		}
		want, err := ComputeHash(evt)
		if err != nil {
			return err
		}
		if evt.Hash != want {
			return fmt.Errorf("event %d hash mismatch", evt.Seq)
		}
		prevHash = evt.Hash
	}
	return nil
}
