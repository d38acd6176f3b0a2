package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/journal"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/storage"
)

const eventColumns = "seq, hash, prev_hash, event_type, ts_millis, actor_id, entity_type, entity_id, request_id, payload_json"

// Append stores events as one transaction, chaining them to the stored head.
func (s *Store) Append(ctx context.Context, events []event.Event) ([]event.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, journal.ErrEmptyBatch
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seq, prevHash, err := headTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		seq++
		chained, err := event.Chain(evt, seq, prevHash)
		if err != nil {
			return nil, fmt.Errorf("chain event %d: %w", seq, err)
		}
		payload := chained.PayloadJSON
		if len(payload) == 0 {
			payload = []byte("{}")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(chained.Seq),
			chained.Hash,
			chained.PrevHash,
			string(chained.Type),
			toMillis(chained.Timestamp),
			chained.ActorID,
			chained.EntityType,
			chained.EntityID,
			chained.RequestID,
			payload,
		); err != nil {
			if isConstraintError(err) {
				return nil, fmt.Errorf("event seq %d already stored: %w", seq, err)
			}
			return nil, fmt.Errorf("insert event %d: %w", seq, err)
		}
		stored = append(stored, chained)
		prevHash = chained.Hash
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return stored, nil
}

// ListEvents returns up to limit events with seq greater than afterSeq in
// ascending order. A non-positive limit returns every remaining event.
func (s *Store) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE seq > ? ORDER BY seq ASC`
	args := []any{int64(afterSeq)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Head returns the last sequence number and hash, or zero values when empty.
func (s *Store) Head(ctx context.Context) (uint64, string, error) {
	if err := s.ready(); err != nil {
		return 0, "", err
	}
	var (
		seq  int64
		hash string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1`,
	).Scan(&seq, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read head: %w", err)
	}
	return uint64(seq), hash, nil
}

// ListEventsPage returns one filtered page of events.
func (s *Store) ListEventsPage(ctx context.Context, req storage.ListEventsPageRequest) (storage.ListEventsPageResponse, error) {
	if err := s.ready(); err != nil {
		return storage.ListEventsPageResponse{}, err
	}
	plan := buildListEventsPagePlan(req)
	rows, err := s.sqlDB.QueryContext(ctx, plan.query, plan.params...)
	if err != nil {
		return storage.ListEventsPageResponse{}, fmt.Errorf("list events page: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return storage.ListEventsPageResponse{}, err
	}
	resp := storage.ListEventsPageResponse{}
	if len(events) > plan.pageSize {
		resp.HasMore = true
		events = events[:plan.pageSize]
	}
	resp.Events = events
	if len(events) > 0 {
		resp.LastSeq = events[len(events)-1].Seq
	}
	return resp, nil
}

type listEventsPagePlan struct {
	query    string
	params   []any
	pageSize int
}

// buildListEventsPagePlan fetches one row past the page to detect more.
func buildListEventsPagePlan(req storage.ListEventsPageRequest) listEventsPagePlan {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var (
		where  []string
		params []any
	)
	order := "ASC"
	if req.Descending {
		order = "DESC"
		if req.Cursor > 0 {
			where = append(where, "seq < ?")
			params = append(params, int64(req.Cursor))
		}
	} else if req.Cursor > 0 {
		where = append(where, "seq > ?")
		params = append(params, int64(req.Cursor))
	}
	if !req.Filter.Empty() {
		where = append(where, "("+req.Filter.Clause+")")
		params = append(params, req.Filter.Params...)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY seq ` + order + ` LIMIT ?`
	params = append(params, pageSize+1)

	return listEventsPagePlan{query: query, params: params, pageSize: pageSize}
}

func headTx(ctx context.Context, tx *sql.Tx) (uint64, string, error) {
	var (
		seq  int64
		hash string
	)
	err := tx.QueryRowContext(ctx, `SELECT seq, hash FROM events ORDER BY seq DESC LIMIT 1`).Scan(&seq, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("read head: %w", err)
	}
	return uint64(seq), hash, nil
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		var (
			evt       event.Event
			seq       int64
			eventType string
			tsMillis  int64
			payload   []byte
		)
		if err := rows.Scan(
			&seq,
			&evt.Hash,
			&evt.PrevHash,
			&eventType,
			&tsMillis,
			&evt.ActorID,
			&evt.EntityType,
			&evt.EntityID,
			&evt.RequestID,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(eventType)
		evt.Timestamp = fromMillis(tsMillis)
		evt.PayloadJSON = payload
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
