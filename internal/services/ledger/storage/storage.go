package storage

import (
	"context"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/core/filter"
	"github.com/louisbranch/rbac-ledger/internal/services/ledger/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ListEventsPageRequest selects one page of journal events.
type ListEventsPageRequest struct {
	// Cursor is the exclusive bound page tokens decode to: events after it
	// in ascending order, before it in descending order. Zero starts at the
	// edge of the journal.
	Cursor   uint64
	PageSize int
	// Filter narrows the page with a condition from core/filter.
	Filter     filter.SQLCondition
	Descending bool
}

// ListEventsPageResponse carries one page and whether more remain.
type ListEventsPageResponse struct {
	Events  []event.Event
	HasMore bool
	// LastSeq is the seq of the last event in Events.
	LastSeq uint64
}

// EventPager lists journal events page by page.
type EventPager interface {
	ListEventsPage(ctx context.Context, req ListEventsPageRequest) (ListEventsPageResponse, error)
}
