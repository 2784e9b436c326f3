// Package store is the append-only local record of captured events. Appends
// are synchronous so an event survives even when remote delivery never
// succeeds; the synced flag only ever moves false -> true.
package store

import (
	"context"

	"github.com/google/uuid"

	"storefront-analytics-tracker/internal/event"
)

type EventStore interface {
	// Append persists the event before any remote action. It must not block
	// on network I/O beyond the local database.
	Append(ctx context.Context, ev event.Event) (uuid.UUID, error)

	// MarkSynced flips the synced flag. Idempotent: already-synced or unknown
	// ids return updated=false with a nil error so callers can log and move on.
	MarkSynced(ctx context.Context, id uuid.UUID) (bool, error)

	// ListPending returns unsynced events oldest first. Repeated calls are
	// safe; listing does not consume.
	ListPending(ctx context.Context, limit int) ([]event.Event, error)

	CountPending(ctx context.Context) (int, error)
}
