// Package store defines the persistence boundary for the mirrored record
// set. The reconciliation engine holds no state of its own: it reads the
// full existing set, computes the next set, and writes it back wholesale,
// so implementations must make ReplaceAll appear atomic to readers and
// must return records from LoadAll in persisted display order.
package store

import (
	"context"

	"github.com/dvloznov/account-mirror/internal/mirror"
)

// RecordStore is the durable collaborator each sync cycle merges into.
// An empty cursor from LoadCursor means "full resync from the beginning".
type RecordStore interface {
	LoadAll(ctx context.Context) ([]*mirror.Record, error)
	ReplaceAll(ctx context.Context, records []*mirror.Record) error
	LoadCursor(ctx context.Context) (string, error)
	SaveCursor(ctx context.Context, cursor string) error

	// Close releases any underlying client resources.
	Close() error
}
