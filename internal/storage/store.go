// Package storage holds the authoritative log store the search core is
// rebuilt from. The indexes never persist themselves; on startup the store
// replays its events back into the engine.
package storage

import (
	"context"

	"github.com/viper-logs/viperlog/internal/event"
)

// Store is the log storage collaborator. The search core only ever sees
// documents through ingestion callbacks and id-based fetches; it does not
// participate in rotation or retention decisions.
type Store interface {
	// Append durably records one event.
	Append(ctx context.Context, ev *event.LogEvent) error
	// Get materialises the full event for an id returned by a search.
	Get(ctx context.Context, id event.ID) (*event.LogEvent, error)
	// Each visits every stored event in file order.
	Each(ctx context.Context, fn func(ev *event.LogEvent) error) error
	Close() error
}

// Sink receives replayed documents during an index rebuild.
type Sink interface {
	AddDocument(id event.ID, fields map[string]string)
}
