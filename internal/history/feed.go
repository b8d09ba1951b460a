// Package history fetches and holds the prior-query feed. History is
// best-effort: a failed fetch keeps the previously rendered list and is
// only logged.
package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqlpilot/internal/api"
)

// DefaultLimit matches the feed size the dashboard requests.
const DefaultLimit = 20

// Feed holds the most recently loaded history entries. Responses are
// applied last-issued-wins: each Load takes a sequence number, and a
// response is discarded if a newer Load was issued while it was in
// flight, so a slow early fetch can never overwrite a later one.
type Feed struct {
	client *api.Client
	logger *slog.Logger

	mu      sync.Mutex
	issued  uint64
	entries []api.HistoryEntry
	loaded  bool
}

// New creates a feed bound to the transport gateway.
func New(client *api.Client, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Feed{client: client, logger: logger}
}

// Load fetches up to limit entries and returns the feed's current
// contents afterwards. On failure the previous list is returned
// untouched; the error is logged, never propagated.
func (f *Feed) Load(ctx context.Context, limit int) []api.HistoryEntry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	f.mu.Lock()
	f.issued++
	seq := f.issued
	f.mu.Unlock()

	entries, err := f.client.History(ctx, limit)

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.issued {
		// A newer fetch was issued while this one was in flight.
		f.logger.Debug("discarding stale history response", "seq", seq, "latest", f.issued)
		return f.entries
	}
	if err != nil {
		f.logger.Warn("failed to load history", "error", err)
		return f.entries
	}

	f.entries = entries
	f.loaded = true
	return entries
}

// Entries returns the current feed contents.
func (f *Feed) Entries() []api.HistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries
}

// Loaded reports whether at least one fetch has succeeded.
func (f *Feed) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}
