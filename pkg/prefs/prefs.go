// Package prefs persists the dashboard's user preferences between sessions.
// The active tab is the only persisted value; it is restored on start and
// replaced by the default when absent or no longer valid.
package prefs

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store reads and writes preferences.
type Store interface {
	// ActiveTab returns the saved tab name, or "" when none is saved.
	ActiveTab(ctx context.Context) (string, error)

	// SetActiveTab saves the tab name.
	SetActiveTab(ctx context.Context, tab string) error
}

// Restore returns the saved tab when it is one of valid, otherwise fallback.
// Store errors are logged and treated as an absent value.
func Restore(ctx context.Context, store Store, valid []string, fallback string) string {
	if store == nil {
		return fallback
	}

	tab, err := store.ActiveTab(ctx)
	if err != nil {
		log.Warn().Err(err).Str("component", "prefs").Msg("Failed to read saved tab, using default")
		return fallback
	}
	if tab == "" || !slices.Contains(valid, tab) {
		if tab != "" {
			log.Debug().Str("component", "prefs").Str("tab", tab).Msg("Ignoring unknown saved tab")
		}
		return fallback
	}
	return tab
}

// NopStore remembers nothing.
type NopStore struct{}

// ActiveTab always returns "".
func (NopStore) ActiveTab(context.Context) (string, error) { return "", nil }

// SetActiveTab discards the tab.
func (NopStore) SetActiveTab(context.Context, string) error { return nil }

// MemoryStore keeps preferences for the lifetime of the process.
type MemoryStore struct {
	mu  sync.Mutex
	tab string
}

// ActiveTab returns the stored tab.
func (m *MemoryStore) ActiveTab(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab, nil
}

// SetActiveTab stores the tab.
func (m *MemoryStore) SetActiveTab(_ context.Context, tab string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tab = tab
	return nil
}
