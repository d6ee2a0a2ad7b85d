package testsupport

import (
	"testing"

	"dir2opus/internal/config"
	"dir2opus/internal/journal"
)

// MustOpenJournal opens the journal configured for cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
