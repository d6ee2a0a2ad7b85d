package runlock_test

import (
	"errors"
	"path/filepath"
	"testing"

	"dir2opus/internal/runlock"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "dir2opus.lock")

	first, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if first.Path() != path {
		t.Fatalf("Path = %q", first.Path())
	}

	if _, err := runlock.Acquire(path); !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	again, err := runlock.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again.Release()
}
