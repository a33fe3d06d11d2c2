package platform_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jacentio/synarchive/platform"
)

func TestOpenDocumentStore_DefaultsToMemory(t *testing.T) {
	t.Setenv("SYNARCHIVE_STORAGE_DRIVER", "")

	store, err := platform.OpenDocumentStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store == nil {
		t.Fatal("expected a store")
	}
}

func TestOpenDocumentStore_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synarchive.db")
	t.Setenv("SYNARCHIVE_STORAGE_DRIVER", "sqlite")
	t.Setenv("SYNARCHIVE_SQLITE_PATH", path)

	store, err := platform.OpenDocumentStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// The selected backend must be live, not just constructed.
	if _, err := store.All(context.Background(), "projects"); err != nil {
		t.Fatalf("all: %v", err)
	}
}

func TestOpenDocumentStore_UnknownDriver(t *testing.T) {
	t.Setenv("SYNARCHIVE_STORAGE_DRIVER", "etcd")

	if _, err := platform.OpenDocumentStore(context.Background()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
