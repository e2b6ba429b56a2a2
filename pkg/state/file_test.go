package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	snap := &Snapshot{Version: SnapshotVersion, Query: "api", Expanded: []string{"root"}}
	if err := fs.Set(ctx, "session-1", snap); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := fs.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Query != "api" || len(got.Expanded) != 1 {
		t.Errorf("Get = %+v", got)
	}

	names, err := fs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "session-1" {
		t.Errorf("List = %v", names)
	}

	if err := fs.Delete(ctx, "session-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := fs.Get(ctx, "session-1"); got != nil {
		t.Errorf("Get after delete = %+v, want nil", got)
	}
	// Deleting again is not an error.
	if err := fs.Delete(ctx, "session-1"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileStoreMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := fs.Get(ctx, "nope")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = %+v, %v, want nil, nil", got, err)
	}

	// Corrupt and stale files behave like missing ones.
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if got, err := fs.Get(ctx, "broken"); err != nil || got != nil {
		t.Errorf("Get(corrupt) = %+v, %v, want nil, nil", got, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(`{"version": 99}`), 0600); err != nil {
		t.Fatal(err)
	}
	if got, err := fs.Get(ctx, "old"); err != nil || got != nil {
		t.Errorf("Get(stale version) = %+v, %v, want nil, nil", got, err)
	}
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b"} {
		if err := fs.Set(ctx, name, &Snapshot{Version: SnapshotVersion}); err == nil {
			t.Errorf("Set(%q) accepted invalid name", name)
		}
		if _, err := fs.Get(ctx, name); err == nil {
			t.Errorf("Get(%q) accepted invalid name", name)
		}
	}
}
