package store

import (
	"context"
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/studyr.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migration is not re-run.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	var got string
	ok, err := s2.Get(context.Background(), "k", &got)
	if err != nil || !ok || got != "v" {
		t.Fatalf("expected persisted value v, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Key/value operations
// ============================================================

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	var v []string
	ok, err := s.Get(context.Background(), KeyFolders, &v)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("missing key should report ok=false")
	}
	if v != nil {
		t.Fatal("destination should be untouched")
	}
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := map[string]float64{"2026-01-02": 25, "2026-01-03": 50}
	if err := s.Set(ctx, KeyDailyTotals, in); err != nil {
		t.Fatal(err)
	}

	var out map[string]float64
	ok, err := s.Get(ctx, KeyDailyTotals, &out)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(out) != 2 || out["2026-01-03"] != 50 {
		t.Fatalf("unexpected value: %v", out)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, KeyActiveFolder, "A")
	s.Set(ctx, KeyActiveFolder, "B")

	var got string
	s.Get(ctx, KeyActiveFolder, &got)
	if got != "B" {
		t.Fatalf("expected overwrite to B, got %q", got)
	}
}

func TestGetRawIsCompactJSON(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "x", struct {
		Name string `json:"name"`
	}{Name: "CMPT403"})

	raw, err := s.GetRaw(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"name":"CMPT403"}` {
		t.Fatalf("unexpected raw value: %s", raw)
	}
}

func TestGetDecodeErrorIsReadError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "x", "not a number")
	var n int
	_, err := s.Get(ctx, "x", &n)
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
}

func TestSetEncodeErrorIsWriteError(t *testing.T) {
	s := newTestStore(t)
	err := s.Set(context.Background(), "x", make(chan int))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, KeyActiveFolder, "A")
	if err := s.Remove(ctx, KeyActiveFolder); err != nil {
		t.Fatal(err)
	}
	var got string
	ok, _ := s.Get(ctx, KeyActiveFolder, &got)
	if ok {
		t.Fatal("key should be gone")
	}

	// Removing again is a no-op.
	if err := s.Remove(ctx, KeyActiveFolder); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestClearAndKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Set(ctx, "b", 1)
	s.Set(ctx, "a", 2)

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys [a b], got %v", keys)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	keys, _ = s.Keys(ctx)
	if keys != nil {
		t.Fatalf("expected no keys after clear, got %v", keys)
	}
}

func TestClosedStoreErrors(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	ctx := context.Background()
	var v string
	if _, err := s.Get(ctx, "k", &v); !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead on closed store, got %v", err)
	}
	if err := s.Set(ctx, "k", "v"); !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite on closed store, got %v", err)
	}
}
