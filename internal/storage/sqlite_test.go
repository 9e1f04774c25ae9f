//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	input := sampleSession("s1", "2026-01-02T03:04:05Z")
	if err := store.SaveSession(ctx, input); err != nil {
		t.Fatalf("save session: %v", err)
	}

	output, ok, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted session")
	}
	if output.Task != input.Task || output.TotalReward != input.TotalReward {
		t.Fatalf("unexpected session: %+v", output)
	}
	if len(output.Trials) != len(input.Trials) {
		t.Fatalf("trial count = %d, want %d", len(output.Trials), len(input.Trials))
	}
}

func TestSQLiteStoreUpsertsExistingSession(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	first := sampleSession("s1", "2026-01-02T03:04:05Z")
	if err := store.SaveSession(ctx, first); err != nil {
		t.Fatalf("save session: %v", err)
	}
	second := first
	second.TotalReward = 99
	if err := store.SaveSession(ctx, second); err != nil {
		t.Fatalf("re-save session: %v", err)
	}

	output, ok, err := store.GetSession(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("get session: ok=%v err=%v", ok, err)
	}
	if output.TotalReward != 99 {
		t.Fatalf("total reward = %g, want 99", output.TotalReward)
	}
}

func TestSQLiteStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	for _, s := range []struct{ id, created string }{
		{"s2", "2026-01-03T00:00:00Z"},
		{"s1", "2026-01-02T00:00:00Z"},
	} {
		if err := store.SaveSession(ctx, sampleSession(s.id, s.created)); err != nil {
			t.Fatalf("save session %s: %v", s.id, err)
		}
	}

	listed, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "s1" || listed[1].ID != "s2" {
		t.Fatalf("unexpected listing: %+v", listed)
	}

	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := store.GetSession(ctx, "s1"); ok {
		t.Fatal("session survived delete")
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err := store.SaveSession(context.Background(), sampleSession("s1", "2026-01-02T00:00:00Z")); err == nil {
		t.Fatal("expected error saving before init")
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
