package storage

import (
	"context"
	"testing"

	"github.com/AllenNeuralDynamics/aind-behavior-gym/internal/session"
)

func sampleSession(id, createdAt string) session.Session {
	return session.Session{
		ID:           id,
		Task:         "coupled-block",
		Seed:         42,
		NumTrials:    2,
		CreatedAtUTC: createdAt,
		TotalReward:  1,
		Trials: []session.TrialRecord{
			{Trial: 0, Action: 0, Reward: 1, PReward: []float64{0.4, 0.05}},
			{Trial: 1, Action: 1, Reward: 0, PReward: []float64{0.4, 0.05}},
		},
	}
}

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

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
	if output.Task != input.Task || output.Seed != input.Seed || len(output.Trials) != 2 {
		t.Fatalf("unexpected session: %+v", output)
	}
}

func TestMemoryStoreGetMissingSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_, ok, err := store.GetSession(ctx, "nope")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if ok {
		t.Fatal("expected missing session")
	}
}

func TestMemoryStoreRejectsUninitializedSave(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveSession(context.Background(), sampleSession("s1", "2026-01-02T03:04:05Z")); err == nil {
		t.Fatal("expected error saving to uninitialized store")
	}
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveSession(ctx, session.Session{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestMemoryStoreListOrdersByCreation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, s := range []session.Session{
		sampleSession("s2", "2026-01-03T00:00:00Z"),
		sampleSession("s1", "2026-01-02T00:00:00Z"),
		sampleSession("s3", "2026-01-03T00:00:00Z"),
	} {
		if err := store.SaveSession(ctx, s); err != nil {
			t.Fatalf("save session %s: %v", s.ID, err)
		}
	}

	listed, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	wantOrder := []string{"s1", "s2", "s3"}
	if len(listed) != len(wantOrder) {
		t.Fatalf("listed %d sessions, want %d", len(listed), len(wantOrder))
	}
	for i, want := range wantOrder {
		if listed[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, listed[i].ID, want)
		}
	}
}

func TestMemoryStoreDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveSession(ctx, sampleSession("s1", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := store.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := store.GetSession(ctx, "s1"); ok {
		t.Fatal("session survived delete")
	}
}
