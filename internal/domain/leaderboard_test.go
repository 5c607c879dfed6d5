package domain

import (
	"testing"
	"time"
)

func TestSortEntries(t *testing.T) {
	early := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC)

	entries := []LeaderboardEntry{
		{ID: "c", Name: "Carol", Score: 200, Timestamp: late},
		{ID: "a", Name: "Alice", Score: 300, Timestamp: late},
		{ID: "b", Name: "Bob", Score: 300, Timestamp: early},
		{ID: "e", Name: "Eve", Score: 200, Timestamp: late},
		{ID: "d", Name: "Dave", Score: 200, Timestamp: early},
	}

	SortEntries(entries)

	// Score descending, then earliest first, then by ID
	wantIDs := []string{"b", "a", "d", "c", "e"}
	for i, want := range wantIDs {
		if entries[i].ID != want {
			t.Fatalf("position %d: expected %q, got %q (order %v)", i, want, entries[i].ID, ids(entries))
		}
	}
}

func TestSortEntriesKeepsDuplicates(t *testing.T) {
	ts := time.Now()
	entries := []LeaderboardEntry{
		{ID: "1", Name: "Alice", Score: 100, Timestamp: ts},
		{ID: "2", Name: "Alice", Score: 100, Timestamp: ts},
		{ID: "3", Name: "Alice", Score: 100, Timestamp: ts},
	}

	SortEntries(entries)

	if len(entries) != 3 {
		t.Fatalf("duplicates must never be merged, got %d entries", len(entries))
	}
	for i, want := range []string{"1", "2", "3"} {
		if entries[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, entries[i].ID)
		}
	}
}

func ids(entries []LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
