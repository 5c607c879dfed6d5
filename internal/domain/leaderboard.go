package domain

import (
	"context"
	"sort"
	"time"
)

// PersonalRecord is the best result a user has achieved for one game.
// There is exactly one record per (user, game); a new best overwrites it.
type PersonalRecord struct {
	GameName  string    `json:"gameName"`
	Score     int64     `json:"score"`
	Level     *int64    `json:"level,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserProfile holds the display identity a user submits scores under.
type UserProfile struct {
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LeaderboardEntry is one submitted score. Entries are append-only facts:
// a user may appear any number of times and duplicates are never merged.
type LeaderboardEntry struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Score     int64     `json:"score"`
	Level     *int64    `json:"level,omitempty"`
	GameName  string    `json:"gameName"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
}

// ScoreEvent is a validated GAME_OVER payload from an embedded game.
// It is transient and never persisted as such.
type ScoreEvent struct {
	Score int64  `json:"score"`
	Level *int64 `json:"level,omitempty"`
}

// RecordStore is the document-store capability backing personal records
// and user profiles. Reads return ErrRecordNotFound/ErrProfileNotFound
// when the document is absent; transport failures surface as *StoreError.
type RecordStore interface {
	PersonalRecord(ctx context.Context, userID, gameName string) (*PersonalRecord, error)
	UpsertPersonalRecord(ctx context.Context, userID string, record PersonalRecord) error
	UserProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpsertUserProfile(ctx context.Context, userID, name, email string) error
}

// LeaderboardStore is the append-only capability backing submitted scores.
// Submit and TopScores failures surface as *WriteError and are never
// swallowed.
type LeaderboardStore interface {
	Submit(ctx context.Context, entry LeaderboardEntry) error
	TopScores(ctx context.Context, gameName string, limit int) ([]LeaderboardEntry, error)
}

// SortEntries orders entries by score descending with a deterministic
// tie-break: earliest submission first, then entry ID. Score-only ordering
// is unstable, so every read path must impose this.
func SortEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].ID < entries[j].ID
	})
}
