// Package display builds the leaderboard render model: the top-N read
// path with explicit loading, empty, ready and error states. It holds no
// cache; every open re-fetches.
package display

import (
	"context"
	"log/slog"

	"github.com/smarlify/playful-hub/internal/domain"
	"github.com/smarlify/playful-hub/internal/games"
)

// BoardState is the render state of a leaderboard view
type BoardState string

const (
	StateLoading BoardState = "loading"
	StateReady   BoardState = "ready"
	StateEmpty   BoardState = "empty"
	StateError   BoardState = "error"
)

// Row is one rendered leaderboard line
type Row struct {
	Rank int `json:"rank"`
	// Podium marks ranks 1-3, which render distinct from 4th and below
	Podium bool   `json:"podium"`
	Name   string `json:"name"`
	Result string `json:"result"`
	Date   string `json:"date"`
}

// View is the full render model for one leaderboard open
type View struct {
	State    BoardState `json:"state"`
	GameID   string     `json:"gameId"`
	GameName string     `json:"gameName"`
	Rows     []Row      `json:"rows"`
	// Retryable is set on error views; retrying re-issues the same query
	Retryable bool   `json:"retryable,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Board produces leaderboard views for the hub's games
type Board struct {
	store  domain.LeaderboardStore
	limit  int
	logger *slog.Logger
}

// NewBoard creates a board reading at most limit entries per view
func NewBoard(store domain.LeaderboardStore, limit int, logger *slog.Logger) *Board {
	if limit <= 0 {
		limit = 10
	}
	return &Board{
		store:  store,
		limit:  limit,
		logger: logger,
	}
}

// Loading returns the view shown while the query is pending
func Loading(game *games.Game) View {
	return View{
		State:    StateLoading,
		GameID:   game.ID,
		GameName: game.Name,
	}
}

// Load fetches the top scores for a game and renders them. Zero entries is
// an explicit empty state, not an error; a failed query yields an error
// state whose retry re-issues the same query.
func (b *Board) Load(ctx context.Context, game *games.Game) View {
	return b.LoadLimit(ctx, game, b.limit)
}

// LoadLimit is Load with an explicit entry limit; values <= 0 fall back to
// the board's configured limit.
func (b *Board) LoadLimit(ctx context.Context, game *games.Game, limit int) View {
	if limit <= 0 {
		limit = b.limit
	}

	view := View{
		GameID:   game.ID,
		GameName: game.Name,
	}

	entries, err := b.store.TopScores(ctx, game.Name, limit)
	if err != nil {
		b.logger.Error("failed to load leaderboard",
			"game", game.ID,
			"error", err,
		)
		view.State = StateError
		view.Retryable = true
		view.Error = "Failed to load leaderboard"
		return view
	}

	if len(entries) == 0 {
		view.State = StateEmpty
		return view
	}

	// The store already orders deterministically; re-sorting is a no-op
	// for a conforming store and pins the contract for any other.
	domain.SortEntries(entries)

	view.State = StateReady
	view.Rows = make([]Row, len(entries))
	for i, entry := range entries {
		view.Rows[i] = Row{
			Rank:   i + 1,
			Podium: i < 3,
			Name:   entry.Name,
			Result: game.FormatScore(entry),
			Date:   entry.Timestamp.Format("Jan 2, 2006"),
		}
	}
	return view
}
