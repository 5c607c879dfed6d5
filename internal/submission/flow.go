// Package submission drives the personal-record popup: a small state
// machine from score event to leaderboard entry.
package submission

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/smarlify/playful-hub/internal/analytics"
	"github.com/smarlify/playful-hub/internal/domain"
	"github.com/smarlify/playful-hub/internal/games"
	"github.com/smarlify/playful-hub/internal/records"
)

// State is the submission flow state
type State string

const (
	StateIdle       State = "idle"
	StatePrompting  State = "promptingForName"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// View is a snapshot of a flow, safe to hand to the presentation layer
type View struct {
	State    State  `json:"state"`
	GameID   string `json:"gameId"`
	GameName string `json:"gameName"`
	Score    int64  `json:"score,omitempty"`
	Level    *int64 `json:"level,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Flow is the submission state machine for one (user, game) view:
// idle -> promptingForName -> submitting -> done | failed. It is entered
// from idle only; score events arriving while any later state is active
// are ignored, so popups never stack.
type Flow struct {
	userID string
	game   *games.Game

	evaluator *records.Evaluator
	store     domain.RecordStore
	board     domain.LeaderboardStore
	sink      analytics.Sink
	logger    *slog.Logger
	now       func() time.Time

	// onSubmitted fires after all three writes succeed
	onSubmitted func(game *games.Game)

	mu      sync.Mutex
	state   State
	score   int64
	level   *int64
	name    string
	email   string
	lastErr error
}

// NewFlow creates an idle flow for one user and game
func NewFlow(
	userID string,
	game *games.Game,
	evaluator *records.Evaluator,
	store domain.RecordStore,
	board domain.LeaderboardStore,
	sink analytics.Sink,
	logger *slog.Logger,
) *Flow {
	return &Flow{
		userID:    userID,
		game:      game,
		evaluator: evaluator,
		store:     store,
		board:     board,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
		state:     StateIdle,
	}
}

// SetNotifier registers a hook fired after a successful submission
func (f *Flow) SetNotifier(fn func(game *games.Game)) {
	f.onSubmitted = fn
}

// HandleScore feeds a validated score event into the flow. It returns true
// when the event opened the name prompt. Events are dropped when the flow
// is not idle or when the score is not a personal record.
func (f *Flow) HandleScore(ctx context.Context, event domain.ScoreEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateIdle {
		f.logger.Debug("ignoring score event, submission active",
			"game", f.game.ID,
			"state", f.state,
		)
		return false
	}

	f.sink.Track(ctx, analytics.EventGameOver, map[string]any{
		"game":  f.game.ID,
		"score": event.Score,
	})

	if !f.evaluator.IsPersonalRecord(ctx, f.userID, f.game.Name, event.Score) {
		return false
	}

	f.state = StatePrompting
	f.score = event.Score
	f.level = event.Level
	f.name = ""
	f.email = ""
	f.lastErr = nil

	f.sink.Track(ctx, analytics.EventRecordDetected, map[string]any{
		"game":  f.game.ID,
		"score": event.Score,
	})
	return true
}

// Submit records the user's name and email and performs the three-step
// write sequence. A blank name is a field-level validation error and keeps
// the flow in promptingForName.
func (f *Flow) Submit(ctx context.Context, name, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StatePrompting, StateFailed:
	case StateIdle, StateDone:
		return domain.ErrNoSubmission
	case StateSubmitting:
		return domain.ErrSubmissionBusy
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return &domain.ValidationError{
			Field:  "name",
			Reason: "name is required to appear on the leaderboard",
		}
	}

	f.name = name
	f.email = strings.TrimSpace(email)
	return f.submitLocked(ctx)
}

// Retry re-runs the exact same submission after a failure. The profile
// upsert is idempotent; the leaderboard append is not, and a retry after a
// partial failure can produce a duplicate entry. That is accepted behavior
// of the append-only store.
func (f *Flow) Retry(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateFailed {
		return domain.ErrNoSubmission
	}
	return f.submitLocked(ctx)
}

// submitLocked performs the writes in order: user profile, leaderboard
// entry, personal record. The steps are best-effort network calls with no
// transaction across them; an earlier success is not rolled back when a
// later step fails.
func (f *Flow) submitLocked(ctx context.Context) error {
	f.state = StateSubmitting
	f.lastErr = nil
	now := f.now()

	if err := f.store.UpsertUserProfile(ctx, f.userID, f.name, f.email); err != nil {
		return f.failLocked(ctx, err)
	}

	entry := domain.LeaderboardEntry{
		Name:      f.name,
		Email:     f.email,
		Score:     f.score,
		Level:     f.level,
		GameName:  f.game.Name,
		Timestamp: now,
		UserID:    f.userID,
	}
	if err := f.board.Submit(ctx, entry); err != nil {
		return f.failLocked(ctx, err)
	}

	record := domain.PersonalRecord{
		GameName:  f.game.Name,
		Score:     f.score,
		Level:     f.level,
		Timestamp: now,
	}
	if err := f.store.UpsertPersonalRecord(ctx, f.userID, record); err != nil {
		return f.failLocked(ctx, err)
	}

	f.state = StateDone
	f.sink.Track(ctx, analytics.EventScoreSubmitted, map[string]any{
		"game":  f.game.ID,
		"score": f.score,
	})
	f.logger.Info("score submitted",
		"game", f.game.ID,
		"score", f.score,
		"name", f.name,
	)

	if f.onSubmitted != nil {
		f.onSubmitted(f.game)
	}
	return nil
}

func (f *Flow) failLocked(ctx context.Context, err error) error {
	f.state = StateFailed
	f.lastErr = err
	f.sink.Track(ctx, analytics.EventSubmitFailed, map[string]any{
		"game":  f.game.ID,
		"error": err.Error(),
	})
	f.logger.Error("score submission failed",
		"game", f.game.ID,
		"score", f.score,
		"error", err,
	)
	return err
}

// Dismiss closes the popup. From promptingForName this is the Skip path: a
// detected record goes unrecorded and no store is touched. From done or
// failed it resets the flow for the next round.
func (f *Flow) Dismiss(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StatePrompting:
		f.sink.Track(ctx, analytics.EventSubmitSkipped, map[string]any{
			"game":  f.game.ID,
			"score": f.score,
		})
	case StateDone, StateFailed:
	case StateSubmitting:
		return domain.ErrSubmissionBusy
	default:
		return domain.ErrNoSubmission
	}

	f.state = StateIdle
	f.score = 0
	f.level = nil
	f.name = ""
	f.email = ""
	f.lastErr = nil
	return nil
}

// Snapshot returns the current flow state for display
func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := View{
		State:    f.state,
		GameID:   f.game.ID,
		GameName: f.game.Name,
		Score:    f.score,
		Level:    f.level,
		Name:     f.name,
		Email:    f.email,
	}
	if f.lastErr != nil {
		view.Error = f.lastErr.Error()
	}
	return view
}
