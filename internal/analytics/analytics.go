// Package analytics defines the event sink the hub reports milestones to.
// Tracking is fire-and-forget: it is never required for correctness and a
// failing sink must never surface to the user.
package analytics

import "context"

// Event names emitted at submission milestones
const (
	EventGameOver        = "game_over"
	EventRecordDetected  = "personal_record_detected"
	EventScoreSubmitted  = "leaderboard_submit"
	EventSubmitFailed    = "leaderboard_submit_failed"
	EventSubmitSkipped   = "leaderboard_submit_skipped"
	EventLeaderboardView = "leaderboard_view"
)

// Sink accepts named events with a free-form parameter map
type Sink interface {
	Track(ctx context.Context, event string, params map[string]any)
}

// Nop discards all events
type Nop struct{}

// Track implements Sink
func (Nop) Track(context.Context, string, map[string]any) {}
