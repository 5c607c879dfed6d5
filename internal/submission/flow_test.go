package submission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/smarlify/playful-hub/internal/analytics"
	"github.com/smarlify/playful-hub/internal/domain"
	"github.com/smarlify/playful-hub/internal/games"
	"github.com/smarlify/playful-hub/internal/records"
)

// memRecordStore is an in-memory record store that logs the order of its
// write calls and can be told to fail.
type memRecordStore struct {
	records  map[string]*domain.PersonalRecord
	profiles map[string]*domain.UserProfile

	calls      []string
	failUpsert error
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{
		records:  make(map[string]*domain.PersonalRecord),
		profiles: make(map[string]*domain.UserProfile),
	}
}

func (m *memRecordStore) PersonalRecord(_ context.Context, userID, gameName string) (*domain.PersonalRecord, error) {
	record, ok := m.records[userID+"/"+gameName]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

func (m *memRecordStore) UpsertPersonalRecord(_ context.Context, userID string, record domain.PersonalRecord) error {
	m.calls = append(m.calls, "record")
	if m.failUpsert != nil {
		return m.failUpsert
	}
	m.records[userID+"/"+record.GameName] = &record
	return nil
}

func (m *memRecordStore) UserProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (m *memRecordStore) UpsertUserProfile(_ context.Context, userID, name, email string) error {
	m.calls = append(m.calls, "profile")
	m.profiles[userID] = &domain.UserProfile{Name: name, Email: email, UpdatedAt: time.Now()}
	return nil
}

// memBoard appends entries and can fail its next Submit
type memBoard struct {
	entries    []domain.LeaderboardEntry
	store      *memRecordStore
	failSubmit error
}

func (m *memBoard) Submit(_ context.Context, entry domain.LeaderboardEntry) error {
	if m.store != nil {
		m.store.calls = append(m.store.calls, "entry")
	}
	if m.failSubmit != nil {
		return m.failSubmit
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memBoard) TopScores(_ context.Context, gameName string, limit int) ([]domain.LeaderboardEntry, error) {
	out := []domain.LeaderboardEntry{}
	for _, e := range m.entries {
		if e.GameName == gameName {
			out = append(out, e)
		}
	}
	domain.SortEntries(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// trackingSink records event names in order
type trackingSink struct {
	events []string
}

func (s *trackingSink) Track(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGame() *games.Game {
	return &games.Game{
		ID:          "crossy-road",
		Name:        "Crossy Road",
		Status:      games.StatusPublished,
		ScoreFormat: games.ScoreFormatScore,
	}
}

func newTestFlow(store *memRecordStore, board *memBoard, sink analytics.Sink) *Flow {
	logger := testLogger()
	evaluator := records.NewEvaluator(store, logger)
	if sink == nil {
		sink = analytics.Nop{}
	}
	return NewFlow("user-1", testGame(), evaluator, store, board, sink, logger)
}

func TestHandleScoreOpensPromptOnRecord(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	opened := flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})
	if !opened {
		t.Fatal("first score should open the prompt")
	}

	view := flow.Snapshot()
	if view.State != StatePrompting {
		t.Errorf("expected state %q, got %q", StatePrompting, view.State)
	}
	if view.Score != 42 {
		t.Errorf("expected score 42, got %d", view.Score)
	}
}

func TestHandleScoreIgnoresNonRecord(t *testing.T) {
	store := newMemRecordStore()
	store.records["user-1/Crossy Road"] = &domain.PersonalRecord{
		GameName: "Crossy Road",
		Score:    100,
	}
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	if flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 100}) {
		t.Error("a tie should not open the prompt")
	}
	if flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 50}) {
		t.Error("a lower score should not open the prompt")
	}
	if view := flow.Snapshot(); view.State != StateIdle {
		t.Errorf("expected state %q, got %q", StateIdle, view.State)
	}
}

func TestHandleScoreIgnoredWhileBusy(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})

	// A better score arrives while the prompt is open: dropped on the floor
	if flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 9000}) {
		t.Error("score event during an active submission should be ignored")
	}
	if view := flow.Snapshot(); view.Score != 42 {
		t.Errorf("original score should be retained, got %d", view.Score)
	}
}

func TestSubmitWritesInOrder(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	level := int64(3)
	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42, Level: &level})

	if err := flow.Submit(context.Background(), "  Alice  ", "alice@example.com"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := []string{"profile", "entry", "record"}
	if len(store.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, store.calls)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, store.calls)
		}
	}

	if len(board.entries) != 1 {
		t.Fatalf("expected 1 leaderboard entry, got %d", len(board.entries))
	}
	entry := board.entries[0]
	if entry.Name != "Alice" {
		t.Errorf("name should be trimmed, got %q", entry.Name)
	}
	if entry.Score != 42 || entry.GameName != "Crossy Road" || entry.UserID != "user-1" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Level == nil || *entry.Level != 3 {
		t.Errorf("expected level 3, got %v", entry.Level)
	}

	record, err := store.PersonalRecord(context.Background(), "user-1", "Crossy Road")
	if err != nil {
		t.Fatalf("record not stored: %v", err)
	}
	if record.Score != 42 {
		t.Errorf("expected stored record 42, got %d", record.Score)
	}

	profile, err := store.UserProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if profile.Name != "Alice" || profile.Email != "alice@example.com" {
		t.Errorf("unexpected profile: %+v", profile)
	}

	if view := flow.Snapshot(); view.State != StateDone {
		t.Errorf("expected state %q, got %q", StateDone, view.State)
	}
}

func TestSubmitBlankNameStaysPrompting(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})

	err := flow.Submit(context.Background(), "   ", "")
	if !domain.IsValidationError(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("no store call should happen on a blank name, got %v", store.calls)
	}
	if view := flow.Snapshot(); view.State != StatePrompting {
		t.Errorf("expected state %q, got %q", StatePrompting, view.State)
	}
}

func TestSubmitWithoutPromptReturnsNoSubmission(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	if err := flow.Submit(context.Background(), "Alice", ""); !errors.Is(err, domain.ErrNoSubmission) {
		t.Errorf("expected ErrNoSubmission, got %v", err)
	}
}

func TestSubmitFailureAndRetry(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	board.failSubmit = &domain.WriteError{Op: "submit", Err: errors.New("connection refused")}
	flow := newTestFlow(store, board, nil)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})

	if err := flow.Submit(context.Background(), "Alice", "alice@example.com"); err == nil {
		t.Fatal("Submit should fail when the board write fails")
	}

	view := flow.Snapshot()
	if view.State != StateFailed {
		t.Fatalf("expected state %q, got %q", StateFailed, view.State)
	}
	if view.Name != "Alice" {
		t.Errorf("failed submission should retain the name, got %q", view.Name)
	}
	if view.Error == "" {
		t.Error("failed view should carry an error message")
	}

	// The board recovers; retry re-runs the same submission
	board.failSubmit = nil
	if err := flow.Retry(context.Background()); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}

	if len(board.entries) != 1 {
		t.Fatalf("expected 1 entry after retry, got %d", len(board.entries))
	}
	if board.entries[0].Name != "Alice" {
		t.Errorf("retry should reuse the entered name, got %q", board.entries[0].Name)
	}
	if view := flow.Snapshot(); view.State != StateDone {
		t.Errorf("expected state %q, got %q", StateDone, view.State)
	}
}

func TestRetryOnlyFromFailed(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	if err := flow.Retry(context.Background()); !errors.Is(err, domain.ErrNoSubmission) {
		t.Errorf("expected ErrNoSubmission from idle, got %v", err)
	}

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})
	if err := flow.Retry(context.Background()); !errors.Is(err, domain.ErrNoSubmission) {
		t.Errorf("expected ErrNoSubmission from prompting, got %v", err)
	}
}

func TestDismissSkipWritesNothing(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	sink := &trackingSink{}
	flow := newTestFlow(store, board, sink)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})

	if err := flow.Dismiss(context.Background()); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("skip must not touch any store, got calls %v", store.calls)
	}
	if view := flow.Snapshot(); view.State != StateIdle {
		t.Errorf("expected state %q, got %q", StateIdle, view.State)
	}

	skipped := false
	for _, e := range sink.events {
		if e == analytics.EventSubmitSkipped {
			skipped = true
		}
	}
	if !skipped {
		t.Error("skip should be tracked")
	}
}

func TestDismissEnablesNextRound(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})
	if err := flow.Submit(context.Background(), "Alice", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := flow.Dismiss(context.Background()); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	// A better score the next round opens a fresh prompt
	if !flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 100}) {
		t.Fatal("a higher score after dismissal should open a new prompt")
	}
	if view := flow.Snapshot(); view.Score != 100 || view.Name != "" {
		t.Errorf("new round should start clean, got %+v", view)
	}
}

func TestDismissWithNothingOpen(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	if err := flow.Dismiss(context.Background()); !errors.Is(err, domain.ErrNoSubmission) {
		t.Errorf("expected ErrNoSubmission, got %v", err)
	}
}

func TestAnalyticsEventsOnHappyPath(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	sink := &trackingSink{}
	flow := newTestFlow(store, board, sink)

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})
	if err := flow.Submit(context.Background(), "Alice", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := []string{
		analytics.EventGameOver,
		analytics.EventRecordDetected,
		analytics.EventScoreSubmitted,
	}
	if len(sink.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, sink.events)
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, sink.events)
		}
	}
}

func TestNotifierFiresAfterSubmission(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	flow := newTestFlow(store, board, nil)

	var notified string
	flow.SetNotifier(func(game *games.Game) {
		notified = game.ID
	})

	flow.HandleScore(context.Background(), domain.ScoreEvent{Score: 42})
	if err := flow.Submit(context.Background(), "Alice", ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if notified != "crossy-road" {
		t.Errorf("notifier should fire with the game, got %q", notified)
	}
}

func TestManagerReusesFlows(t *testing.T) {
	store := newMemRecordStore()
	board := &memBoard{store: store}
	logger := testLogger()
	m := NewManager(records.NewEvaluator(store, logger), store, board, analytics.Nop{}, logger)

	game := testGame()
	first := m.Flow("user-1", game)
	if second := m.Flow("user-1", game); second != first {
		t.Error("same user and game should share one flow")
	}
	if other := m.Flow("user-2", game); other == first {
		t.Error("different users must not share a flow")
	}

	if _, ok := m.Lookup("user-1", game.ID); !ok {
		t.Error("Lookup should find the created flow")
	}
	m.Drop("user-1", game.ID)
	if _, ok := m.Lookup("user-1", game.ID); ok {
		t.Error("Drop should remove the flow")
	}
}
