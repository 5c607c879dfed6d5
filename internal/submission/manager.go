package submission

import (
	"log/slog"
	"sync"

	"github.com/smarlify/playful-hub/internal/analytics"
	"github.com/smarlify/playful-hub/internal/domain"
	"github.com/smarlify/playful-hub/internal/games"
	"github.com/smarlify/playful-hub/internal/records"
)

// Manager owns the submission flows, one per (user, game) view
type Manager struct {
	evaluator *records.Evaluator
	store     domain.RecordStore
	board     domain.LeaderboardStore
	sink      analytics.Sink
	logger    *slog.Logger

	// notifier is attached to every flow it creates
	notifier func(game *games.Game)

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewManager creates an empty session manager
func NewManager(
	evaluator *records.Evaluator,
	store domain.RecordStore,
	board domain.LeaderboardStore,
	sink analytics.Sink,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		evaluator: evaluator,
		store:     store,
		board:     board,
		sink:      sink,
		logger:    logger,
		flows:     make(map[string]*Flow),
	}
}

// SetNotifier registers the post-submission hook for all flows
func (m *Manager) SetNotifier(fn func(game *games.Game)) {
	m.notifier = fn
}

func flowKey(userID, gameID string) string {
	return userID + "\x00" + gameID
}

// Flow returns the submission flow for the given user and game, creating
// an idle one on first use.
func (m *Manager) Flow(userID string, game *games.Game) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := flowKey(userID, game.ID)
	if flow, ok := m.flows[key]; ok {
		return flow
	}

	flow := NewFlow(userID, game, m.evaluator, m.store, m.board, m.sink, m.logger)
	if m.notifier != nil {
		flow.SetNotifier(m.notifier)
	}
	m.flows[key] = flow
	return flow
}

// Lookup returns an existing flow without creating one
func (m *Manager) Lookup(userID, gameID string) (*Flow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow, ok := m.flows[flowKey(userID, gameID)]
	return flow, ok
}

// Drop removes a user's flow for a game, used on view teardown
func (m *Manager) Drop(userID, gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, flowKey(userID, gameID))
}
