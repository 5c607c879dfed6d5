// Package channel is the inbound boundary for cross-context messages from
// embedded game surfaces. Any page can post arbitrary messages here, so
// everything is untrusted: messages are dropped unless their declared
// origin matches the active game's origin and the payload has the expected
// shape. Rejected messages are noise, not faults.
package channel

import (
	"encoding/json"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/smarlify/playful-hub/internal/domain"
)

// TypeGameOver is the only message type the hub acts on
const TypeGameOver = "GAME_OVER"

// Handler receives validated score events
type Handler func(event domain.ScoreEvent)

// gameMessage is the raw wire shape. Score and Level are pointers so a
// missing field is distinguishable from zero; a non-numeric value fails
// unmarshaling and the message is dropped.
type gameMessage struct {
	Type  string   `json:"type"`
	Score *float64 `json:"score"`
	Level *float64 `json:"level"`
}

// Listener validates messages for one game view and forwards well-formed
// GAME_OVER events to its handler. It is bound to a single expected origin
// for the lifetime of the view.
type Listener struct {
	origin   string
	handler  Handler
	logger   *slog.Logger
	detached atomic.Bool
}

// NewListener creates a listener bound to the given game origin
func NewListener(origin string, handler Handler, logger *slog.Logger) *Listener {
	return &Listener{
		origin:  origin,
		handler: handler,
		logger:  logger,
	}
}

// Receive processes one incoming message. Origin mismatches and malformed
// payloads are silently dropped; they must never crash the host page or
// reach the handler.
func (l *Listener) Receive(origin string, payload []byte) {
	if l.detached.Load() {
		return
	}

	if origin != l.origin {
		l.logger.Debug("dropping message from unexpected origin",
			"origin", origin,
			"expected", l.origin,
		)
		return
	}

	var msg gameMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Debug("dropping malformed game message", "error", err)
		return
	}

	if msg.Type != TypeGameOver {
		return
	}

	if msg.Score == nil || !validNumber(*msg.Score) {
		l.logger.Debug("dropping game over message without a valid score")
		return
	}

	event := domain.ScoreEvent{Score: int64(*msg.Score)}
	if msg.Level != nil && validNumber(*msg.Level) {
		level := int64(*msg.Level)
		event.Level = &level
	}

	if l.detached.Load() {
		return
	}
	l.handler(event)
}

// Detach stops the listener. No handler invocation happens after Detach
// returns, even if the game frame keeps delivering messages.
func (l *Listener) Detach() {
	l.detached.Store(true)
}

func validNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
