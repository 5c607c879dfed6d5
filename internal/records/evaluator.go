// Package records decides whether a score is a personal best.
package records

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smarlify/playful-hub/internal/domain"
)

// Evaluator compares incoming scores against stored personal records
type Evaluator struct {
	store  domain.RecordStore
	logger *slog.Logger
}

// NewEvaluator creates a new evaluator backed by the given record store
func NewEvaluator(store domain.RecordStore, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		logger: logger,
	}
}

// IsPersonalRecord reports whether score beats the user's stored best for
// the game. A user with no stored record at all, or none for this game,
// always sets a record; ties never do.
//
// The check is advisory: a read failure must not block gameplay, but it
// also must not trigger a submission prompt on a transient error. Errors
// therefore resolve to false (fail closed) and are only logged.
func (e *Evaluator) IsPersonalRecord(ctx context.Context, userID, gameName string, score int64) bool {
	record, err := e.store.PersonalRecord(ctx, userID, gameName)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return true
		}
		e.logger.Warn("personal record check failed, treating as no record",
			"user_id", userID,
			"game", gameName,
			"error", err,
		)
		return false
	}

	return score > record.Score
}
