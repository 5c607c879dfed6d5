// Package postgres implements the Leaderboard Store. Entries are
// append-only: every submission inserts a new row and nothing updates a
// row in place, so a user can hold several spots and retried submissions
// may legitimately appear twice.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smarlify/playful-hub/internal/config"
	"github.com/smarlify/playful-hub/internal/domain"
)

// LeaderboardStore provides PostgreSQL-based leaderboard storage
type LeaderboardStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLeaderboardStore creates a new PostgreSQL leaderboard store
func NewLeaderboardStore(cfg *config.PostgresConfig, logger *slog.Logger) (*LeaderboardStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &LeaderboardStore{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (s *LeaderboardStore) Close() {
	s.pool.Close()
}

// Pool returns the underlying connection pool
func (s *LeaderboardStore) Pool() *pgxpool.Pool {
	return s.pool
}

// RunMigrations executes database migrations
func (s *LeaderboardStore) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS leaderboard_entries (
			id BIGSERIAL PRIMARY KEY,
			game_name VARCHAR(255) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(320),
			score BIGINT NOT NULL,
			level BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_entries_top
			ON leaderboard_entries(game_name, score DESC, created_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_leaderboard_entries_user
			ON leaderboard_entries(user_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := s.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	s.logger.Info("database migrations completed")
	return nil
}

// Submit appends a new leaderboard entry. Failures are propagated to the
// caller as a WriteError, never swallowed.
func (s *LeaderboardStore) Submit(ctx context.Context, entry domain.LeaderboardEntry) error {
	query := `
		INSERT INTO leaderboard_entries (game_name, user_id, name, email, score, level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var email any
	if entry.Email != "" {
		email = entry.Email
	}
	_, err := s.pool.Exec(ctx, query,
		entry.GameName,
		entry.UserID,
		entry.Name,
		email,
		entry.Score,
		entry.Level,
		entry.Timestamp,
	)
	if err != nil {
		return &domain.WriteError{Op: "submit entry", Err: err}
	}
	return nil
}

// TopScores returns up to limit entries for a game, highest score first.
// Ties break deterministically: earliest submission first, then row id.
// A game with no entries yields an empty slice, not an error.
func (s *LeaderboardStore) TopScores(ctx context.Context, gameName string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, &domain.ValidationError{
			Field:  "limit",
			Reason: "must be a positive integer",
		}
	}

	query := `
		SELECT id, game_name, user_id, name, COALESCE(email, ''), score, level, created_at
		FROM leaderboard_entries
		WHERE game_name = $1
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, gameName, limit)
	if err != nil {
		return nil, &domain.WriteError{Op: "query top scores", Err: err}
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var entry domain.LeaderboardEntry
		var id int64
		err := rows.Scan(
			&id,
			&entry.GameName,
			&entry.UserID,
			&entry.Name,
			&entry.Email,
			&entry.Score,
			&entry.Level,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, &domain.WriteError{Op: "scan entry", Err: err}
		}
		entry.ID = strconv.FormatInt(id, 10)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.WriteError{Op: "read top scores", Err: err}
	}
	return entries, nil
}

// EntryCount returns the number of entries stored for a game
func (s *LeaderboardStore) EntryCount(ctx context.Context, gameName string) (int64, error) {
	query := `SELECT COUNT(*) FROM leaderboard_entries WHERE game_name = $1`
	var count int64
	if err := s.pool.QueryRow(ctx, query, gameName).Scan(&count); err != nil {
		return 0, &domain.WriteError{Op: "count entries", Err: err}
	}
	return count, nil
}
