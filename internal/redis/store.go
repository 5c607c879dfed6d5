// Package redis implements the Record Store on Redis. Each user owns one
// record hash with a field per game, so upserting a game's record can
// never clobber another game's, and one profile hash.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smarlify/playful-hub/internal/config"
	"github.com/smarlify/playful-hub/internal/domain"
)

// RecordStore provides Redis-based personal record and profile storage
type RecordStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRecordStore creates a new Redis record store
func NewRecordStore(cfg *config.RedisConfig, logger *slog.Logger) (*RecordStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RecordStore{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *RecordStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *RecordStore) Client() *redis.Client {
	return s.client
}

// recordsKey returns the key of a user's personal record hash
func (s *RecordStore) recordsKey(userID string) string {
	return fmt.Sprintf("records:%s", userID)
}

// profileKey returns the key of a user's profile hash
func (s *RecordStore) profileKey(userID string) string {
	return fmt.Sprintf("profiles:%s", userID)
}

// PersonalRecord loads the user's stored best for one game. It returns
// domain.ErrRecordNotFound both when the user has no record hash at all
// and when the hash has no field for this game.
func (s *RecordStore) PersonalRecord(ctx context.Context, userID, gameName string) (*domain.PersonalRecord, error) {
	raw, err := s.client.HGet(ctx, s.recordsKey(userID), gameName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrRecordNotFound
		}
		return nil, &domain.StoreError{Op: "get personal record", Err: err}
	}

	var record domain.PersonalRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, &domain.StoreError{Op: "decode personal record", Err: err}
	}
	return &record, nil
}

// UpsertPersonalRecord overwrites the user's record for one game. Writing
// a single hash field merges into the user's record map and leaves records
// for other games untouched.
func (s *RecordStore) UpsertPersonalRecord(ctx context.Context, userID string, record domain.PersonalRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return &domain.StoreError{Op: "encode personal record", Err: err}
	}

	if err := s.client.HSet(ctx, s.recordsKey(userID), record.GameName, raw).Err(); err != nil {
		return &domain.StoreError{Op: "upsert personal record", Err: err}
	}
	return nil
}

// UserProfile loads the user's profile
func (s *RecordStore) UserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	result, err := s.client.HGetAll(ctx, s.profileKey(userID)).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "get user profile", Err: err}
	}
	if len(result) == 0 {
		return nil, domain.ErrProfileNotFound
	}

	profile := &domain.UserProfile{
		Name:  result["name"],
		Email: result["email"],
	}
	if raw, ok := result["updated_at"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			profile.UpdatedAt = ts
		}
	}
	return profile, nil
}

// UpsertUserProfile stores the user's display name and optional email
func (s *RecordStore) UpsertUserProfile(ctx context.Context, userID, name, email string) error {
	err := s.client.HSet(ctx, s.profileKey(userID),
		"name", name,
		"email", email,
		"updated_at", time.Now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return &domain.StoreError{Op: "upsert user profile", Err: err}
	}
	return nil
}
