package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"saave-bot/internal/intake"
)

// Storage keeps intake sessions and per-chat quote counters.
type Storage struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Redis client
func New(addr, password string, db int, ttl time.Duration) *Storage {
	return &Storage{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     100,
			MinIdleConns: 10,
		}),
		ttl: ttl,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Storage) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

// SaveSession stores the session and refreshes its TTL.
func (s *Storage) SaveSession(ctx context.Context, chatID int64, session *intake.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, sessionKey(chatID), data, s.ttl).Err()
}

// GetSession returns the stored session, or nil when the chat has none or
// it expired.
func (s *Storage) GetSession(ctx context.Context, chatID int64) (*intake.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session intake.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *Storage) DropSession(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, sessionKey(chatID)).Err()
}

// AllowQuote counts one completed quotation for the chat and reports whether
// it is still within limit per window. The window starts at the first
// quotation. A counter found without a TTL is given one, so a lost EXPIRE
// never blocks a chat for good. A limit of zero disables the check.
func (s *Storage) AllowQuote(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	key := quotaKey(chatID)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return false, fmt.Errorf("incr quota: %w", err)
	}

	// -1 means the key exists without an expiry
	if ttl.Val() < 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("expire quota: %w", err)
		}
	}
	return incr.Val() <= int64(limit), nil
}

// ReleaseQuote gives back a slot taken by AllowQuote for a quotation that
// was never delivered.
func (s *Storage) ReleaseQuote(ctx context.Context, chatID int64) error {
	key := quotaKey(chatID)
	n, err := s.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	if n <= 0 {
		return s.client.Del(ctx, key).Err()
	}
	return nil
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

func quotaKey(chatID int64) string {
	return fmt.Sprintf("quota:%d", chatID)
}
