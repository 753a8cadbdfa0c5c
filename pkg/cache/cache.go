// Package cache keeps the Redis-side copies the forum reads on hot paths:
// the rendered category tree and revoked bearer tokens.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "forum:"
	categoryPrefix  = keyPrefix + "categories:"
	categoryTreeKey = categoryPrefix + "tree"
	revokedPrefix   = keyPrefix + "revoked:"

	// CategoryTreeTTL bounds staleness when an invalidation is lost
	CategoryTreeTTL = 10 * time.Minute
)

// ErrUnavailable is returned by reads when no Redis client is configured
var ErrUnavailable = errors.New("cache: redis not configured")

// Service is safe to use with a nil client: writes are skipped and reads
// return ErrUnavailable so callers fall through to the database.
type Service interface {
	GetCategoryTree(ctx context.Context, dest interface{}) error
	SetCategoryTree(ctx context.Context, tree interface{}) error
	InvalidateCategories(ctx context.Context) error

	RevokeToken(ctx context.Context, token string, until time.Time) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisService struct {
	client *redis.Client
}

// NewService wraps client, which may be nil
func NewService(client *redis.Client) Service {
	return &redisService{client: client}
}

func (s *redisService) IsAvailable() bool { return s.client != nil }

func (s *redisService) Ping(ctx context.Context) error {
	if s.client == nil {
		return ErrUnavailable
	}
	return s.client.Ping(ctx).Err()
}

func (s *redisService) GetCategoryTree(ctx context.Context, dest interface{}) error {
	if s.client == nil {
		return ErrUnavailable
	}
	raw, err := s.client.Get(ctx, categoryTreeKey).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *redisService) SetCategoryTree(ctx context.Context, tree interface{}) error {
	if s.client == nil {
		return nil
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, categoryTreeKey, raw, CategoryTreeTTL).Err()
}

// InvalidateCategories drops every cached category view
func (s *redisService) InvalidateCategories(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, categoryPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// RevokeToken marks token as revoked until its own expiry. Tokens already
// past until are ignored.
func (s *redisService) RevokeToken(ctx context.Context, token string, until time.Time) error {
	if s.client == nil {
		return ErrUnavailable
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedPrefix+token, 1, ttl).Err()
}

func (s *redisService) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	if s.client == nil {
		return false, ErrUnavailable
	}
	n, err := s.client.Exists(ctx, revokedPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
