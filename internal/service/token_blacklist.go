package service

import (
	"context"
	"time"

	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/pkg/cache"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
)

// TokenBlacklist revoked tokens. The table is authoritative; Redis, when
// reachable, answers reads without touching the database.
type TokenBlacklist interface {
	Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Cleanup(now time.Time) (int64, error)
}

type tokenBlacklist struct {
	repo  repository.TokenBlacklistRepository
	cache cache.Service
	now   func() time.Time
}

// NewTokenBlacklist creates a TokenBlacklist; cacheService may be nil
func NewTokenBlacklist(repo repository.TokenBlacklistRepository, cacheService cache.Service) TokenBlacklist {
	return &tokenBlacklist{repo: repo, cache: cacheService, now: time.Now}
}

func (b *tokenBlacklist) Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if !expiresAt.After(b.now()) {
		return nil
	}
	if err := b.repo.Add(&domain.TokenBlacklist{Token: token, UserID: userID, ExpiresAt: expiresAt}); err != nil {
		return err
	}
	if b.cacheAvailable() {
		if err := b.cache.RevokeToken(ctx, token, expiresAt); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Msg("redis blacklist write failed")
		}
	}
	return nil
}

func (b *tokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b.cacheAvailable() {
		revoked, err := b.cache.IsTokenRevoked(ctx, token)
		if err == nil {
			return revoked, nil
		}
		pkglogger.GetLogger().Warn().Err(err).Msg("redis blacklist read failed, using database")
	}
	return b.repo.Exists(token, b.now())
}

func (b *tokenBlacklist) Cleanup(now time.Time) (int64, error) {
	return b.repo.DeleteExpired(now)
}

func (b *tokenBlacklist) cacheAvailable() bool {
	return b.cache != nil && b.cache.IsAvailable()
}
