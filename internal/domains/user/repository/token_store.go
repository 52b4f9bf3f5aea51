package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyforge-backend/internal/domains/user/model"
	"storyforge-backend/pkg/cache"
)

// Redis key layout
const (
	refreshTokenKey = "auth:refresh:%s:%s" // userID, jti
	revokedTokenKey = "auth:revoked:%s"    // jti
	resetTokenKey   = "auth:reset:%s"      // token
)

type cacheTokenStore struct {
	cache cache.Cache
}

func NewTokenStore(c cache.Cache) TokenStore {
	return &cacheTokenStore{cache: c}
}

func (s *cacheTokenStore) SaveRefreshToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	return s.cache.Set(ctx, fmt.Sprintf(refreshTokenKey, userID, tokenID), true, ttl)
}

func (s *cacheTokenStore) IsRefreshTokenActive(ctx context.Context, userID, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, fmt.Sprintf(refreshTokenKey, userID, tokenID))
}

func (s *cacheTokenStore) RevokeRefreshToken(ctx context.Context, userID, tokenID string) error {
	return s.cache.Delete(ctx, fmt.Sprintf(refreshTokenKey, userID, tokenID))
}

// RevokeAccessToken đánh dấu jti đến hết thời hạn còn lại của token
func (s *cacheTokenStore) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, fmt.Sprintf(revokedTokenKey, tokenID), true, ttl)
}

func (s *cacheTokenStore) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, fmt.Sprintf(revokedTokenKey, tokenID))
}

func (s *cacheTokenStore) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.cache.Set(ctx, fmt.Sprintf(resetTokenKey, token), userID, ttl)
}

func (s *cacheTokenStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	var userID string
	if err := s.cache.Take(ctx, fmt.Sprintf(resetTokenKey, token), &userID); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", model.ErrInvalidToken
		}
		return "", err
	}
	return userID, nil
}
