package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
)

const profileCacheKey = "user:profile:%s"

// ========================================
// PROFILE
// ========================================

// GetProfile đọc qua cache; cache lỗi thì fallback về store
func (s *userService) GetProfile(ctx context.Context, caller shared.Caller, _ *shared.Empty) (*model.UserResponse, error) {
	if !caller.IsAuthenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}

	key := fmt.Sprintf(profileCacheKey, caller.UserID)
	var cached model.UserResponse
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Profile cache read failed")
	} else if found {
		return &cached, nil
	}

	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	resp := u.ToResponse()
	if err := s.cache.Set(ctx, key, resp, s.opts.ProfileCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Profile cache write failed")
	}
	return resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, caller shared.Caller, req *model.UpdateProfileRequest) (*model.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	changed := req.ApplyTo(u)
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u, changed...); err != nil {
		return nil, mapRepoError(err)
	}

	s.invalidateProfile(ctx, caller.UserID)
	return u.ToResponse(), nil
}

func (s *userService) GetPreferences(ctx context.Context, caller shared.Caller, _ *shared.Empty) (*model.Preferences, error) {
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}
	prefs := u.Preferences
	return &prefs, nil
}

func (s *userService) UpdatePreferences(ctx context.Context, caller shared.Caller, req *model.UpdatePreferencesRequest) (*model.Preferences, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	if req.ApplyTo(&u.Preferences) {
		u.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, u, "preferences"); err != nil {
			return nil, mapRepoError(err)
		}
		s.invalidateProfile(ctx, caller.UserID)
	}

	prefs := u.Preferences
	return &prefs, nil
}

func (s *userService) invalidateProfile(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, fmt.Sprintf(profileCacheKey, userID)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Profile cache invalidation failed")
	}
}
