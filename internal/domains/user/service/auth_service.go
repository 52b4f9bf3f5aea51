package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/domains/user/repository"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
	"storyforge-backend/pkg/cache"
	"storyforge-backend/pkg/jwt"
)

type userService struct {
	repo   repository.Repository
	tokens repository.TokenStore
	jwt    *jwt.Manager
	cache  cache.Cache
	opts   Options
	now    func() time.Time
}

func NewService(repo repository.Repository, tokens repository.TokenStore, jwtManager *jwt.Manager, c cache.Cache, opts Options) Service {
	return &userService{
		repo:   repo,
		tokens: tokens,
		jwt:    jwtManager,
		cache:  c,
		opts:   opts.withDefaults(),
		now:    time.Now,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Register(ctx context.Context, _ shared.Caller, req *model.RegisterRequest) (*model.AuthResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	req.Normalize()

	// 2. HASH PASSWORD
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	// 3. PERSIST (unique index quyết định email/username trùng)
	now := s.now()
	u := &model.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Preferences:  model.DefaultPreferences(),
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, mapRepoError(err)
	}

	log.Info().Str("user_id", u.ID.Hex()).Msg("User registered")

	// 4. ISSUE TOKENS
	return s.issueTokens(ctx, u)
}

func (s *userService) Login(ctx context.Context, _ shared.Caller, req *model.LoginRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	u, err := s.repo.FindByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Không tiết lộ email có tồn tại hay không
			return nil, apperror.Unauthorized(model.ErrInvalidCredentials.Error())
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized(model.ErrInvalidCredentials.Error())
	}

	now := s.now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
	if err := s.repo.Update(ctx, u, "last_login_at"); err != nil {
		// Không chặn login chỉ vì không ghi được last_login_at
		log.Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("Failed to record last login")
	}

	return s.issueTokens(ctx, u)
}

// RefreshToken rotate: refresh token cũ bị revoke, cặp token mới được cấp
func (s *userService) RefreshToken(ctx context.Context, _ shared.Caller, req *model.RefreshTokenRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperror.Unauthorized(model.ErrInvalidToken.Error())
	}

	active, err := s.tokens.IsRefreshTokenActive(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, apperror.Internal("failed to check refresh token", err)
	}
	if !active {
		return nil, apperror.Unauthorized(model.ErrInvalidToken.Error())
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized(model.ErrInvalidToken.Error())
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.tokens.RevokeRefreshToken(ctx, claims.UserID, claims.ID); err != nil {
		return nil, apperror.Internal("failed to rotate refresh token", err)
	}

	return s.issueTokens(ctx, u)
}

func (s *userService) Logout(ctx context.Context, caller shared.Caller, req *model.LogoutRequest) (*model.MessageResponse, error) {
	if _, err := access.UserID(caller); err != nil {
		return nil, err
	}

	if caller.TokenID != "" {
		if err := s.tokens.RevokeAccessToken(ctx, caller.TokenID, s.jwt.AccessTTL()); err != nil {
			return nil, apperror.Internal("failed to revoke access token", err)
		}
	}

	if req.RefreshToken != "" {
		claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
		if err == nil && claims.UserID == caller.UserID {
			if err := s.tokens.RevokeRefreshToken(ctx, claims.UserID, claims.ID); err != nil {
				return nil, apperror.Internal("failed to revoke refresh token", err)
			}
		}
	}

	return &model.MessageResponse{Message: "Logged out"}, nil
}

func (s *userService) ChangePassword(ctx context.Context, caller shared.Caller, req *model.ChangePasswordRequest) (*model.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}
	u, err := s.currentUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return nil, apperror.BadRequest(model.ErrWrongPassword.Error())
	}
	if req.CurrentPassword == req.NewPassword {
		return nil, apperror.BadRequest(model.ErrSamePassword.Error())
	}

	if err := s.setPassword(ctx, u, req.NewPassword); err != nil {
		return nil, err
	}
	return &model.MessageResponse{Message: "Password changed"}, nil
}

// ForgotPassword luôn trả cùng message để không lộ email nào đã đăng ký
func (s *userService) ForgotPassword(ctx context.Context, _ shared.Caller, req *model.ForgotPasswordRequest) (*model.ForgotPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	resp := &model.ForgotPasswordResponse{Message: "If the email exists, a reset link has been sent"}

	u, err := s.repo.FindByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return resp, nil
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	token := uuid.NewString()
	if err := s.tokens.SaveResetToken(ctx, token, u.ID.Hex(), s.opts.ResetTokenTTL); err != nil {
		return nil, apperror.Internal("failed to store reset token", err)
	}

	log.Info().Str("user_id", u.ID.Hex()).Msg("Password reset requested")

	if s.opts.Mailer != nil {
		// Lỗi enqueue không đổi response, tránh lộ email nào tồn tại
		err := s.opts.Mailer.EnqueueResetEmail(ctx, shared.ResetEmailPayload{
			Email:     u.Email,
			Username:  u.Username,
			Token:     token,
			ExpiresIn: s.opts.ResetTokenTTL.String(),
		})
		if err != nil {
			log.Warn().Err(err).Str("user_id", u.ID.Hex()).Msg("Failed to enqueue reset email")
		}
	}
	if s.opts.ExposeResetToken {
		resp.ResetToken = token
	}
	return resp, nil
}

func (s *userService) ResetPassword(ctx context.Context, _ shared.Caller, req *model.ResetPasswordRequest) (*model.MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.FromValidation(err)
	}

	userHex, err := s.tokens.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, model.ErrInvalidToken) {
			return nil, apperror.BadRequest(model.ErrInvalidToken.Error())
		}
		return nil, apperror.Internal("failed to read reset token", err)
	}

	userID, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		return nil, apperror.BadRequest(model.ErrInvalidToken.Error())
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.setPassword(ctx, u, req.NewPassword); err != nil {
		return nil, err
	}
	return &model.MessageResponse{Message: "Password has been reset"}, nil
}

// ========================================
// HELPERS
// ========================================

func (s *userService) issueTokens(ctx context.Context, u *model.User) (*model.AuthResponse, error) {
	userID := u.ID.Hex()

	accessToken, accessClaims, err := s.jwt.GenerateAccessToken(userID, u.Email, u.Username)
	if err != nil {
		return nil, apperror.Internal("failed to generate access token", err)
	}
	refresh, refreshClaims, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, apperror.Internal("failed to generate refresh token", err)
	}

	if err := s.tokens.SaveRefreshToken(ctx, userID, refreshClaims.ID, s.jwt.RefreshTTL()); err != nil {
		return nil, apperror.Internal("failed to store refresh token", err)
	}

	return &model.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Time,
		User:         u.ToResponse(),
	}, nil
}

func (s *userService) setPassword(ctx context.Context, u *model.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return apperror.Internal("failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u, "password_hash"); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func (s *userService) currentUser(ctx context.Context, caller shared.Caller) (*model.User, error) {
	userID, err := access.UserID(caller)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return apperror.NotFound("user", err)
	case errors.Is(err, model.ErrEmailAlreadyExists):
		return apperror.Conflict("email already registered", err)
	case errors.Is(err, model.ErrUsernameTaken):
		return apperror.Conflict("username already taken", err)
	}
	return apperror.Internal("user store failure", err)
}
