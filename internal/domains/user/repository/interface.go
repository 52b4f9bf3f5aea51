package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/user/model"
)

type Repository interface {
	// Create trả về ErrEmailAlreadyExists / ErrUsernameTaken khi vi phạm unique index
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, u *model.User, fields ...string) error
}

// TokenStore giữ trạng thái token phía server trong Redis:
// refresh token đang active, access token đã logout, reset password token
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error
	IsRefreshTokenActive(ctx context.Context, userID, tokenID string) (bool, error)
	RevokeRefreshToken(ctx context.Context, userID, tokenID string) error

	RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeResetToken xóa token sau khi đọc (single use); ErrInvalidToken nếu không có
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}
