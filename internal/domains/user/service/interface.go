package service

import (
	"context"

	"storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/shared"
)

// Service gom auth và profile operations của user domain
type Service interface {
	// Auth
	Register(ctx context.Context, caller shared.Caller, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, caller shared.Caller, req *model.LoginRequest) (*model.AuthResponse, error)
	RefreshToken(ctx context.Context, caller shared.Caller, req *model.RefreshTokenRequest) (*model.AuthResponse, error)
	Logout(ctx context.Context, caller shared.Caller, req *model.LogoutRequest) (*model.MessageResponse, error)
	ChangePassword(ctx context.Context, caller shared.Caller, req *model.ChangePasswordRequest) (*model.MessageResponse, error)
	ForgotPassword(ctx context.Context, caller shared.Caller, req *model.ForgotPasswordRequest) (*model.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, caller shared.Caller, req *model.ResetPasswordRequest) (*model.MessageResponse, error)

	// Profile
	GetProfile(ctx context.Context, caller shared.Caller, req *shared.Empty) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, caller shared.Caller, req *model.UpdateProfileRequest) (*model.UserResponse, error)
	GetPreferences(ctx context.Context, caller shared.Caller, req *shared.Empty) (*model.Preferences, error)
	UpdatePreferences(ctx context.Context, caller shared.Caller, req *model.UpdatePreferencesRequest) (*model.Preferences, error)
}
