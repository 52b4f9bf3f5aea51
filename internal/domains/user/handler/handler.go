package handler

import (
	"net/http"

	"storyforge-backend/internal/domains/user/service"
	"storyforge-backend/internal/transport/procedure"
)

// Handler khai báo auth.* và user.* procedures
type Handler struct {
	svc service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Procedures() []*procedure.Procedure {
	return []*procedure.Procedure{
		// ========================================
		// AUTH
		// ========================================
		procedure.NewMutation("auth.register", h.svc.Register).
			REST(http.MethodPost, "/auth/register").WithStatus(http.StatusCreated).
			AllowAnonymous().Unbatched().
			Describe("Register a new account and receive tokens"),
		procedure.NewMutation("auth.login", h.svc.Login).
			REST(http.MethodPost, "/auth/login").
			AllowAnonymous().Unbatched().
			Describe("Log in with email and password"),
		procedure.NewQuery("auth.getProfile", h.svc.GetProfile).
			REST(http.MethodGet, "/auth/me").
			Describe("Current user's profile"),
		procedure.NewMutation("auth.refreshToken", h.svc.RefreshToken).
			REST(http.MethodPost, "/auth/refresh").
			AllowAnonymous().Unbatched().
			Describe("Rotate a refresh token into a new token pair"),
		procedure.NewMutation("auth.changePassword", h.svc.ChangePassword).
			REST(http.MethodPost, "/auth/change-password").
			Describe("Change password of the current user"),
		procedure.NewMutation("auth.forgotPassword", h.svc.ForgotPassword).
			REST(http.MethodPost, "/auth/forgot-password").
			AllowAnonymous().Unbatched().
			Describe("Request a single-use password reset token"),
		procedure.NewMutation("auth.resetPassword", h.svc.ResetPassword).
			REST(http.MethodPost, "/auth/reset-password").
			AllowAnonymous().Unbatched().
			Describe("Reset password with a reset token"),
		procedure.NewMutation("auth.logout", h.svc.Logout).
			REST(http.MethodPost, "/auth/logout").
			Describe("Revoke the current access token and optionally a refresh token"),

		// ========================================
		// USER
		// ========================================
		procedure.NewQuery("user.getProfile", h.svc.GetProfile).
			REST(http.MethodGet, "/users/me"),
		procedure.NewMutation("user.updateProfile", h.svc.UpdateProfile).
			REST(http.MethodPatch, "/users/me"),
		procedure.NewMutation("user.changePassword", h.svc.ChangePassword).
			REST(http.MethodPut, "/users/me/password"),
		procedure.NewQuery("user.getPreferences", h.svc.GetPreferences).
			REST(http.MethodGet, "/users/me/preferences"),
		procedure.NewMutation("user.updatePreferences", h.svc.UpdatePreferences).
			REST(http.MethodPatch, "/users/me/preferences"),
	}
}
