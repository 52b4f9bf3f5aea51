// internal/infrastructure/email/job/email_handler.go
package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"storyforge-backend/internal/infrastructure/email"
	"storyforge-backend/internal/shared"
)

// ============================================
// Reset Password Email Handler
// ============================================

type ResetPasswordEmailHandler struct {
	emailService email.EmailService
}

func NewResetPasswordEmailHandler(emailService email.EmailService) *ResetPasswordEmailHandler {
	return &ResetPasswordEmailHandler{
		emailService: emailService,
	}
}

func (h *ResetPasswordEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ResetEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ResetPasswordEmail payload")
		// payload hỏng thì retry cũng vô ích
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" || payload.Token == "" {
		return fmt.Errorf("incomplete reset email payload: %w", asynq.SkipRetry)
	}

	log.Info().
		Str("email", payload.Email).
		Msg("Processing reset password email")

	err := h.emailService.SendResetPasswordEmail(ctx, email.ResetPasswordData{
		Email:     payload.Email,
		Username:  payload.Username,
		Token:     payload.Token,
		ExpiresIn: payload.ExpiresIn,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send reset password email")
		return fmt.Errorf("send reset password email: %w", err)
	}

	log.Info().
		Str("email", payload.Email).
		Msg("Reset password email sent successfully")

	return nil
}
