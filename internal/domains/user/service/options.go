package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storyforge-backend/internal/shared"
)

// ResetMailer enqueue password reset email (asynq task, worker gửi SMTP)
type ResetMailer interface {
	EnqueueResetEmail(ctx context.Context, payload shared.ResetEmailPayload) error
}

type Options struct {
	ResetTokenTTL   time.Duration
	ProfileCacheTTL time.Duration
	// ExposeResetToken trả reset token trong response (development)
	ExposeResetToken bool
	BcryptCost       int
	// Mailer nil = không gửi email, chỉ lưu token
	Mailer ResetMailer
}

func (o Options) withDefaults() Options {
	if o.ResetTokenTTL <= 0 {
		o.ResetTokenTTL = 30 * time.Minute
	}
	if o.ProfileCacheTTL <= 0 {
		o.ProfileCacheTTL = 5 * time.Minute
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}
