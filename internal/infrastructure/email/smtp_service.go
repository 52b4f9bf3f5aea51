package email

// internal/infrastructure/email/smtp_service.go
import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"
)

type EmailService interface {
	SendResetPasswordEmail(ctx context.Context, data ResetPasswordData) error
}

// sendFunc cùng chữ ký với smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
	send     sendFunc
}

// NewSMTPService gửi mail không auth, đủ cho Mailpit/MailHog ở local
func NewSMTPService(host, port, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: host + ":" + port,
		smtpFrom: from,
		send:     smtp.SendMail,
	}
}

// RenderResetPassword dựng subject + body cho reset password email
func RenderResetPassword(data ResetPasswordData) Message {
	name := data.Username
	if name == "" {
		name = "bạn"
	}
	body := fmt.Sprintf(`Chào %s,

Ai đó (hy vọng là bạn) vừa yêu cầu đặt lại mật khẩu StoryForge.
Dùng token sau để đặt lại mật khẩu:

%s

Token có hiệu lực trong %s và chỉ dùng được một lần.

Nếu bạn không yêu cầu, hãy bỏ qua email này.`, name, data.Token, data.ExpiresIn)

	return Message{To: data.Email, Subject: "Đặt lại mật khẩu StoryForge", Body: body}
}

func (s *smtpEmailService) SendResetPasswordEmail(ctx context.Context, data ResetPasswordData) error {
	msg := RenderResetPassword(data)
	raw := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.smtpFrom, msg.To, msg.Subject, msg.Body))

	if err := s.send(s.smtpAddr, nil, s.smtpFrom, []string{msg.To}, raw); err != nil {
		log.Warn().
			Err(err).
			Str("smtp_addr", s.smtpAddr).
			Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
