package email

// ResetPasswordData là nội dung của password reset email
type ResetPasswordData struct {
	Email     string
	Username  string
	Token     string
	ExpiresIn string
}

// Message là một email plain text đã render
type Message struct {
	To      string
	Subject string
	Body    string
}
