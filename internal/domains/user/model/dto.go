package model

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	MinPasswordLength = 8
	// bcrypt bỏ qua byte thứ 73 trở đi
	MaxPasswordLength = 72
	MaxBioLength      = 1000
	MaxNameLength     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var passwordRules = []validation.Rule{validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)}

// =====================================================
// AUTH REQUEST DTOs
// =====================================================

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Username, validation.Required, validation.Match(usernamePattern).Error("must be 3-30 letters, digits or underscores")),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.FirstName, validation.Length(0, MaxNameLength)),
		validation.Field(&r.LastName, validation.Length(0, MaxNameLength)),
	)
}

// Normalize lowercase email, trim username
func (r *RegisterRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Username = strings.TrimSpace(r.Username)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type LogoutRequest struct {
	// RefreshToken tùy chọn; nếu có sẽ bị revoke cùng access token
	RefreshToken string `json:"refresh_token"`
}

func (r *LogoutRequest) Validate() error { return nil }

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
	)
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

// =====================================================
// PROFILE REQUEST DTOs
// =====================================================

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Match(usernamePattern).Error("must be 3-30 letters, digits or underscores")),
		validation.Field(&r.FirstName, validation.Length(0, MaxNameLength)),
		validation.Field(&r.LastName, validation.Length(0, MaxNameLength)),
		validation.Field(&r.Bio, validation.Length(0, MaxBioLength)),
		validation.Field(&r.AvatarURL, is.URL),
	)
}

// ApplyTo merge patch vào u, trả về các bson field đã đổi
func (r *UpdateProfileRequest) ApplyTo(u *User) []string {
	var changed []string
	if r.Username != nil {
		u.Username = strings.TrimSpace(*r.Username)
		changed = append(changed, "username")
	}
	if r.FirstName != nil {
		u.FirstName = *r.FirstName
		changed = append(changed, "first_name")
	}
	if r.LastName != nil {
		u.LastName = *r.LastName
		changed = append(changed, "last_name")
	}
	if r.Bio != nil {
		u.Bio = *r.Bio
		changed = append(changed, "bio")
	}
	if r.AvatarURL != nil {
		u.AvatarURL = *r.AvatarURL
		changed = append(changed, "avatar_url")
	}
	return changed
}

type NotificationPatch struct {
	Email         *bool `json:"email"`
	Push          *bool `json:"push"`
	Collaboration *bool `json:"collaboration"`
}

type UpdatePreferencesRequest struct {
	Theme         *Theme             `json:"theme"`
	FontSize      *int               `json:"font_size"`
	ReadingLevel  *ReadingLevel      `json:"reading_level"`
	Notifications *NotificationPatch `json:"notifications"`
}

func (r *UpdatePreferencesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Theme),
		validation.Field(&r.FontSize, validation.Min(MinFontSize), validation.Max(MaxFontSize)),
		validation.Field(&r.ReadingLevel),
	)
}

// ApplyTo merge patch vào preferences; trả về true nếu có thay đổi
func (r *UpdatePreferencesRequest) ApplyTo(p *Preferences) bool {
	changed := false
	if r.Theme != nil {
		p.Theme = *r.Theme
		changed = true
	}
	if r.FontSize != nil {
		p.FontSize = *r.FontSize
		changed = true
	}
	if r.ReadingLevel != nil {
		p.ReadingLevel = *r.ReadingLevel
		changed = true
	}
	if n := r.Notifications; n != nil {
		if n.Email != nil {
			p.Notifications.Email = *n.Email
			changed = true
		}
		if n.Push != nil {
			p.Notifications.Push = *n.Push
			changed = true
		}
		if n.Collaboration != nil {
			p.Notifications.Collaboration = *n.Collaboration
			changed = true
		}
	}
	return changed
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type UserResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Username    string      `json:"username"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Bio         string      `json:"bio"`
	AvatarURL   string      `json:"avatar_url"`
	Preferences Preferences `json:"preferences"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ToResponse không bao giờ expose password hash
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Preferences: u.Preferences,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ForgotPasswordResponse struct {
	Message string `json:"message"`
	// ResetToken chỉ trả về ở development (chưa có email delivery)
	ResetToken string `json:"reset_token,omitempty"`
}
