package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "users"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

func (t Theme) Values() []string { return shared.EnumStrings(Themes) }
func (t Theme) Validate() error  { return shared.OneOf(t, Themes) }

type ReadingLevel string

const (
	ReadingBeginner     ReadingLevel = "beginner"
	ReadingIntermediate ReadingLevel = "intermediate"
	ReadingAdvanced     ReadingLevel = "advanced"
)

var ReadingLevels = []ReadingLevel{ReadingBeginner, ReadingIntermediate, ReadingAdvanced}

func (r ReadingLevel) Values() []string { return shared.EnumStrings(ReadingLevels) }
func (r ReadingLevel) Validate() error  { return shared.OneOf(r, ReadingLevels) }

const (
	MinFontSize     = 10
	MaxFontSize     = 32
	DefaultFontSize = 16
)

type NotificationPreferences struct {
	Email         bool `bson:"email" json:"email"`
	Push          bool `bson:"push" json:"push"`
	Collaboration bool `bson:"collaboration" json:"collaboration"`
}

type Preferences struct {
	Theme         Theme                   `bson:"theme" json:"theme"`
	FontSize      int                     `bson:"font_size" json:"font_size"`
	ReadingLevel  ReadingLevel            `bson:"reading_level" json:"reading_level"`
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeSystem,
		FontSize:      DefaultFontSize,
		ReadingLevel:  ReadingIntermediate,
		Notifications: NotificationPreferences{Email: true, Push: true, Collaboration: true},
	}
}

// User không bao giờ bị hard delete
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Bio          string             `bson:"bio"`
	AvatarURL    string             `bson:"avatar_url"`
	Preferences  Preferences        `bson:"preferences"`
	LastLoginAt  *time.Time         `bson:"last_login_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}
