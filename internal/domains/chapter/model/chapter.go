package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "chapters"

type Status string

const (
	StatusDraft       Status = "draft"
	StatusRevised     Status = "revised"
	StatusFinal       Status = "final"
	StatusNeedsReview Status = "needs_review"
)

var Statuses = []Status{StatusDraft, StatusRevised, StatusFinal, StatusNeedsReview}

func (s Status) Values() []string { return shared.EnumStrings(Statuses) }
func (s Status) Validate() error  { return shared.OneOf(s, Statuses) }

// Edit là một dòng lịch sử chỉnh sửa, chỉ append
type Edit struct {
	Timestamp time.Time          `bson:"timestamp"`
	EditorID  primitive.ObjectID `bson:"editor_id"`
	Note      string             `bson:"note"`
}

type Chapter struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	ProjectID    primitive.ObjectID   `bson:"project_id"`
	Title        string               `bson:"title"`
	Position     int                  `bson:"position"`
	Synopsis     string               `bson:"synopsis"`
	Content      string               `bson:"content"`
	Status       Status               `bson:"status"`
	WordCount    int                  `bson:"word_count"`
	CharacterIDs []primitive.ObjectID `bson:"character_ids"`
	SettingIDs   []primitive.ObjectID `bson:"setting_ids"`
	PlotIDs      []primitive.ObjectID `bson:"plot_ids"`
	ObjectIDs    []primitive.ObjectID `bson:"object_ids"`
	Edits        []Edit               `bson:"edits"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

// CountWords đếm token không rỗng phân tách bởi whitespace
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// SetContent gán content và tính lại word_count
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.WordCount = CountWords(content)
}
