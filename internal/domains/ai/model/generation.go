package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "ai_generations"

type GenerationType string

const (
	TypeContent     GenerationType = "content"
	TypeCharacter   GenerationType = "character"
	TypePlot        GenerationType = "plot"
	TypeImage       GenerationType = "image"
	TypeDialogue    GenerationType = "dialogue"
	TypeDescription GenerationType = "description"
	TypeOther       GenerationType = "other"
)

var GenerationTypes = []GenerationType{
	TypeContent, TypeCharacter, TypePlot, TypeImage, TypeDialogue, TypeDescription, TypeOther,
}

// TextTypes là các type mà ai.generateContent nhận
var TextTypes = []GenerationType{TypeContent, TypeDialogue, TypeDescription, TypeOther}

func (t GenerationType) Values() []string { return shared.EnumStrings(GenerationTypes) }
func (t GenerationType) Validate() error  { return shared.OneOf(t, GenerationTypes) }

// Usage lưu chi phí của một lần gọi provider; cost là decimal string
type Usage struct {
	Provider         string `bson:"provider"`
	Model            string `bson:"model"`
	PromptTokens     int    `bson:"prompt_tokens"`
	CompletionTokens int    `bson:"completion_tokens"`
	TotalTokens      int    `bson:"total_tokens"`
	EstimatedCostUSD string `bson:"estimated_cost_usd"`
	LatencyMs        int64  `bson:"latency_ms"`
}

type Generation struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty"`
	ProjectID  primitive.ObjectID     `bson:"project_id"`
	UserID     primitive.ObjectID     `bson:"user_id"`
	Type       GenerationType         `bson:"type"`
	Prompt     string                 `bson:"prompt"`
	Parameters map[string]interface{} `bson:"parameters,omitempty"`
	Content    string                 `bson:"content"`
	// Structured là JSON đã parse của generation character/plot
	Structured   map[string]interface{} `bson:"structured,omitempty"`
	ImageURL     string                 `bson:"image_url,omitempty"`
	ThumbnailURL string                 `bson:"thumbnail_url,omitempty"`
	Usage        *Usage                 `bson:"usage,omitempty"`
	Saved        bool                   `bson:"saved"`
	ParentID     *primitive.ObjectID    `bson:"parent_id,omitempty"`
	CreatedAt    time.Time              `bson:"created_at"`
	UpdatedAt    time.Time              `bson:"updated_at"`
}
