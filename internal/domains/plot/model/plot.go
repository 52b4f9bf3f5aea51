package model

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/shared"
)

const CollectionName = "plots"

type StructureType string

const (
	StructureThreeAct     StructureType = "three_act"
	StructureHerosJourney StructureType = "heros_journey"
	StructureSaveTheCat   StructureType = "save_the_cat"
	StructureCustom       StructureType = "custom"
)

var StructureTypes = []StructureType{StructureThreeAct, StructureHerosJourney, StructureSaveTheCat, StructureCustom}

func (s StructureType) Values() []string { return shared.EnumStrings(StructureTypes) }
func (s StructureType) Validate() error  { return shared.OneOf(s, StructureTypes) }

type ElementType string

const (
	ElementExposition       ElementType = "exposition"
	ElementIncitingIncident ElementType = "inciting_incident"
	ElementRisingAction     ElementType = "rising_action"
	ElementClimax           ElementType = "climax"
	ElementFallingAction    ElementType = "falling_action"
	ElementResolution       ElementType = "resolution"
	ElementPlotTwist        ElementType = "plot_twist"
	ElementSubplot          ElementType = "subplot"
	ElementOther            ElementType = "other"
)

var ElementTypes = []ElementType{
	ElementExposition, ElementIncitingIncident, ElementRisingAction, ElementClimax,
	ElementFallingAction, ElementResolution, ElementPlotTwist, ElementSubplot, ElementOther,
}

func (e ElementType) Values() []string { return shared.EnumStrings(ElementTypes) }
func (e ElementType) Validate() error  { return shared.OneOf(e, ElementTypes) }

// Element là một plot point; ID là uuid vì element không có collection riêng
type Element struct {
	ID           string               `bson:"id"`
	Type         ElementType          `bson:"type"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Order        int                  `bson:"order"`
	ChapterID    *primitive.ObjectID  `bson:"chapter_id,omitempty"`
	CharacterIDs []primitive.ObjectID `bson:"character_ids"`
	SettingIDs   []primitive.ObjectID `bson:"setting_ids"`
	ObjectIDs    []primitive.ObjectID `bson:"object_ids"`
}

type Plot struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ProjectID     primitive.ObjectID `bson:"project_id"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	StructureType StructureType      `bson:"structure_type"`
	Elements      []Element          `bson:"elements"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

// SortElements giữ elements theo order; cùng order thì giữ thứ tự cũ
func (p *Plot) SortElements() {
	sort.SliceStable(p.Elements, func(i, j int) bool { return p.Elements[i].Order < p.Elements[j].Order })
}

func (p *Plot) Element(id string) (int, *Element) {
	for i := range p.Elements {
		if p.Elements[i].ID == id {
			return i, &p.Elements[i]
		}
	}
	return -1, nil
}

// NextOrder là order cho element append vào cuối
func (p *Plot) NextOrder() int {
	next := 0
	for _, e := range p.Elements {
		if e.Order >= next {
			next = e.Order + 1
		}
	}
	return next
}
