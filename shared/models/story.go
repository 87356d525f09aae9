package models

import (
	"github.com/google/uuid"
)

// StoryType определяет структуру повествования.
type StoryType string

const (
	StoryTypeLinear    StoryType = "linear"
	StoryTypeBranching StoryType = "branching"
)

// Valid проверяет, что тип истории известен.
func (t StoryType) Valid() bool {
	return t == StoryTypeLinear || t == StoryTypeBranching
}

// Story принадлежит пользователю и является вершиной цепочки владения для всего контента.
type Story struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"userId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Type        StoryType `db:"story_type" json:"type"`
	Timestamps
}

func (s *Story) GetID() uuid.UUID { return s.ID }

// Chapter глава истории. Index задает порядок глав и не проверяется на уникальность.
type Chapter struct {
	ID      uuid.UUID `db:"id" json:"id"`
	StoryID uuid.UUID `db:"story_id" json:"storyId"`
	Title   string    `db:"title" json:"title"`
	Index   int       `db:"idx" json:"index"`
	Timestamps
}

func (c *Chapter) GetID() uuid.UUID { return c.ID }

// Scene сцена внутри главы; узел графа повествования.
type Scene struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ChapterID  uuid.UUID  `db:"chapter_id" json:"chapterId"`
	LocationID *uuid.UUID `db:"location_id" json:"locationId,omitempty"`
	Title      string     `db:"title" json:"title"`
	Summary    string     `db:"summary" json:"summary"`
	Index      int        `db:"idx" json:"index"`
	Timestamps
}

func (s *Scene) GetID() uuid.UUID { return s.ID }

// Moment момент внутри сцены.
type Moment struct {
	ID      uuid.UUID `db:"id" json:"id"`
	SceneID uuid.UUID `db:"scene_id" json:"sceneId"`
	Title   string    `db:"title" json:"title"`
	Content string    `db:"content" json:"content"`
	Index   int       `db:"idx" json:"index"`
	Timestamps
}

func (m *Moment) GetID() uuid.UUID { return m.ID }
