package models

import (
	"github.com/google/uuid"
)

// Choice направленное ребро графа повествования: SceneID -> NextSceneID.
// IsImplicit помечает автоматически построенный переход "следующая сцена по индексу".
type Choice struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SceneID     uuid.UUID `db:"scene_id" json:"sceneId"`
	NextSceneID uuid.UUID `db:"next_scene_id" json:"nextSceneId"`
	Text        string    `db:"text" json:"text"`
	IsImplicit  bool      `db:"is_implicit" json:"isImplicit"`
	Timestamps
}

func (c *Choice) GetID() uuid.UUID { return c.ID }
