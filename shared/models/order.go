package models

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// Indexed сущность с авторским порядком (index). Уникальность и непрерывность index не проверяются.
type Indexed interface {
	GetID() uuid.UUID
	GetIndex() int
}

func (c *Chapter) GetIndex() int { return c.Index }
func (s *Scene) GetIndex() int   { return s.Index }
func (m *Moment) GetIndex() int  { return m.Index }

// SortByIndex упорядочивает по index, равные index - по id.
func SortByIndex[T Indexed](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		if a, b := items[i].GetIndex(), items[j].GetIndex(); a != b {
			return a < b
		}
		return CompareIDs(items[i].GetID(), items[j].GetID()) < 0
	})
}

// CompareIDs сравнивает идентификаторы побайтно (для UUIDv7 это порядок создания).
func CompareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
