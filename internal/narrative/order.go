package narrative

import (
	"sort"

	"story-organizer/shared/models"
)

func sortChoices(choices []*models.Choice) {
	sort.SliceStable(choices, func(i, j int) bool {
		return models.CompareIDs(choices[i].ID, choices[j].ID) < 0
	})
}
