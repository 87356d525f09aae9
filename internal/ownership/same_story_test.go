package ownership

import (
	"context"
	"testing"

	"story-organizer/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_RequireSameStory(t *testing.T) {
	ctx := context.Background()

	t.Run("Character and moment of the same story", func(t *testing.T) {
		f := newFixture(t)
		story, err := f.checker.RequireSameStory(ctx,
			models.NewRef(models.KindCharacter, f.ch1.ID), models.NewRef(models.KindMoment, f.m1.ID), f.u1)
		require.NoError(t, err)
		assert.Equal(t, f.s1.ID, story.ID)
	})

	t.Run("Character moved to another story of the same user", func(t *testing.T) {
		f := newFixture(t)
		s3 := &models.Story{ID: models.NewID(), UserID: f.u1, Title: "S3", Type: models.StoryTypeLinear}
		require.NoError(t, f.mem.Stories.Save(ctx, s3))
		moved := *f.ch1
		moved.StoryID = s3.ID
		require.NoError(t, f.mem.Characters.Update(ctx, &moved))

		_, err := f.checker.RequireSameStory(ctx,
			models.NewRef(models.KindCharacter, f.ch1.ID), models.NewRef(models.KindMoment, f.m1.ID), f.u1)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrCrossStoryAssociation)
		assert.EqualError(t, err, "Character and Moment must belong to the same story")

		_, err = f.checker.RequireSameStory(ctx,
			models.NewRef(models.KindMoment, f.m1.ID), models.NewRef(models.KindCharacter, f.ch1.ID), f.u1)
		assert.ErrorIs(t, err, models.ErrCrossStoryAssociation)
		assert.EqualError(t, err, "Moment and Character must belong to the same story")
	})

	t.Run("Symmetric outcomes", func(t *testing.T) {
		f := newFixture(t)
		foreign := &models.Character{ID: models.NewID(), StoryID: f.s2.ID, Name: "Foreign"}
		require.NoError(t, f.mem.Characters.Save(ctx, foreign))

		pairs := [][2]models.Ref{
			{models.NewRef(models.KindCharacter, f.ch1.ID), models.NewRef(models.KindMoment, f.m1.ID)},
			{models.NewRef(models.KindCharacter, foreign.ID), models.NewRef(models.KindMoment, f.m1.ID)},
			{models.NewRef(models.KindScene, f.sc1.ID), models.NewRef(models.KindLocation, models.NewID())},
			{models.NewRef(models.KindCharacter, f.ch1.ID), models.NewRef(models.KindCharacter, f.ch1.ID)},
		}
		for _, p := range pairs {
			_, errAB := f.checker.RequireSameStory(ctx, p[0], p[1], f.u1)
			_, errBA := f.checker.RequireSameStory(ctx, p[1], p[0], f.u1)
			assert.Equal(t, errAB == nil, errBA == nil, "pair %s %s", p[0], p[1])
		}
	})

	t.Run("Both sides are resolved and the first failure wins", func(t *testing.T) {
		f := newFixture(t)
		missingMoment := models.NewRef(models.KindMoment, models.NewID())
		missingCharacter := models.NewRef(models.KindCharacter, models.NewID())

		_, err := f.checker.RequireSameStory(ctx, missingCharacter, missingMoment, f.u1)
		assert.EqualError(t, err, "Character not found")
		assert.Equal(t, []models.EntityKind{models.KindCharacter, models.KindMoment}, f.lookups)

		f.resetLookups()
		_, err = f.checker.RequireSameStory(ctx, missingMoment, missingCharacter, f.u1)
		assert.EqualError(t, err, "Moment not found")
	})

	t.Run("Unowned side reports not owned", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checker.RequireSameStory(ctx,
			models.NewRef(models.KindCharacter, f.ch1.ID), models.NewRef(models.KindMoment, f.m1.ID), f.u2)
		assert.ErrorIs(t, err, models.ErrStoryNotOwned)
	})
}
