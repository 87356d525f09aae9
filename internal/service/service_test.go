package service

import (
	"context"
	"errors"
	"testing"

	"story-organizer/internal/batch"
	"story-organizer/shared/database/memory"
	"story-organizer/shared/interfaces"
	"story-organizer/shared/interfaces/mocks"
	"story-organizer/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc       *Service
	mem       *memory.Stores
	publisher *mocks.ContentEventPublisher

	u1, u2 uuid.UUID
	s1     *models.Story
	c1     *models.Chapter
	sc1    *models.Scene
	m1     *models.Moment
	ch1    *models.Character
}

// newTestEnv: U1 владеет S1 -> C1 -> Sc1 -> M1, персонаж Ch1 в S1.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	publisher := new(mocks.ContentEventPublisher)
	publisher.On("PublishContentEvent", mock.Anything, mock.Anything).Return(nil)

	mem := memory.NewStores()
	env := &testEnv{
		mem:       mem,
		publisher: publisher,
		u1:        models.NewID(),
		u2:        models.NewID(),
		svc: New(Deps{
			Stores:      mem.Interfaces(),
			Coordinator: batch.NewCoordinator(batch.Config{}, nil, zap.NewNop()),
			Publisher:   publisher,
			Logger:      zap.NewNop(),
		}),
	}

	var err error
	env.s1, err = env.svc.CreateStory(ctx, env.u1, models.CreateStoryInput{Title: "S1"})
	require.NoError(t, err)
	env.c1, err = env.svc.CreateChapter(ctx, env.u1, models.CreateChapterInput{StoryID: env.s1.ID, Title: "C1"})
	require.NoError(t, err)
	env.sc1, err = env.svc.CreateScene(ctx, env.u1, models.CreateSceneInput{ChapterID: env.c1.ID, Title: "Sc1"})
	require.NoError(t, err)
	env.m1, err = env.svc.CreateMoment(ctx, env.u1, models.CreateMomentInput{SceneID: env.sc1.ID, Title: "M1"})
	require.NoError(t, err)
	env.ch1, err = env.svc.CreateCharacter(ctx, env.u1, models.CreateCharacterInput{StoryID: env.s1.ID, Name: "Ch1"})
	require.NoError(t, err)
	return env
}

// otherStory создает вторую историю пользователя U1 с главой, сценой, моментом и персонажем.
func (e *testEnv) otherStory(t *testing.T) (*models.Story, *models.Scene, *models.Moment, *models.Character) {
	t.Helper()
	ctx := context.Background()
	s2, err := e.svc.CreateStory(ctx, e.u1, models.CreateStoryInput{Title: "S2", Type: models.StoryTypeBranching})
	require.NoError(t, err)
	c2, err := e.svc.CreateChapter(ctx, e.u1, models.CreateChapterInput{StoryID: s2.ID})
	require.NoError(t, err)
	sc2, err := e.svc.CreateScene(ctx, e.u1, models.CreateSceneInput{ChapterID: c2.ID})
	require.NoError(t, err)
	m2, err := e.svc.CreateMoment(ctx, e.u1, models.CreateMomentInput{SceneID: sc2.ID})
	require.NoError(t, err)
	ch2, err := e.svc.CreateCharacter(ctx, e.u1, models.CreateCharacterInput{StoryID: s2.ID, Name: "Ch2"})
	require.NoError(t, err)
	return s2, sc2, m2, ch2
}

func TestService_Story(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults to linear", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, models.StoryTypeLinear, env.s1.Type)
		assert.Equal(t, env.u1, env.s1.UserID)
		assert.False(t, env.s1.CreatedAt.IsZero())
	})

	t.Run("Validation", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CreateStory(ctx, env.u1, models.CreateStoryInput{Title: " "})
		assert.EqualError(t, err, "title is required")
		_, err = env.svc.CreateStory(ctx, env.u1, models.CreateStoryInput{Title: "x", Type: "tree"})
		assert.ErrorIs(t, err, models.ErrInvalidStoryType)
		_, err = env.svc.CreateStory(ctx, uuid.Nil, models.CreateStoryInput{Title: "x"})
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("Foreign story looks like a missing one", func(t *testing.T) {
		env := newTestEnv(t)
		_, foreignErr := env.svc.GetStory(ctx, env.u2, env.s1.ID)
		_, missingErr := env.svc.GetStory(ctx, env.u2, models.NewID())
		assert.Equal(t, missingErr, foreignErr)
		assert.ErrorIs(t, foreignErr, models.ErrNotFound)

		_, err := env.svc.UpdateStory(ctx, env.u2, env.s1.ID, models.UpdateStoryInput{Title: models.StringPtr("stolen")})
		assert.ErrorIs(t, err, models.ErrStoryNotOwned)
		assert.ErrorIs(t, env.svc.DeleteStory(ctx, env.u2, env.s1.ID), models.ErrStoryNotOwned)
	})

	t.Run("List only own stories", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CreateStory(ctx, env.u2, models.CreateStoryInput{Title: "U2 story"})
		require.NoError(t, err)
		stories, err := env.svc.ListStories(ctx, env.u1)
		require.NoError(t, err)
		require.Len(t, stories, 1)
		assert.Equal(t, env.s1.ID, stories[0].ID)
	})

	t.Run("Update merges only given fields", func(t *testing.T) {
		env := newTestEnv(t)
		branching := models.StoryTypeBranching
		updated, err := env.svc.UpdateStory(ctx, env.u1, env.s1.ID, models.UpdateStoryInput{Type: &branching})
		require.NoError(t, err)
		assert.Equal(t, "S1", updated.Title)
		assert.Equal(t, models.StoryTypeBranching, updated.Type)
	})

	t.Run("Publisher failure does not fail the request", func(t *testing.T) {
		publisher := new(mocks.ContentEventPublisher)
		publisher.On("PublishContentEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
		svc := New(Deps{Stores: memory.NewStores().Interfaces(), Publisher: publisher, Logger: zap.NewNop()})

		story, err := svc.CreateStory(ctx, models.NewID(), models.CreateStoryInput{Title: "x"})
		require.NoError(t, err)
		publisher.AssertCalled(t, "PublishContentEvent", mock.Anything, mock.MatchedBy(func(e interfaces.ContentEvent) bool {
			return e.StoryID == story.ID && e.EntityType == models.KindStory && e.Action == interfaces.ContentActionCreated
		}))
	})
}

func TestService_CreateValidatesParents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.CreateMoment(ctx, env.u1, models.CreateMomentInput{SceneID: models.NewID()})
	assert.EqualError(t, err, "Scene not found")

	_, err = env.svc.CreateMoment(ctx, env.u2, models.CreateMomentInput{SceneID: env.sc1.ID})
	assert.ErrorIs(t, err, models.ErrStoryNotOwned)

	_, err = env.svc.CreateChapter(ctx, env.u1, models.CreateChapterInput{})
	assert.EqualError(t, err, "storyId is required")

	t.Run("Scene location must share the chapter story", func(t *testing.T) {
		s2, _, _, _ := env.otherStory(t)
		foreignLocation, err := env.svc.CreateLocation(ctx, env.u1, models.CreateLocationInput{StoryID: s2.ID, Name: "L2"})
		require.NoError(t, err)

		_, err = env.svc.CreateScene(ctx, env.u1, models.CreateSceneInput{ChapterID: env.c1.ID, LocationID: &foreignLocation.ID})
		assert.EqualError(t, err, "Chapter and Location must belong to the same story")

		local, err := env.svc.CreateLocation(ctx, env.u1, models.CreateLocationInput{StoryID: env.s1.ID, Name: "L1"})
		require.NoError(t, err)
		scene, err := env.svc.CreateScene(ctx, env.u1, models.CreateSceneInput{ChapterID: env.c1.ID, LocationID: &local.ID})
		require.NoError(t, err)
		require.NotNil(t, scene.LocationID)
		assert.Equal(t, local.ID, *scene.LocationID)
	})
}

func TestService_UpdateResolvesFromExistingRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, sc2, _, _ := env.otherStory(t)

	_, err := env.svc.UpdateMoment(ctx, env.u1, models.UpdateMomentInput{ID: env.m1.ID, SceneID: &sc2.ID})
	assert.ErrorIs(t, err, models.ErrCrossStoryAssociation)
	assert.EqualError(t, err, "Moment and Scene must belong to the same story")

	_, err = env.svc.UpdateMoment(ctx, env.u2, models.UpdateMomentInput{ID: env.m1.ID, Title: models.StringPtr("x")})
	assert.ErrorIs(t, err, models.ErrStoryNotOwned)

	sc1b, err := env.svc.CreateScene(ctx, env.u1, models.CreateSceneInput{ChapterID: env.c1.ID, Index: 1})
	require.NoError(t, err)
	moved, err := env.svc.UpdateMoment(ctx, env.u1, models.UpdateMomentInput{ID: env.m1.ID, SceneID: &sc1b.ID, Index: models.IntPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, sc1b.ID, moved.SceneID)
	assert.Equal(t, 3, moved.Index)
	assert.Equal(t, "M1", moved.Title)
}

func TestService_UpdateMomentsAtomic(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m2, err := env.svc.CreateMoment(ctx, env.u1, models.CreateMomentInput{SceneID: env.sc1.ID, Title: "M2", Index: 1})
	require.NoError(t, err)

	t.Run("Failure at the last item persists nothing", func(t *testing.T) {
		_, err := env.svc.UpdateMoments(ctx, env.u1, []models.UpdateMomentInput{
			{ID: env.m1.ID, Title: models.StringPtr("M1 edited")},
			{ID: m2.ID, Title: models.StringPtr("M2 edited")},
			{ID: models.NewID(), Title: models.StringPtr("ghost")},
		})
		assert.EqualError(t, err, "Moment not found")

		stored, err := env.svc.GetMoment(ctx, env.u1, env.m1.ID)
		require.NoError(t, err)
		assert.Equal(t, "M1", stored.Title)
		stored, err = env.svc.GetMoment(ctx, env.u1, m2.ID)
		require.NoError(t, err)
		assert.Equal(t, "M2", stored.Title)
	})

	t.Run("Reorder lands together in input order", func(t *testing.T) {
		updated, err := env.svc.UpdateMoments(ctx, env.u1, []models.UpdateMomentInput{
			{ID: m2.ID, Index: models.IntPtr(0)},
			{ID: env.m1.ID, Index: models.IntPtr(1)},
		})
		require.NoError(t, err)
		require.Len(t, updated, 2)
		assert.Equal(t, m2.ID, updated[0].ID)

		listed, err := env.svc.ListMoments(ctx, env.u1, env.sc1.ID)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, []uuid.UUID{m2.ID, env.m1.ID}, []uuid.UUID{listed[0].ID, listed[1].ID})
	})

	t.Run("Repeated id rejects the whole batch", func(t *testing.T) {
		_, err := env.svc.UpdateMoments(ctx, env.u1, []models.UpdateMomentInput{
			{ID: env.m1.ID, Title: models.StringPtr("edited")},
			{ID: env.m1.ID, Index: models.IntPtr(5)},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		stored, err := env.svc.GetMoment(ctx, env.u1, env.m1.ID)
		require.NoError(t, err)
		assert.Equal(t, "M1", stored.Title)
		assert.Equal(t, 1, stored.Index)
	})

	t.Run("Repeated id is rejected for every update batch", func(t *testing.T) {
		_, err := env.svc.UpdateChapters(ctx, env.u1, []models.UpdateChapterInput{{ID: env.c1.ID}, {ID: env.c1.ID}})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		_, err = env.svc.UpdateScenes(ctx, env.u1, []models.UpdateSceneInput{{ID: env.sc1.ID}, {ID: env.sc1.ID}})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		_, err = env.svc.UpdateCharacters(ctx, env.u1, []models.UpdateCharacterInput{{ID: env.ch1.ID}, {ID: env.ch1.ID}})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Collaborator failure aborts the batch", func(t *testing.T) {
		moments := new(mocks.EntityStore[models.Moment])
		moments.On("FindByID", mock.Anything, env.m1.ID).Return(env.m1, nil)
		dbErr := errors.New("connection reset")
		moments.On("UpdateMany", mock.Anything, mock.Anything).Return(dbErr)

		stores := env.mem.Interfaces()
		stores.Moments = moments
		svc := New(Deps{Stores: stores, Logger: zap.NewNop()})

		_, err := svc.UpdateMoments(ctx, env.u1, []models.UpdateMomentInput{{ID: env.m1.ID, Title: models.StringPtr("x")}})
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, models.ErrNotFound)
		moments.AssertExpectations(t)
	})
}

func TestService_CharacterMoments(t *testing.T) {
	ctx := context.Background()

	t.Run("Add requires the same story", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, m2, _ := env.otherStory(t)

		_, err := env.svc.AddCharacterToMoment(ctx, env.u1, models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: m2.ID.String()})
		assert.EqualError(t, err, "Character and Moment must belong to the same story")

		link, err := env.svc.AddCharacterToMoment(ctx, env.u1, models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()})
		require.NoError(t, err)
		assert.Equal(t, env.m1.ID, link.MomentID)

		_, err = env.svc.AddCharacterToMoment(ctx, env.u1, models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()})
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("Atomic add persists nothing on a cross-story pair", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, m2, _ := env.otherStory(t)
		m1b, err := env.svc.CreateMoment(ctx, env.u1, models.CreateMomentInput{SceneID: env.sc1.ID})
		require.NoError(t, err)

		_, err = env.svc.AddCharactersToMoments(ctx, env.u1, []models.CharacterMomentKey{
			{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: m1b.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: m2.ID.String()},
		})
		assert.ErrorIs(t, err, models.ErrCrossStoryAssociation)
		assert.Equal(t, 0, env.mem.CharacterMoments.Len())

		links, err := env.svc.AddCharactersToMoments(ctx, env.u1, []models.CharacterMomentKey{
			{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: m1b.ID.String()},
		})
		require.NoError(t, err)
		assert.Len(t, links, 2)

		moments, err := env.svc.ListCharacterMoments(ctx, env.u1, env.ch1.ID)
		require.NoError(t, err)
		assert.Len(t, moments, 2)
	})

	t.Run("Best-effort remove reports the missing moment", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.AddCharacterToMoment(ctx, env.u1, models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()})
		require.NoError(t, err)

		good := models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()}
		bad := models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: "missing-moment"}
		result, err := env.svc.RemoveCharactersFromMoments(ctx, env.u1, []models.CharacterMomentKey{good, bad})
		require.NoError(t, err)
		assert.Equal(t, []models.CharacterMomentKey{good}, result.SuccessfulKeys)
		assert.Equal(t, []models.BatchFailure[models.CharacterMomentKey]{{Key: bad, Reason: "Moment not found"}}, result.FailedKeysWithReason)
		assert.Equal(t, 0, env.mem.CharacterMoments.Len())
	})

	t.Run("Best-effort remove isolates every kind of failure", func(t *testing.T) {
		env := newTestEnv(t)
		m1b, err := env.svc.CreateMoment(ctx, env.u1, models.CreateMomentInput{SceneID: env.sc1.ID})
		require.NoError(t, err)
		_, err = env.svc.AddCharactersToMoments(ctx, env.u1, []models.CharacterMomentKey{
			{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: m1b.ID.String()},
		})
		require.NoError(t, err)

		result, err := env.svc.RemoveCharactersFromMoments(ctx, env.u1, []models.CharacterMomentKey{
			{MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()},
			{CharacterID: env.ch1.ID.String(), MomentID: m1b.ID.String()},
		})
		require.NoError(t, err)
		assert.Len(t, result.SuccessfulKeys, 2)
		require.Len(t, result.FailedKeysWithReason, 2)
		assert.Equal(t, "characterId is required", result.FailedKeysWithReason[0].Reason)
		assert.Equal(t, "CharacterMoment not found", result.FailedKeysWithReason[1].Reason)
	})

	t.Run("Foreign user removes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		key := models.CharacterMomentKey{CharacterID: env.ch1.ID.String(), MomentID: env.m1.ID.String()}
		_, err := env.svc.AddCharacterToMoment(ctx, env.u1, key)
		require.NoError(t, err)

		result, err := env.svc.RemoveCharactersFromMoments(ctx, env.u2, []models.CharacterMomentKey{key})
		require.NoError(t, err)
		assert.Empty(t, result.SuccessfulKeys)
		require.Len(t, result.FailedKeysWithReason, 1)
		assert.Equal(t, "Story not found or not owned by user", result.FailedKeysWithReason[0].Reason)
		assert.Equal(t, 1, env.mem.CharacterMoments.Len())
	})
}

func TestService_Relations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, _, _, foreign := env.otherStory(t)
	ch2, err := env.svc.CreateCharacter(ctx, env.u1, models.CreateCharacterInput{StoryID: env.s1.ID, Name: "Ch2"})
	require.NoError(t, err)

	_, err = env.svc.CreateRelation(ctx, env.u1, models.CreateRelationInput{CharID1: env.ch1.ID, CharID2: env.ch1.ID})
	assert.ErrorIs(t, err, models.ErrSelfRelation)

	_, err = env.svc.CreateRelation(ctx, env.u1, models.CreateRelationInput{CharID1: env.ch1.ID, CharID2: foreign.ID})
	assert.ErrorIs(t, err, models.ErrCrossStoryAssociation)

	_, err = env.svc.CreateRelation(ctx, env.u1, models.CreateRelationInput{CharID1: env.ch1.ID})
	assert.EqualError(t, err, "charId2 is required")

	rel, err := env.svc.CreateRelation(ctx, env.u1, models.CreateRelationInput{CharID1: env.ch1.ID, CharID2: ch2.ID, RelationType: "rival"})
	require.NoError(t, err)

	fromSecond, err := env.svc.ListRelations(ctx, env.u1, ch2.ID)
	require.NoError(t, err)
	require.Len(t, fromSecond, 1)
	assert.Equal(t, rel.ID, fromSecond[0].ID)

	updated, err := env.svc.UpdateRelation(ctx, env.u1, models.UpdateRelationInput{ID: rel.ID, RelationType: models.StringPtr("friend")})
	require.NoError(t, err)
	assert.Equal(t, "friend", updated.RelationType)

	result, err := env.svc.DeleteRelations(ctx, env.u1, []string{rel.ID.String(), "", "not-a-uuid", rel.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, []string{rel.ID.String()}, result.SuccessfulKeys)
	require.Len(t, result.FailedKeysWithReason, 3)
	assert.Equal(t, "id is required", result.FailedKeysWithReason[0].Reason)
	assert.Equal(t, "CharacterRelation not found", result.FailedKeysWithReason[1].Reason)
	assert.Equal(t, "CharacterRelation not found", result.FailedKeysWithReason[2].Reason)
}

func TestService_OwnedContent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, _, _, foreign := env.otherStory(t)
	owner := models.KindCharacter

	t.Run("Gallery owner from another story", func(t *testing.T) {
		_, err := env.svc.CreateGalleryItem(ctx, env.u1, models.CreateGalleryItemInput{
			StoryID: env.s1.ID, OwnerType: &owner, OwnerID: &foreign.ID, ImageURL: "https://img/1.png",
		})
		assert.EqualError(t, err, "Gallery item and Character must belong to the same story")
	})

	t.Run("Owner type without id", func(t *testing.T) {
		_, err := env.svc.CreateGalleryItem(ctx, env.u1, models.CreateGalleryItemInput{
			StoryID: env.s1.ID, OwnerType: &owner, ImageURL: "https://img/1.png",
		})
		assert.EqualError(t, err, "ownerId is required")
	})

	t.Run("Gallery item with owner and owner cleared", func(t *testing.T) {
		item, err := env.svc.CreateGalleryItem(ctx, env.u1, models.CreateGalleryItemInput{
			StoryID: env.s1.ID, OwnerType: &owner, OwnerID: &env.ch1.ID, ImageURL: "https://img/1.png",
		})
		require.NoError(t, err)
		ref, ok := item.Owner()
		require.True(t, ok)
		assert.Equal(t, models.NewRef(models.KindCharacter, env.ch1.ID), ref)

		cleared, err := env.svc.UpdateGalleryItem(ctx, env.u1, models.UpdateGalleryItemInput{ID: item.ID, ClearOwner: true})
		require.NoError(t, err)
		_, ok = cleared.Owner()
		assert.False(t, ok)
	})

	t.Run("Suggestion lifecycle", func(t *testing.T) {
		momentKind := models.KindMoment
		sg, err := env.svc.CreateSuggestion(ctx, env.u1, models.CreateSuggestionInput{
			StoryID: env.s1.ID, OwnerType: &momentKind, OwnerID: &env.m1.ID, Content: "add a twist",
		})
		require.NoError(t, err)
		assert.Equal(t, models.SuggestionPending, sg.Status)

		bogus := models.SuggestionStatus("maybe")
		_, err = env.svc.UpdateSuggestion(ctx, env.u1, models.UpdateSuggestionInput{ID: sg.ID, Status: &bogus})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		accepted := models.SuggestionAccepted
		updated, err := env.svc.UpdateSuggestion(ctx, env.u1, models.UpdateSuggestionInput{ID: sg.ID, Status: &accepted})
		require.NoError(t, err)
		assert.Equal(t, models.SuggestionAccepted, updated.Status)

		assert.ErrorIs(t, env.svc.DeleteSuggestion(ctx, env.u2, sg.ID), models.ErrStoryNotOwned)
		require.NoError(t, env.svc.DeleteSuggestion(ctx, env.u1, sg.ID))
		_, err = env.svc.GetSuggestion(ctx, env.u1, sg.ID)
		assert.EqualError(t, err, "Suggestion not found")
	})

	t.Run("Tags notes and world rules", func(t *testing.T) {
		tag, err := env.svc.CreateTag(ctx, env.u1, models.CreateTagInput{StoryID: env.s1.ID, Name: "noir", Color: "#000"})
		require.NoError(t, err)
		note, err := env.svc.CreateNote(ctx, env.u1, models.CreateContentInput{StoryID: env.s1.ID, Title: "n", Body: "text"})
		require.NoError(t, err)
		rule, err := env.svc.CreateWorldRule(ctx, env.u1, models.CreateContentInput{StoryID: env.s1.ID, Title: "magic", Body: "costs blood"})
		require.NoError(t, err)

		_, err = env.svc.GetTag(ctx, env.u2, tag.ID)
		assert.ErrorIs(t, err, models.ErrStoryNotOwned)

		updatedNote, err := env.svc.UpdateNote(ctx, env.u1, models.UpdateContentInput{ID: note.ID, Body: models.StringPtr("more")})
		require.NoError(t, err)
		assert.Equal(t, "more", updatedNote.Content)
		assert.Equal(t, "n", updatedNote.Title)

		rules, err := env.svc.ListWorldRules(ctx, env.u1, env.s1.ID)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, rule.ID, rules[0].ID)

		require.NoError(t, env.svc.DeleteTag(ctx, env.u1, tag.ID))
		assert.EqualError(t, env.svc.DeleteTag(ctx, env.u1, tag.ID), "Tag not found")
	})
}

func TestService_Choices(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sc2, err := env.svc.CreateScene(ctx, env.u1, models.CreateSceneInput{ChapterID: env.c1.ID, Index: 1})
	require.NoError(t, err)

	_, err = env.svc.AddChoice(ctx, env.u1, models.CreateChoiceInput{SceneID: env.sc1.ID, NextSceneID: sc2.ID, Text: "go"})
	assert.ErrorIs(t, err, models.ErrBranchingNotAllowed)

	edges, err := env.svc.RebuildImplicitChoices(ctx, env.u1, env.s1.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	out, err := env.svc.OutgoingChoices(ctx, env.u1, env.sc1.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, edges[0].ID, out[0].ID)
	assert.Equal(t, sc2.ID, out[0].NextSceneID)

	env.publisher.AssertCalled(t, "PublishContentEvent", mock.Anything, mock.MatchedBy(func(e interfaces.ContentEvent) bool {
		return e.EntityType == models.KindStory && e.Action == interfaces.ContentActionUpdated && e.StoryID == env.s1.ID
	}))
}
