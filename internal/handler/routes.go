package handler

import (
	"net/http"

	"story-organizer/shared/middleware"
	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes регистрирует маршруты /api/v1 за JWT-аутентификацией.
func (h *StoryOrganizerHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1", middleware.GinAuth(h.verifier, h.logger))
	s := h.service

	// --- Истории ---
	api.POST("/stories", create(h, s.CreateStory))
	api.GET("/stories", h.listStories)
	api.GET("/stories/:id", get(h, s.GetStory))
	api.PATCH("/stories/:id", h.updateStory)
	api.DELETE("/stories/:id", remove(h, s.DeleteStory))
	api.POST("/stories/:id/implicit-choices/rebuild", h.rebuildImplicitChoices)

	// --- Главы, сцены, моменты ---
	api.POST("/chapters", create(h, s.CreateChapter))
	api.GET("/stories/:id/chapters", list(h, s.ListChapters))
	api.PATCH("/chapters", atomicBatch(h, s.UpdateChapters))
	api.GET("/chapters/:id", get(h, s.GetChapter))
	api.PATCH("/chapters/:id", update(h, func(in *models.UpdateChapterInput, id uuid.UUID) { in.ID = id }, s.UpdateChapter))
	api.DELETE("/chapters/:id", remove(h, s.DeleteChapter))

	api.POST("/scenes", create(h, s.CreateScene))
	api.GET("/chapters/:id/scenes", list(h, s.ListScenes))
	api.PATCH("/scenes", atomicBatch(h, s.UpdateScenes))
	api.GET("/scenes/:id", get(h, s.GetScene))
	api.PATCH("/scenes/:id", update(h, func(in *models.UpdateSceneInput, id uuid.UUID) { in.ID = id }, s.UpdateScene))
	api.DELETE("/scenes/:id", remove(h, s.DeleteScene))

	api.POST("/moments", create(h, s.CreateMoment))
	api.GET("/scenes/:id/moments", list(h, s.ListMoments))
	api.PATCH("/moments", atomicBatch(h, s.UpdateMoments))
	api.GET("/moments/:id", get(h, s.GetMoment))
	api.PATCH("/moments/:id", update(h, func(in *models.UpdateMomentInput, id uuid.UUID) { in.ID = id }, s.UpdateMoment))
	api.DELETE("/moments/:id", remove(h, s.DeleteMoment))

	// --- Персонажи и локации ---
	api.POST("/characters", create(h, s.CreateCharacter))
	api.GET("/stories/:id/characters", list(h, s.ListCharacters))
	api.PATCH("/characters", atomicBatch(h, s.UpdateCharacters))
	api.GET("/characters/:id", get(h, s.GetCharacter))
	api.PATCH("/characters/:id", update(h, func(in *models.UpdateCharacterInput, id uuid.UUID) { in.ID = id }, s.UpdateCharacter))
	api.DELETE("/characters/:id", remove(h, s.DeleteCharacter))

	api.POST("/locations", create(h, s.CreateLocation))
	api.GET("/stories/:id/locations", list(h, s.ListLocations))
	api.GET("/locations/:id", get(h, s.GetLocation))
	api.PATCH("/locations/:id", update(h, func(in *models.UpdateLocationInput, id uuid.UUID) { in.ID = id }, s.UpdateLocation))
	api.DELETE("/locations/:id", remove(h, s.DeleteLocation))

	// --- Персонажи в моментах ---
	api.POST("/character-moments", create(h, s.AddCharacterToMoment))
	api.POST("/character-moments/batch", atomicBatch(h, s.AddCharactersToMoments))
	api.POST("/character-moments/batch-delete", batch(h, s.RemoveCharactersFromMoments))
	api.GET("/moments/:id/characters", list(h, s.ListMomentCharacters))
	api.GET("/characters/:id/moments", list(h, s.ListCharacterMoments))

	// --- Отношения персонажей ---
	api.POST("/relations", create(h, s.CreateRelation))
	api.POST("/relations/batch-delete", batch(h, s.DeleteRelations))
	api.GET("/characters/:id/relations", list(h, s.ListRelations))
	api.GET("/relations/:id", get(h, s.GetRelation))
	api.PATCH("/relations/:id", update(h, func(in *models.UpdateRelationInput, id uuid.UUID) { in.ID = id }, s.UpdateRelation))
	api.DELETE("/relations/:id", remove(h, s.DeleteRelation))

	// --- Граф выборов ---
	api.POST("/choices", create(h, s.AddChoice))
	api.GET("/scenes/:id/choices", list(h, s.OutgoingChoices))
	api.GET("/choices/:id", get(h, s.GetChoice))
	api.PATCH("/choices/:id", update(h, func(in *models.UpdateChoiceInput, id uuid.UUID) { in.ID = id }, s.UpdateChoice))
	api.DELETE("/choices/:id", remove(h, s.DeleteChoice))

	// --- Контент истории ---
	api.POST("/tags", create(h, s.CreateTag))
	api.GET("/stories/:id/tags", list(h, s.ListTags))
	api.GET("/tags/:id", get(h, s.GetTag))
	api.PATCH("/tags/:id", update(h, func(in *models.UpdateTagInput, id uuid.UUID) { in.ID = id }, s.UpdateTag))
	api.DELETE("/tags/:id", remove(h, s.DeleteTag))

	api.POST("/notes", create(h, s.CreateNote))
	api.GET("/stories/:id/notes", list(h, s.ListNotes))
	api.GET("/notes/:id", get(h, s.GetNote))
	api.PATCH("/notes/:id", update(h, func(in *models.UpdateContentInput, id uuid.UUID) { in.ID = id }, s.UpdateNote))
	api.DELETE("/notes/:id", remove(h, s.DeleteNote))

	api.POST("/world-rules", create(h, s.CreateWorldRule))
	api.GET("/stories/:id/world-rules", list(h, s.ListWorldRules))
	api.GET("/world-rules/:id", get(h, s.GetWorldRule))
	api.PATCH("/world-rules/:id", update(h, func(in *models.UpdateContentInput, id uuid.UUID) { in.ID = id }, s.UpdateWorldRule))
	api.DELETE("/world-rules/:id", remove(h, s.DeleteWorldRule))

	api.POST("/gallery-items", create(h, s.CreateGalleryItem))
	api.GET("/stories/:id/gallery-items", list(h, s.ListGalleryItems))
	api.GET("/gallery-items/:id", get(h, s.GetGalleryItem))
	api.PATCH("/gallery-items/:id", update(h, func(in *models.UpdateGalleryItemInput, id uuid.UUID) { in.ID = id }, s.UpdateGalleryItem))
	api.DELETE("/gallery-items/:id", remove(h, s.DeleteGalleryItem))

	api.POST("/suggestions", create(h, s.CreateSuggestion))
	api.GET("/stories/:id/suggestions", list(h, s.ListSuggestions))
	api.GET("/suggestions/:id", get(h, s.GetSuggestion))
	api.PATCH("/suggestions/:id", update(h, func(in *models.UpdateSuggestionInput, id uuid.UUID) { in.ID = id }, s.UpdateSuggestion))
	api.DELETE("/suggestions/:id", remove(h, s.DeleteSuggestion))
}

func (h *StoryOrganizerHandler) listStories(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	stories, err := h.service.ListStories(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	if stories == nil {
		stories = []*models.Story{}
	}
	c.JSON(http.StatusOK, models.ListResponse[*models.Story]{Data: stories})
}

func (h *StoryOrganizerHandler) updateStory(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	var in models.UpdateStoryInput
	if !h.bindJSON(c, &in) {
		return
	}
	story, err := h.service.UpdateStory(c.Request.Context(), userID, storyID, in)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, story)
}

// rebuildImplicitChoices пересчитывает неявные переходы линейной истории.
func (h *StoryOrganizerHandler) rebuildImplicitChoices(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	choices, err := h.service.RebuildImplicitChoices(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[*models.Choice]{Data: choices})
}
