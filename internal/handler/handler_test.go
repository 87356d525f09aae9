package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"story-organizer/internal/service"
	"story-organizer/shared/authutils"
	"story-organizer/shared/database/memory"
	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiClient struct {
	t        *testing.T
	router   *gin.Engine
	verifier *authutils.JWTVerifier
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	verifier, err := authutils.NewJWTVerifier("handler-test-secret", zap.NewNop())
	require.NoError(t, err)
	svc := service.New(service.Deps{Stores: memory.NewStores().Interfaces(), Logger: zap.NewNop()})

	router := gin.New()
	NewStoryOrganizerHandler(svc, verifier.VerifyToken, zap.NewNop()).RegisterRoutes(router)
	return &apiClient{t: t, router: router, verifier: verifier}
}

// do выполняет запрос от имени userID (uuid.Nil - без токена).
func (a *apiClient) do(userID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		token, err := a.verifier.IssueToken(userID, time.Hour)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// create выполняет POST, ожидает 201 и возвращает id созданной сущности.
func (a *apiClient) create(userID uuid.UUID, path string, body any) uuid.UUID {
	a.t.Helper()
	rec := a.do(userID, http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type storyTree struct {
	story, chapter, scene, moment, character uuid.UUID
}

func (a *apiClient) seedStory(userID uuid.UUID, storyType string) storyTree {
	a.t.Helper()
	var tree storyTree
	tree.story = a.create(userID, "/api/v1/stories", map[string]any{"title": "S", "type": storyType})
	tree.chapter = a.create(userID, "/api/v1/chapters", map[string]any{"storyId": tree.story, "title": "C"})
	tree.scene = a.create(userID, "/api/v1/scenes", map[string]any{"chapterId": tree.chapter, "title": "Sc"})
	tree.moment = a.create(userID, "/api/v1/moments", map[string]any{"sceneId": tree.scene, "title": "M"})
	tree.character = a.create(userID, "/api/v1/characters", map[string]any{"storyId": tree.story, "name": "Ch"})
	return tree
}

func TestHandler_Auth(t *testing.T) {
	api := newAPIClient(t)

	rec := api.do(uuid.Nil, http.MethodGet, "/api/v1/stories", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.ErrCodeUnauthorized, decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stories", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(uuid.New(), http.MethodGet, "/api/v1/stories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestHandler_OwnershipIsUniform(t *testing.T) {
	api := newAPIClient(t)
	owner, stranger := uuid.New(), uuid.New()
	tree := api.seedStory(owner, "linear")

	foreign := api.do(stranger, http.MethodGet, "/api/v1/moments/"+tree.moment.String(), nil)
	missing := api.do(stranger, http.MethodGet, "/api/v1/moments/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, missing.Body.String(), foreign.Body.String())
	assert.Equal(t, notFoundMessage, decodeError(t, foreign).Message)

	rec := api.do(owner, http.MethodGet, "/api/v1/moments/"+tree.moment.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(owner, http.MethodGet, "/api/v1/moments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Validation(t *testing.T) {
	api := newAPIClient(t)
	user := uuid.New()
	tree := api.seedStory(user, "linear")

	rec := api.do(user, http.MethodPost, "/api/v1/stories", map[string]any{"title": "x", "type": "tree"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(user, http.MethodPost, "/api/v1/chapters", map[string]any{"title": "no story"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "storyId is required", decodeError(t, rec).Message)

	rec = api.do(user, http.MethodPost, "/api/v1/relations", map[string]any{"charId1": tree.character, "charId2": tree.character})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(user, http.MethodPost, "/api/v1/choices", map[string]any{"sceneId": tree.scene, "nextSceneId": tree.scene, "text": "loop"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(user, http.MethodPatch, "/api/v1/moments", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CharacterMoments(t *testing.T) {
	api := newAPIClient(t)
	user := uuid.New()
	first := api.seedStory(user, "linear")
	second := api.seedStory(user, "branching")

	t.Run("Cross-story pair is a conflict", func(t *testing.T) {
		rec := api.do(user, http.MethodPost, "/api/v1/character-moments", map[string]any{
			"characterId": first.character, "momentId": second.moment,
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, models.ErrCodeCrossStory, resp.Code)
		assert.Equal(t, "Character and Moment must belong to the same story", resp.Message)
	})

	t.Run("Add then duplicate", func(t *testing.T) {
		body := map[string]any{"characterId": first.character, "momentId": first.moment}
		rec := api.do(user, http.MethodPost, "/api/v1/character-moments", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = api.do(user, http.MethodPost, "/api/v1/character-moments", body)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = api.do(user, http.MethodGet, "/api/v1/moments/"+first.moment.String()+"/characters", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var listed models.ListResponse[models.Character]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed.Data, 1)
		assert.Equal(t, first.character, listed.Data[0].ID)
	})

	t.Run("Best-effort removal reports per item", func(t *testing.T) {
		rec := api.do(user, http.MethodPost, "/api/v1/character-moments/batch-delete", map[string]any{
			"items": []map[string]string{
				{"characterId": first.character.String(), "momentId": first.moment.String()},
				{"characterId": first.character.String(), "momentId": "missing-moment"},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{
			"successfulKeys": [{"characterId": "`+first.character.String()+`", "momentId": "`+first.moment.String()+`"}],
			"failedKeysWithReason": [{"key": {"characterId": "`+first.character.String()+`", "momentId": "missing-moment"}, "reason": "Moment not found"}]
		}`, rec.Body.String())
	})
}

func TestHandler_AtomicBatchUpdate(t *testing.T) {
	api := newAPIClient(t)
	user := uuid.New()
	tree := api.seedStory(user, "linear")

	rec := api.do(user, http.MethodPatch, "/api/v1/moments", map[string]any{
		"items": []map[string]any{
			{"id": tree.moment, "title": "renamed"},
			{"id": uuid.New(), "title": "ghost"},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(user, http.MethodGet, "/api/v1/moments/"+tree.moment.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var moment models.Moment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moment))
	assert.Equal(t, "M", moment.Title)

	rec = api.do(user, http.MethodPatch, "/api/v1/moments", map[string]any{
		"items": []map[string]any{{"id": tree.moment, "title": "renamed"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.ListResponse[models.Moment]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Len(t, updated.Data, 1)
	assert.Equal(t, "renamed", updated.Data[0].Title)
}

func TestHandler_LinearChoices(t *testing.T) {
	api := newAPIClient(t)
	user := uuid.New()
	tree := api.seedStory(user, "linear")
	next := api.create(user, "/api/v1/scenes", map[string]any{"chapterId": tree.chapter, "title": "Sc2", "index": 1})

	rec := api.do(user, http.MethodGet, "/api/v1/scenes/"+tree.scene.String()+"/choices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out models.ListResponse[models.Choice]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	assert.True(t, out.Data[0].IsImplicit)
	assert.Equal(t, next, out.Data[0].NextSceneID)

	rec = api.do(user, http.MethodPost, "/api/v1/stories/"+tree.story.String()+"/implicit-choices/rebuild", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(user, http.MethodPatch, "/api/v1/stories/"+tree.story.String(), map[string]any{"type": "branching"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(user, http.MethodPost, "/api/v1/choices", map[string]any{"sceneId": next, "nextSceneId": tree.scene, "text": "back"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(user, http.MethodDelete, "/api/v1/stories/"+tree.story.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
