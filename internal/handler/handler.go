// Package handler HTTP-обвязка органайзера историй поверх gin.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"story-organizer/internal/service"
	"story-organizer/shared/middleware"
	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryOrganizerHandler обрабатывает HTTP-запросы к use case'ам органайзера.
type StoryOrganizerHandler struct {
	service  *service.Service
	verifier middleware.TokenVerifier
	logger   *zap.Logger
}

func NewStoryOrganizerHandler(s *service.Service, verifier middleware.TokenVerifier, logger *zap.Logger) *StoryOrganizerHandler {
	return &StoryOrganizerHandler{
		service:  s,
		verifier: verifier,
		logger:   logger.Named("StoryOrganizerHandler"),
	}
}

// batchRequest тело пакетных запросов.
type batchRequest[I any] struct {
	Items []I `json:"items"`
}

// getUserID возвращает пользователя из контекста; при отсутствии отвечает 401.
func (h *StoryOrganizerHandler) getUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserIDFromGin(c)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return userID, true
}

// pathID разбирает параметр :id. Неразбираемый id - 400.
func (h *StoryOrganizerHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: invalid id %q", models.ErrBadRequest, raw), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

func (h *StoryOrganizerHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Debug("Invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		handleServiceError(c, fmt.Errorf("%w: invalid request body: %v", models.ErrBadRequest, err), h.logger)
		return false
	}
	return true
}

// Ниже обобщенные обработчики: разбор запроса, вызов use case'а и ответ одинаковы для всех типов.

func create[I, O any](h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, I) (O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		var in I
		if !h.bindJSON(c, &in) {
			return
		}
		out, err := fn(c.Request.Context(), userID, in)
		if err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func get[O any](h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, uuid.UUID) (O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		out, err := fn(c.Request.Context(), userID, id)
		if err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// list отдает детей сущности из :id в обертке {"data": [...]}.
func list[O any](h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, uuid.UUID) ([]O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		parentID, ok := h.pathID(c)
		if !ok {
			return
		}
		items, err := fn(c.Request.Context(), userID, parentID)
		if err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		if items == nil {
			items = []O{}
		}
		c.JSON(http.StatusOK, models.ListResponse[O]{Data: items})
	}
}

// update берет id из пути, остальные поля из тела.
func update[I, O any](h *StoryOrganizerHandler, setID func(*I, uuid.UUID), fn func(context.Context, uuid.UUID, I) (O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		var in I
		if !h.bindJSON(c, &in) {
			return
		}
		setID(&in, id)
		out, err := fn(c.Request.Context(), userID, in)
		if err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func remove(h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, uuid.UUID) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c)
		if !ok {
			return
		}
		if err := fn(c.Request.Context(), userID, id); err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// batch обрабатывает {"items": [...]}. Отсутствие items - 400.
func batch[I, O any](h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, []I) (O, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := h.getUserID(c)
		if !ok {
			return
		}
		var req batchRequest[I]
		if !h.bindJSON(c, &req) {
			return
		}
		out, err := fn(c.Request.Context(), userID, req.Items)
		if err != nil {
			handleServiceError(c, err, h.logger)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// atomicBatch как batch, но результат (все элементы или ничего) отдается списком.
func atomicBatch[I, O any](h *StoryOrganizerHandler, fn func(context.Context, uuid.UUID, []I) ([]O, error)) gin.HandlerFunc {
	return batch(h, func(ctx context.Context, userID uuid.UUID, items []I) (models.ListResponse[O], error) {
		out, err := fn(ctx, userID, items)
		return models.ListResponse[O]{Data: out}, err
	})
}
