package handler

import (
	"errors"
	"net/http"

	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// notFoundMessage одинаков для отсутствующих и чужих ресурсов.
const notFoundMessage = "Resource not found or access denied"

// handleServiceError переводит ошибку сервиса в HTTP-ответ и прерывает цепочку обработчиков.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Unauthorized"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: notFoundMessage}
	case errors.Is(err, models.ErrCrossStoryAssociation):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeCrossStory, Message: err.Error()}
	case errors.Is(err, models.ErrAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrMissingRequiredField),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidStoryType),
		errors.Is(err, models.ErrBranchingNotAllowed),
		errors.Is(err, models.ErrImplicitChoiceConflict),
		errors.Is(err, models.ErrSelfRelation):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		logger.Error("Unhandled internal error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
