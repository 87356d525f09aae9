package models

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Коды ошибок API.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeCrossStory   = "CROSS_STORY_ASSOCIATION"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ListResponse обертка для списков.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
