package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound      = errors.New("resource not found") // General not found, также "не принадлежит пользователю"
	ErrAlreadyExists = errors.New("resource already exists")

	// Ownership & association errors
	ErrCrossStoryAssociation  = errors.New("entities belong to different stories")
	ErrMissingRequiredField   = errors.New("missing required field")
	ErrSelfRelation           = errors.New("a character cannot be related to itself")
	ErrInvalidStoryType       = errors.New("invalid story type")
	ErrBranchingNotAllowed    = errors.New("linear stories accept only implicit choices")
	ErrImplicitChoiceConflict = errors.New("scene already has an implicit choice")

	// User & Authentication Errors
	ErrUnauthorized = errors.New("unauthorized") // Authentication required or failed

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)

// ErrStoryNotOwned история не найдена или принадлежит другому пользователю.
var ErrStoryNotOwned error = storyNotOwnedError{}

// storyNotOwnedError одинакова для отсутствующей и чужой истории, чтобы не раскрывать существование ресурса.
type storyNotOwnedError struct{}

func (storyNotOwnedError) Error() string { return "Story not found or not owned by user" }

func (storyNotOwnedError) Is(target error) bool { return target == ErrNotFound }

// EntityNotFoundError звено цепочки владения не найдено ("<Type> not found").
type EntityNotFoundError struct {
	Kind EntityKind
}

func (e *EntityNotFoundError) Error() string {
	return e.Kind.DisplayName() + " not found"
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound возвращает ошибку "<Type> not found" для типа сущности.
func NewNotFound(kind EntityKind) error {
	return &EntityNotFoundError{Kind: kind}
}

// AssociationError две связываемые сущности принадлежат разным историям.
type AssociationError struct {
	A, B EntityKind
}

func (e *AssociationError) Error() string {
	return fmt.Sprintf("%s and %s must belong to the same story", e.A.DisplayName(), e.B.DisplayName())
}

func (e *AssociationError) Is(target error) bool {
	return target == ErrCrossStoryAssociation
}

// MissingFieldError обязательный идентификатор отсутствует во входных данных.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return e.Field + " is required"
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// NewMissingField возвращает ошибку отсутствующего поля.
func NewMissingField(field string) error {
	return &MissingFieldError{Field: field}
}
