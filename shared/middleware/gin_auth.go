package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey ключ gin.Context, под которым лежит uuid.UUID аутентифицированного пользователя.
const UserIDKey = "user_id"

// TokenVerifier проверяет строку токена и возвращает claims.
// Ошибки: models.ErrTokenInvalid, models.ErrTokenExpired, models.ErrTokenMalformed.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// GinAuth проверяет Bearer JWT и кладет UserID в gin.Context и в контекст запроса.
func GinAuth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("GinAuth")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Unauthorized: Missing token")
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Malformed Authorization header", zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, "Unauthorized: Malformed token header")
			return
		}

		claims, err := verifier(c.Request.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, models.ErrTokenExpired):
				abortUnauthorized(c, "Unauthorized: Token expired")
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				abortUnauthorized(c, "Unauthorized: Invalid token")
			default:
				log.Error("Unexpected token verification error", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
					Code:    models.ErrCodeInternal,
					Message: "Internal server error during token verification",
				})
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
		ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserIDFromGin возвращает пользователя, установленного GinAuth.
func UserIDFromGin(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Code:    models.ErrCodeUnauthorized,
		Message: message,
	})
}
