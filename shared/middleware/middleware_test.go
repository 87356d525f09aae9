package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func stubVerifier(userID uuid.UUID) TokenVerifier {
	return func(_ context.Context, token string) (*models.Claims, error) {
		switch token {
		case "good":
			return &models.Claims{UserID: userID, Roles: []string{models.RoleUser}}, nil
		case "expired":
			return nil, models.ErrTokenExpired
		case "boom":
			return nil, assert.AnError
		default:
			return nil, models.ErrTokenInvalid
		}
	}
}

func newRouter(userID uuid.UUID, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(GinZapLogger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", GinAuth(stubVerifier(userID), logger), func(c *gin.Context) {
		id, ok := UserIDFromGin(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		ctxID, _ := models.GetUserIDFromContext(c.Request.Context())
		roles, _ := models.GetRolesFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "ctxId": ctxID, "roles": roles})
	})
	return r
}

func TestGinAuth(t *testing.T) {
	userID := uuid.New()
	r := newRouter(userID, zap.NewNop())

	t.Run("Valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			ID    uuid.UUID `json:"id"`
			CtxID uuid.UUID `json:"ctxId"`
			Roles []string  `json:"roles"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID, body.ID)
		assert.Equal(t, userID, body.CtxID)
		assert.Equal(t, []string{models.RoleUser}, body.Roles)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"Missing header", "", http.StatusUnauthorized, "Unauthorized: Missing token"},
		{"Malformed header", "Token good", http.StatusUnauthorized, "Unauthorized: Malformed token header"},
		{"Expired", "Bearer expired", http.StatusUnauthorized, "Unauthorized: Token expired"},
		{"Invalid", "Bearer forged", http.StatusUnauthorized, "Unauthorized: Invalid token"},
		{"Verifier failure", "Bearer boom", http.StatusInternalServerError, "Internal server error during token verification"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.message, resp.Message)
		})
	}
}

func TestGinZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter(uuid.New(), zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Zero(t, logs.Len(), "health checks are not logged")

	req = httptest.NewRequest(http.MethodGet, "/me?x=1", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/me?x=1", fields["path"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Contains(t, fields, "user_id")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 1, logs.FilterMessage("Client error").Len())
}
