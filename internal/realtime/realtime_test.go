package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(zap.NewNop())
	owner, stranger := uuid.New(), uuid.New()

	tab1, err := hub.register(owner)
	require.NoError(t, err)
	tab2, err := hub.register(owner)
	require.NoError(t, err)
	other, err := hub.register(stranger)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections(owner))

	event := interfaces.ContentEvent{StoryID: uuid.New(), EntityType: models.KindScene, EntityID: uuid.NewString(), Action: interfaces.ContentActionCreated, UserID: owner}
	require.NoError(t, hub.PublishContentEvent(ctx, event))

	for _, c := range []*client{tab1, tab2} {
		select {
		case msg := <-c.send:
			var got interfaces.ContentEvent
			require.NoError(t, json.Unmarshal(msg, &got))
			assert.Equal(t, event.EntityID, got.EntityID)
		default:
			t.Fatal("event was not delivered to every connection of the owner")
		}
	}
	assert.Empty(t, other.send, "события чужих историй не доставляются")

	t.Run("Full queue drops instead of blocking", func(t *testing.T) {
		for i := 0; i < sendBufferSize+10; i++ {
			require.NoError(t, hub.HandleContentEvent(ctx, event))
		}
		assert.Len(t, tab1.send, sendBufferSize)
	})

	t.Run("Unregister is idempotent", func(t *testing.T) {
		hub.unregister(tab1)
		hub.unregister(tab1)
		assert.Equal(t, 1, hub.Connections(owner))
	})

	t.Run("Close", func(t *testing.T) {
		hub.Close()
		hub.Close()
		_, ok := <-other.send
		assert.False(t, ok)
		assert.Zero(t, hub.Connections(owner))
		_, err := hub.register(owner)
		assert.Error(t, err)
		hub.unregister(tab2)
	})
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, originChecker(nil)(req("https://evil.example")))
	assert.True(t, originChecker([]string{"*"})(req("https://evil.example")))

	check := originChecker([]string{"https://app.example"})
	assert.True(t, check(req("https://app.example")))
	assert.True(t, check(req("")))
	assert.False(t, check(req("https://evil.example")))
}

func TestServeWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()
	verifier := func(_ context.Context, token string) (*models.Claims, error) {
		switch token {
		case "good":
			return &models.Claims{UserID: owner}, nil
		case "expired":
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}

	hub := NewHub(zap.NewNop())
	router := gin.New()
	router.GET("/ws", NewHandler(hub, verifier, nil, zap.NewNop()).ServeWS)
	srv := httptest.NewServer(router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	t.Run("Rejects missing and bad tokens", func(t *testing.T) {
		for token, message := range map[string]string{"": "Unauthorized: Missing token", "bad": "Unauthorized: Invalid token", "expired": "Unauthorized: Token expired"} {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			_ = resp.Body.Close()
			assert.Equal(t, message, body.Message)
		}
	})

	t.Run("Streams events of the owner", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer good")
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.Connections(owner) == 1 }, time.Second, 10*time.Millisecond)

		event := interfaces.ContentEvent{StoryID: uuid.New(), EntityType: models.KindMoment, EntityID: uuid.NewString(), Action: interfaces.ContentActionUpdated, UserID: owner}
		require.NoError(t, hub.HandleContentEvent(context.Background(), event))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got interfaces.ContentEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, event.StoryID, got.StoryID)
		assert.Equal(t, interfaces.ContentActionUpdated, got.Action)

		require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
		require.Eventually(t, func() bool { return hub.Connections(owner) == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}
