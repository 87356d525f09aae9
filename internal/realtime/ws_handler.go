package realtime

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"story-organizer/shared/middleware"
	"story-organizer/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Handler поднимает WebSocket-соединения для потока изменений контента.
type Handler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler: allowedOrigins пустой или содержит "*" - принимаются любые Origin.
func NewHandler(hub *Hub, verifier middleware.TokenVerifier, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.Named("WebSocketHandler"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// tokenFromRequest: браузер не умеет ставить заголовки при открытии WebSocket, поэтому токен можно передать в ?token=.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// ServeWS GET /api/v1/events/ws
func (h *Handler) ServeWS(c *gin.Context) {
	token := tokenFromRequest(c.Request)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Unauthorized: Missing token"})
		return
	}
	claims, err := h.verifier(c.Request.Context(), token)
	if err != nil {
		message := "Unauthorized: Invalid token"
		if errors.Is(err, models.ErrTokenExpired) {
			message = "Unauthorized: Token expired"
		}
		h.logger.Debug("WebSocket token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: message})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже записал ответ
		h.logger.Warn("Failed to upgrade connection", zap.Stringer("userID", claims.UserID), zap.Error(err))
		return
	}

	cl, err := h.hub.register(claims.UserID)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	log := h.logger.With(zap.Stringer("userID", claims.UserID))
	log.Info("WebSocket connection established")

	go h.writePump(conn, cl, log)
	go h.readPump(conn, cl, log)
}

// readPump читает только control-фреймы (pong, close); входящие сообщения клиента игнорируются.
func (h *Handler) readPump(conn *websocket.Conn, cl *client, log *zap.Logger) {
	defer func() {
		h.hub.unregister(cl)
		_ = conn.Close()
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			} else {
				log.Info("WebSocket connection closed")
			}
			return
		}
		log.Debug("Ignoring message from client")
	}
}

// writePump одно событие - одно текстовое сообщение.
func (h *Handler) writePump(conn *websocket.Conn, cl *client, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case message, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("Failed to write content event", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
