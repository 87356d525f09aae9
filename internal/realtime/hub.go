package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"story-organizer/shared/interfaces"
	"story-organizer/shared/messaging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendBufferSize = 256

// client одно WebSocket-соединение пользователя. У пользователя может быть несколько вкладок.
type client struct {
	userID uuid.UUID
	send   chan []byte
}

// Hub раздает события контента открытым соединениям владельца истории.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
	closed  bool
	logger  *zap.Logger
}

var (
	_ messaging.ContentEventHandler    = (*Hub)(nil)
	_ interfaces.ContentEventPublisher = (*Hub)(nil)
)

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		logger:  logger.Named("RealtimeHub"),
	}
}

func (h *Hub) register(userID uuid.UUID) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, fmt.Errorf("realtime hub is closed")
	}
	c := &client{userID: userID, send: make(chan []byte, sendBufferSize)}
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.logger.Debug("Client registered", zap.Stringer("userID", userID), zap.Int("connections", len(h.clients[userID])))
	return c, nil
}

// unregister идемпотентен: канал send закрывается ровно один раз.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	h.logger.Debug("Client unregistered", zap.Stringer("userID", c.userID))
}

// Connections возвращает число открытых соединений пользователя.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// HandleContentEvent доставляет событие всем соединениям event.UserID.
// Медленный клиент с переполненной очередью пропускает событие, остальные получают его.
func (h *Hub) HandleContentEvent(_ context.Context, event interfaces.ContentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal content event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.clients[event.UserID]
	if len(conns) == 0 {
		return nil
	}
	delivered := 0
	for c := range conns {
		select {
		case c.send <- payload:
			delivered++
		default:
			h.logger.Warn("Send queue full, dropping content event",
				zap.Stringer("userID", event.UserID),
				zap.String("entityType", string(event.EntityType)))
		}
	}
	h.logger.Debug("Content event fanned out",
		zap.Stringer("userID", event.UserID),
		zap.String("entityType", string(event.EntityType)),
		zap.String("action", string(event.Action)),
		zap.Int("delivered", delivered))
	return nil
}

// PublishContentEvent позволяет использовать Hub как локальный publisher, когда брокера нет.
func (h *Hub) PublishContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	return h.HandleContentEvent(ctx, event)
}

// Close закрывает очереди всех клиентов; их writePump отправит CloseMessage.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, conns := range h.clients {
		for c := range conns {
			close(c.send)
		}
		delete(h.clients, userID)
	}
	h.logger.Info("Realtime hub closed")
}
