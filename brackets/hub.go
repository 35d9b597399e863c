package brackets

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/Dosada05/lobby-tracker/repositories"
	"github.com/gorilla/websocket"
)

// MessageTournamentSnapshot carries the whole tournament record; clients replace their state with it.
const MessageTournamentSnapshot = "TOURNAMENT_SNAPSHOT"

type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Room     string
	IsClosed bool
	Mu       sync.Mutex
}

type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"` // код турнира
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// room is one tournament code. The store subscription lives exactly as long as
// the room has clients.
type room struct {
	clients     map[*Client]bool
	last        []byte
	unsubscribe func()
}

// Hub fans tournament snapshots out to websocket spectators, one room per code.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	store  repositories.TournamentStore
	logger *slog.Logger
	rooms  map[string]*room
	mu     sync.RWMutex
	done   chan struct{}
}

func NewHub(store repositories.TournamentStore, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
		logger:     logger,
		rooms:      make(map[string]*room),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled, then drops every subscription.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.Register:
			h.register(ctx, client)
		case client := <-h.Unregister:
			h.unregister(client)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) register(ctx context.Context, client *Client) {
	h.mu.Lock()
	r, exists := h.rooms[client.Room]
	if !exists {
		r = &room{clients: make(map[*Client]bool)}
		h.rooms[client.Room] = r
	}
	r.clients[client] = true
	if r.last != nil {
		client.trySend(r.last)
	}
	total := len(r.clients)
	h.mu.Unlock()

	h.logger.Debug("client registered", slog.String("room", client.Room), slog.Int("clients", total))
	if exists {
		return
	}

	// Subscribe вызывает колбэк синхронно, поэтому без h.mu.
	code := client.Room
	unsubscribe, err := h.store.Subscribe(ctx, code, func(t *models.Tournament) {
		h.BroadcastToRoom(code, WebSocketMessage{Type: MessageTournamentSnapshot, Payload: t, RoomID: code})
	})
	if err != nil {
		h.logger.Error("failed to subscribe to tournament", slog.String("room", code), slog.Any("error", err))
		h.mu.Lock()
		if current, ok := h.rooms[code]; ok && current == r {
			for c := range r.clients {
				c.close()
			}
			delete(h.rooms, code)
		}
		h.mu.Unlock()
		return
	}

	h.mu.Lock()
	if current, ok := h.rooms[code]; ok && current == r {
		r.unsubscribe = unsubscribe
		unsubscribe = nil
	}
	h.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *Hub) unregister(client *Client) {
	var unsubscribe func()

	h.mu.Lock()
	r, ok := h.rooms[client.Room]
	if ok && r.clients[client] {
		client.close()
		delete(r.clients, client)
		if len(r.clients) == 0 {
			delete(h.rooms, client.Room)
			unsubscribe = r.unsubscribe
			h.logger.Debug("room closed as it's empty", slog.String("room", client.Room))
		}
	}
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	var unsubscribes []func()
	for code, r := range h.rooms {
		for client := range r.clients {
			client.close()
		}
		if r.unsubscribe != nil {
			unsubscribes = append(unsubscribes, r.unsubscribe)
		}
		delete(h.rooms, code)
	}
	h.mu.Unlock()

	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
	close(h.done)
}

// BroadcastToRoom sends message to every client of the room and remembers it
// for clients that join later.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	r.last = messageBytes
	for client := range r.clients {
		if !client.trySend(messageBytes) {
			h.logger.Warn("client send buffer full, dropping message", slog.String("room", roomID))
		}
	}
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.rooms[roomID]; ok {
		return len(r.clients)
	}
	return 0
}

func (c *Client) trySend(message []byte) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.IsClosed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if !c.IsClosed {
		close(c.Send)
		c.IsClosed = true
	}
}

func (c *Client) ReadPump() {
	logger := c.Hub.logger.With(slog.String("room", c.Room))
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		// Зрители только читают; входящие сообщения игнорируются.
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket closed unexpectedly", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	logger := c.Hub.logger.With(slog.String("room", c.Room))
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Каждый снимок - отдельное сообщение, клиент парсит их по одному.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("websocket ping failed", slog.Any("error", err))
				return
			}
		}
	}
}
