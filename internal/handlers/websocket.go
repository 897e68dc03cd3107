package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"betman-backend/internal/models"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsEvent struct {
	Type       string      `json:"type"`
	RoundID    string      `json:"round_id,omitempty"`
	Multiplier float64     `json:"multiplier,omitempty"`
	CrashPoint float64     `json:"crash_point,omitempty"`
	Bet        interface{} `json:"bet,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to connected websocket clients: crash multiplier
// ticks, crash points, and the global bet feed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

func (h *Hub) BroadcastCrashTick(roundID string, multiplier float64) {
	h.broadcast(&wsEvent{Type: "crash_tick", RoundID: roundID, Multiplier: multiplier})
}

func (h *Hub) BroadcastCrash(roundID string, crashPoint float64) {
	h.broadcast(&wsEvent{Type: "crash", RoundID: roundID, CrashPoint: crashPoint})
}

func (h *Hub) BroadcastBet(bet *models.Bet) {
	h.broadcast(&wsEvent{Type: "bet", Bet: gin.H{
		"game":        bet.Game,
		"initial_bet": bet.InitialBet,
		"bet_result":  bet.BetResult,
		"created_at":  bet.CreatedAt,
	}})
}

func (h *Hub) broadcast(event *wsEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal websocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// slow client, drop the event rather than block the caller
		}
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 64)}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	// clients only listen; drain until the connection drops
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
