package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"card-scanner/internal/domain/entity"
	"card-scanner/internal/domain/port"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait / 2
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Box рамка в пикселях слоя превью.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label"`
}

// Message снимок рамок, который получают зрители.
type Message struct {
	UserID int64   `json:"user_id"`
	Seq    uint64  `json:"seq"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Faces  []Box   `json:"faces"`
}

// Hub рассылает рамки живого сканирования подключённым зрителям.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger.Named("preview"),
	}
}

// Run обслуживает подключения до отмены контекста. Вызывается один раз.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warn("send overlay", zap.Error(err))
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-ticker.C:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// ClientCount возвращает число подключённых зрителей.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Sink возвращает приёмник рамок для живого сканирования пользователя.
func (h *Hub) Sink(userID int64) port.OverlaySink {
	return &userSink{hub: h, userID: userID}
}

type userSink struct {
	hub    *Hub
	userID int64
}

// Present не блокирует рендерер: если очередь полна, снимок пропускается,
// следующий всё равно его заменит.
func (s *userSink) Present(ctx context.Context, overlay entity.Overlay) error {
	msg := Message{
		UserID: s.userID,
		Seq:    overlay.Seq,
		Width:  overlay.ViewSize.Width,
		Height: overlay.ViewSize.Height,
		Faces:  make([]Box, 0, overlay.Len()),
	}
	for _, el := range overlay.Elements {
		msg.Faces = append(msg.Faces, Box{
			X:      el.Rect.X,
			Y:      el.Rect.Y,
			Width:  el.Rect.Width,
			Height: el.Rect.Height,
			Label:  el.Label,
		})
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case s.hub.broadcast <- data:
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.hub.logger.Debug("preview queue is full", zap.Uint64("seq", overlay.Seq))
	}
	return nil
}

// Handler подключает зрителя по WebSocket.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade", zap.Error(err))
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(pongWait))
		connection.SetPongHandler(func(string) error {
			connection.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		select {
		case h.register <- connection:
		case <-h.done:
			connection.Close()
			return
		}

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}

		select {
		case h.unregister <- connection:
		case <-h.done:
		}
	}
}
