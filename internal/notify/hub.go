package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/velora-shop/internal/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UnreadPayload 推送给客户端的未读数帧
type UnreadPayload struct {
	UnreadCount int64 `json:"unreadCount"`
}

// Hub 按用户维护在线 WebSocket 连接。
// 同一用户允许多个连接（多开标签页），推送时逐个写入。
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]bool
}

// NewHub 创建推送中心
func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*websocket.Conn]bool)}
}

// HandleConnection 升级请求并托管连接直至对端断开
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("ws_upgrade_failed", "user_id", userID, "error", err)
		return
	}
	h.register(userID, conn)
	defer func() {
		h.unregister(userID, conn)
		conn.Close()
	}()

	// 只收不处理，读错误即视为断开
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// PushUnread 向用户的所有在线连接推送未读数
func (h *Hub) PushUnread(userID uint, unreadCount int64) {
	payload, err := json.Marshal(UnreadPayload{UnreadCount: unreadCount})
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[userID]))
	for conn := range h.clients[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.unregister(userID, conn)
			conn.Close()
		}
	}
}

// OnlineCount 在线连接数（测试与健康检查用）
func (h *Hub) OnlineCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
}

func (h *Hub) unregister(userID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}
