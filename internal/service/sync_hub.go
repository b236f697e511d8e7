package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"talentflow_backend/internal/model"
	"talentflow_backend/pkg/logger"
	"talentflow_backend/pkg/monitoring"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64

	syncChannel = "assessment_sync"

	MessageSyncStatus = "SYNC_STATUS"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SyncClient 订阅某个职位同步状态的websocket连接
type SyncClient struct {
	Hub   *SyncHub
	Conn  *websocket.Conn
	Send  chan []byte
	JobID string
}

// readPump 只负责保持连接，客户端不发送指令
func (c *SyncClient) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket unexpected close", zap.Error(err), zap.String("job_id", c.JobID))
			}
			return
		}
	}
}

func (c *SyncClient) writePump() {
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
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type pubSubMessage struct {
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

// SyncHub 把同步状态变化推送给websocket订阅者。
// 配置redis时通过 pub/sub 转发，所有实例都能收到
type SyncHub struct {
	mu      sync.RWMutex
	clients map[string]map[*SyncClient]bool

	register   chan *SyncClient
	unregister chan *SyncClient
	Redis      *redis.Client
	done       chan struct{}
}

func NewSyncHub(rdb *redis.Client) *SyncHub {
	return &SyncHub{
		clients:    make(map[string]map[*SyncClient]bool),
		register:   make(chan *SyncClient),
		unregister: make(chan *SyncClient),
		Redis:      rdb,
		done:       make(chan struct{}),
	}
}

// Run 处理注册直到ctx结束，然后关闭所有连接
func (h *SyncHub) Run(ctx context.Context) {
	if h.Redis != nil {
		pubsub := h.Redis.Subscribe(ctx, syncChannel)
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				var ps pubSubMessage
				if err := json.Unmarshal([]byte(msg.Payload), &ps); err != nil {
					logger.Log.Error("PubSub unmarshal error", zap.Error(err))
					continue
				}
				h.pushLocal(ps.JobID, ps.Payload)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			h.stop()
			return
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.JobID]
			if !ok {
				set = make(map[*SyncClient]bool)
				h.clients[client.JobID] = set
			}
			set[client] = true
			h.mu.Unlock()
			monitoring.SyncSubscribers.Inc()
		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.JobID]; ok && set[client] {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.JobID)
				}
				close(client.Send)
				monitoring.SyncSubscribers.Dec()
			}
			h.mu.Unlock()
		}
	}
}

// Publish 实现 StatusNotifier
func (h *SyncHub) Publish(status model.SyncStatus) {
	payload, err := json.Marshal(WSMessage{Type: MessageSyncStatus, Data: status})
	if err != nil {
		logger.Log.Error("Sync status marshal error", zap.Error(err))
		return
	}
	if h.Redis == nil {
		h.pushLocal(status.JobID, payload)
		return
	}
	msg, _ := json.Marshal(pubSubMessage{JobID: status.JobID, Payload: payload})
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := h.Redis.Publish(ctx, syncChannel, msg).Err(); err != nil {
		logger.Log.Warn("Sync status publish failed, delivering locally", zap.Error(err))
		h.pushLocal(status.JobID, payload)
	}
}

// Subscribers 职位在本实例的连接数
func (h *SyncHub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

func (h *SyncHub) pushLocal(jobID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[jobID] {
		select {
		case client.Send <- payload:
		default:
			// 消费过慢，下次变化时再追上
		}
	}
}

func (h *SyncHub) stop() {
	close(h.done)
	h.mu.Lock()
	n := 0
	for jobID, set := range h.clients {
		for client := range set {
			close(client.Send)
			n++
		}
		delete(h.clients, jobID)
	}
	h.mu.Unlock()
	monitoring.SyncSubscribers.Set(0)
	logger.Log.Info("SyncHub stopped", zap.Int("closedConnections", n))
}

// ServeWs 升级连接并订阅 jobID，已知当前状态时先发送
func ServeWs(hub *SyncHub, w http.ResponseWriter, r *http.Request, jobID string, current *model.SyncStatus) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.String("job_id", jobID))
		return
	}
	client := &SyncClient{
		Hub:   hub,
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		JobID: jobID,
	}
	if current != nil {
		if payload, err := json.Marshal(WSMessage{Type: MessageSyncStatus, Data: current}); err == nil {
			client.Send <- payload
		}
	}
	select {
	case client.Hub.register <- client:
	case <-client.Hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
