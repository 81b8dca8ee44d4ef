package chat

import (
	"time"

	"SProject/logger"
	"github.com/gorilla/websocket"
)

// Client represents one authenticated websocket connection.
// A user may hold several at once (multiple devices / tabs), each with
// its own send queue drained by a single writer goroutine.
type Client struct {
	ConnID string
	UserID string
	WS     *websocket.Conn
	Send   chan []byte

	done chan struct{}
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// WritePump 单写协程：gorilla 的 WriteMessage 不允许并发调用，
// 所有出站数据都经 Send 队列串行化，顺带维持 ping。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case payload, ok := <-c.Send:
			if !ok {
				return
			}
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write failed conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Enqueue 非阻塞入队。慢客户端队列打满直接丢帧（best-effort 投递）。
func (c *Client) Enqueue(payload []byte) bool {
	if payload == nil {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Infof("[WS] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
		return false
	}
}

// Close 通知写泵收尾
func (c *Client) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
