package chat

import (
	"context"
	"net/http"
	"time"

	"SProject/global"
	"SProject/logger"
	"SProject/module/social/call"
	"SProject/module/social/consent"
	socialmodel "SProject/module/social/model"
	"SProject/module/social/receipt"
	online "SProject/service/storage"
	"SProject/tools/errs"
	"SProject/tools/ids"
	"SProject/tools/safe"
	"SProject/tools/security"
	"SProject/tools/specialerror"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatReader 帧处理需要的最小读面（入群校验等）
type ChatReader interface {
	GetChat(ctx context.Context, chatID string) (*socialmodel.Chat, error)
}

// UserDirectory 呼叫震铃需要主叫的展示信息
type UserDirectory interface {
	Profile(ctx context.Context, userID string) (name, avatar string, err error)
}

type Server struct {
	gwID        string
	presenceTTL time.Duration

	reg    *Registry
	router *Router
	disp   *Dispatcher

	consent *consent.Service
	receipt *receipt.Service
	calls   *call.Coordinator
	chats   ChatReader
	users   UserDirectory
}

func NewServer(cfg global.AppConfig, reg *Registry, router *Router,
	consentSvc *consent.Service, receiptSvc *receipt.Service, calls *call.Coordinator,
	chats ChatReader, users UserDirectory) *Server {
	s := &Server{
		gwID:        cfg.GatewayNodeId,
		presenceTTL: cfg.PresenceTTL,
		reg:         reg,
		router:      router,
		disp:        NewDispatcher(),
		consent:     consentSvc,
		receipt:     receiptSvc,
		calls:       calls,
		chats:       chats,
		users:       users,
	}
	s.registerHandlers()
	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Router() *Router     { return s.router }

// HandleWS websocket 接入：先鉴权再升级，握手成功即注册进在线表
// 和 presence 镜像。读循环只读不写，所有回写都走客户端的写泵。
func (s *Server) HandleWS(c *gin.Context) {
	token := c.Query("token")
	userID, err := security.Verify(security.DefaultOptions(global.GetJwtSecret()), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, global.Fail(&errs.ErrTokenInvalid))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), userID, ws, 256)
	s.reg.Add(client)
	if err := online.PresenceOnline(userID, s.gwID, s.presenceTTL); err != nil {
		logger.Warnf("[HandleWS] presence online user=%s err=%v", userID, err)
	}
	safe.SafeGo(client.WritePump)
	safe.SafeGo(func() { s.refreshPresence(client) })

	client.Enqueue(EncodeEvent("conn:ready", map[string]any{
		"connId": client.ConnID,
		"userId": userID,
	}))
	logger.Infof("[WS] online user=%s conn=%s gw=%s", userID, client.ConnID, s.gwID)

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s", client.ConnID)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", client.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		frame, perr := ParseFrame(data)
		if perr != nil {
			logger.Infof("[WS] bad frame conn=%s err=%v len=%d", client.ConnID, perr, len(data))
			continue
		}
		if derr := s.disp.Dispatch(&Ctx{S: s, Client: client}, frame); derr != nil {
			client.Enqueue(EncodeError(frame.Event, specialerror.ErrCode(derr)))
		}
	}

	s.teardown(client)
}

// refreshPresence 按 TTL/3 续期 presence 镜像，连接关掉即停
func (s *Server) refreshPresence(c *Client) {
	interval := s.presenceTTL / 3
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := online.PresenceOnline(c.UserID, s.gwID, s.presenceTTL); err != nil {
				logger.Warnf("[WS] presence refresh user=%s err=%v", c.UserID, err)
			}
		}
	}
}

// teardown 连接退出：摘在线表、清分组订阅，最后一条连接断开时
// 下线 presence 镜像并挂断在场通话。
func (s *Server) teardown(c *Client) {
	c.Close()
	s.router.DropConn(c.ConnID)
	userID, lastConn := s.reg.Remove(c.ConnID)
	if lastConn {
		if err := online.PresenceOffline(userID, s.gwID); err != nil {
			logger.Warnf("[WS] presence offline user=%s err=%v", userID, err)
		}
		s.calls.DropUser(userID)
	}
	logger.Infof("[WS] offline user=%s conn=%s last=%v", userID, c.ConnID, lastConn)
}
