package chat

import (
	"sync"

	"SProject/logger"
	online "SProject/service/storage"
)

// Relay 跨网关转发端（NATS）。本网关投递不经过它。
type Relay interface {
	PublishToUser(gatewayID, userID, event string, data any) error
	PublishToGroup(chatID, event string, data any) error
}

// Router 事件投递面，实现 module/social/events.Sink。
// 投递语义是 best-effort / at-most-once：本地在线连接直接入队，
// 远端在线按 presence 镜像转发给对应网关，离线即丢弃，不排队不重试。
type Router struct {
	gwID   string
	reg    *Registry
	fanout *Fanout
	relay  Relay

	mu     sync.RWMutex
	groups map[string]map[string]*Client // chatID -> connID -> client
}

func NewRouter(gwID string, reg *Registry, relay Relay) *Router {
	return &Router{
		gwID:   gwID,
		reg:    reg,
		fanout: NewFanout(4, 4096),
		relay:  relay,
		groups: make(map[string]map[string]*Client),
	}
}

// SendToUser 投递给用户的所有连接：本地直接入队，异地网关走转发。
func (r *Router) SendToUser(userID, event string, data any) {
	payload := EncodeEvent(event, data)
	if payload == nil {
		return
	}
	if conns := r.reg.ListByUser(userID); len(conns) > 0 {
		r.fanout.Broadcast(conns, payload)
	}
	if r.relay == nil {
		return
	}
	gateways, ok, err := online.PresenceLookup(userID)
	if err != nil {
		logger.Warnf("[router] presence lookup %s failed: %v", userID, err)
		return
	}
	if !ok {
		return
	}
	for _, gw := range gateways {
		if gw == r.gwID {
			continue
		}
		if err := r.relay.PublishToUser(gw, userID, event, data); err != nil {
			logger.Warnf("[router] relay to gw=%s user=%s failed: %v", gw, userID, err)
		}
	}
}

// BroadcastToGroup 广播给某个会话分组的订阅连接，跨网关扇出。
func (r *Router) BroadcastToGroup(chatID, event string, data any) {
	r.DeliverLocalGroup(chatID, event, data)
	if r.relay != nil {
		if err := r.relay.PublishToGroup(chatID, event, data); err != nil {
			logger.Warnf("[router] relay group=%s failed: %v", chatID, err)
		}
	}
}

// DeliverLocalUser 转发消费端入口：只投本地连接，避免回声再转发
func (r *Router) DeliverLocalUser(userID, event string, data any) {
	payload := EncodeEvent(event, data)
	if payload == nil {
		return
	}
	if conns := r.reg.ListByUser(userID); len(conns) > 0 {
		r.fanout.Broadcast(conns, payload)
	}
}

// DeliverLocalGroup 只投本地分组成员
func (r *Router) DeliverLocalGroup(chatID, event string, data any) {
	payload := EncodeEvent(event, data)
	if payload == nil {
		return
	}
	r.mu.RLock()
	m := r.groups[chatID]
	conns := make([]*Client, 0, len(m))
	for _, c := range m {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	r.fanout.Broadcast(conns, payload)
}

// JoinGroup 把连接订阅进会话分组（客户端打开会话时调用）
func (r *Router) JoinGroup(chatID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.groups[chatID]
	if m == nil {
		m = make(map[string]*Client)
		r.groups[chatID] = m
	}
	m[c.ConnID] = c
}

func (r *Router) LeaveGroup(chatID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.groups[chatID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.groups, chatID)
		}
	}
}

// DropConn 连接退出时清掉它的所有分组订阅
func (r *Router) DropConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for chatID, m := range r.groups {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.groups, chatID)
		}
	}
}
