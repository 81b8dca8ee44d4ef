package chat

import (
	"sync"
)

// Registry 本网关的在线表，语义固定为“每用户一组连接”：
// 同一用户的多端连接各自独立注册，互不顶号。生命周期明确，
// 握手成功时 Add，连接退出时 Remove，没有旁路写入点。
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // userID -> connID -> client
	byConn map[string]*Client            // connID -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
	r.byConn[c.ConnID] = c
}

// Remove 摘除连接。返回该用户是否已无任何在线连接（最后一条断开）。
func (r *Registry) Remove(connID string) (userID string, lastConn bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)
	userID = c.UserID
	if m := r.byUser[userID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, userID)
			lastConn = true
		}
	}
	return userID, lastConn
}

// ListByUser 该用户当前的全部连接快照
func (r *Registry) ListByUser(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (r *Registry) GetByConn(connID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) ConnCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
