package receipt

import (
	"sync"
	"time"
)

// Gate 已读上报的准入条件：会话是当前激活会话、视口滚到最新
// 一条、页面在前台。三者同时满足才允许上报。
type Gate struct {
	ChatActive       bool
	ScrolledToBottom bool
	Focused          bool
}

func (g Gate) Open() bool {
	return g.ChatActive && g.ScrolledToBottom && g.Focused
}

// Mark 一次待上报的已读光标
type Mark struct {
	LastReadMessageID string
	ReadAt            time.Time
}

// Emitter 已读上报的去抖器。连续快速的 Observe 被合并，每个会话
// 只保留最新一条；门禁关闭时挂起，门禁每次由关转开至多触发一次
// 补发，而不是按定时器轮询重复发。
type Emitter struct {
	mu      sync.Mutex
	send    func(chatID string, m Mark)
	gates   map[string]Gate
	pending map[string]Mark
}

func NewEmitter(send func(chatID string, m Mark)) *Emitter {
	return &Emitter{
		send:    send,
		gates:   make(map[string]Gate),
		pending: make(map[string]Mark),
	}
}

// Observe 记录用户看到了某条消息。门禁开着立即上报，否则合并挂起。
func (e *Emitter) Observe(chatID, messageID string, readAt time.Time) {
	e.mu.Lock()
	if cur, ok := e.pending[chatID]; ok && !readAt.After(cur.ReadAt) {
		e.mu.Unlock()
		return
	}
	m := Mark{LastReadMessageID: messageID, ReadAt: readAt}
	if e.gates[chatID].Open() {
		delete(e.pending, chatID)
		e.mu.Unlock()
		e.send(chatID, m)
		return
	}
	e.pending[chatID] = m
	e.mu.Unlock()
}

// SetGate 更新门禁。由关转开时把挂起的最新光标补发出去（至多一次）。
func (e *Emitter) SetGate(chatID string, g Gate) {
	e.mu.Lock()
	wasOpen := e.gates[chatID].Open()
	e.gates[chatID] = g
	if wasOpen || !g.Open() {
		e.mu.Unlock()
		return
	}
	m, ok := e.pending[chatID]
	if ok {
		delete(e.pending, chatID)
	}
	e.mu.Unlock()
	if ok {
		e.send(chatID, m)
	}
}
