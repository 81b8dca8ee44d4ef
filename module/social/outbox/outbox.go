// Package outbox 客户端发件箱：每条本地生成的消息带显式的
// pending/confirmed/failed 状态，重发与服务端确认按 localID 对账。
// 服务端用 client_msg_id 幂等索引兜重复，这里只负责客户端状态。
package outbox

import (
	"sync"
	"time"
)

type Status int

const (
	StatusPending Status = iota + 1
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Entry struct {
	LocalID     string
	ChatID      string
	ContentType int32
	Content     string
	Status      Status
	MessageID   string // 服务端确认后的消息ID
	LastError   string
	EnqueuedAt  time.Time
}

type Outbox struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

func New() *Outbox {
	return &Outbox{entries: make(map[string]*Entry)}
}

// Add 入列一条待发消息。localID 重复时返回已有条目（重发不重复入列）。
func (o *Outbox) Add(localID, chatID string, contentType int32, content string) *Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.entries[localID]; ok {
		return e
	}
	e := &Entry{
		LocalID:     localID,
		ChatID:      chatID,
		ContentType: contentType,
		Content:     content,
		Status:      StatusPending,
		EnqueuedAt:  time.Now(),
	}
	o.entries[localID] = e
	o.order = append(o.order, localID)
	return e
}

// Confirm 服务端确认落库，记下服务端消息ID
func (o *Outbox) Confirm(localID, messageID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[localID]
	if !ok || e.Status == StatusConfirmed {
		return false
	}
	e.Status = StatusConfirmed
	e.MessageID = messageID
	e.LastError = ""
	return true
}

// Fail 标记失败，等待重发或放弃。已确认的条目不可改回失败。
func (o *Outbox) Fail(localID, reason string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[localID]
	if !ok || e.Status == StatusConfirmed {
		return false
	}
	e.Status = StatusFailed
	e.LastError = reason
	return true
}

// Retry failed -> pending，重连后重发用
func (o *Outbox) Retry(localID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[localID]
	if !ok || e.Status != StatusFailed {
		return false
	}
	e.Status = StatusPending
	return true
}

// Unsettled 按入列顺序返回所有未确认条目的快照
func (o *Outbox) Unsettled() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Entry
	for _, id := range o.order {
		if e := o.entries[id]; e.Status != StatusConfirmed {
			out = append(out, *e)
		}
	}
	return out
}

// Drop 移除条目（确认后清理或用户放弃重发）
func (o *Outbox) Drop(localID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.entries[localID]; !ok {
		return
	}
	delete(o.entries, localID)
	for i, id := range o.order {
		if id == localID {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}
