package events

// 实时事件面：事件名 + 负载形态即 wire 契约。
// 状态机只产出 Event 列表，由 Sink（网关 Router）负责真正投递，
// 这样核心逻辑不依赖任何传输层，可独立单测。

const (
	EventMessageNew = "message:new"

	EventMessageRequestNew      = "message_request:new"
	EventMessageRequestAccepted = "message_request:accepted"
	EventMessageRequestDeclined = "message_request:declined"
	EventChatActivated          = "chat:activated"

	EventChatReadUpdate = "chat:readUpdate"

	EventFriendRequestNew      = "friend_request:new"
	EventFriendRequestAccepted = "friend_request:accepted"

	EventCallIncoming = "call:incoming"
	EventCallAccept   = "call:accept"
	EventCallDecline  = "call:decline"
	EventCallEnd      = "call:end"
)

type Scope int

const (
	ScopeUser  Scope = iota // 投递给某个用户的全部连接
	ScopeGroup              // 广播给某个 chat 分组的全部订阅连接
)

// Event 一次待投递的事件。Target 按 Scope 解释为 userID 或 groupID(chatID)。
type Event struct {
	Scope  Scope
	Target string
	Name   string
	Data   any
}

func ToUser(userID, name string, data any) Event {
	return Event{Scope: ScopeUser, Target: userID, Name: name, Data: data}
}

func ToGroup(groupID, name string, data any) Event {
	return Event{Scope: ScopeGroup, Target: groupID, Name: name, Data: data}
}

// Sink 投递端。投递是 best-effort / at-most-once：离线即丢弃，永不排队重试。
type Sink interface {
	SendToUser(userID, event string, data any)
	BroadcastToGroup(groupID, event string, data any)
}

// Dispatch 把状态机产出的事件交给 Sink。
func Dispatch(s Sink, evs []Event) {
	if s == nil {
		return
	}
	for _, ev := range evs {
		switch ev.Scope {
		case ScopeUser:
			s.SendToUser(ev.Target, ev.Name, ev.Data)
		case ScopeGroup:
			s.BroadcastToGroup(ev.Target, ev.Name, ev.Data)
		}
	}
}
