package events

import "time"

// 事件负载。字段名即 wire 契约，客户端按 json tag 消费。

type MessageNewData struct {
	MessageID   string    `json:"messageId"`
	ChatID      string    `json:"chatId"`
	SenderID    string    `json:"senderId"`
	ClientMsgID string    `json:"clientMsgId,omitempty"`
	Type        int32     `json:"type"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MessageRequestData struct {
	RequestID       string    `json:"requestId"`
	ChatID          string    `json:"chatId"`
	FromUserID      string    `json:"fromUserId"`
	ToUserID        string    `json:"toUserId"`
	Status          string    `json:"status"`
	LastMessageAt   time.Time `json:"lastMessageAt"`
	LastMessageText string    `json:"lastMessageText"`
}

type ChatActivatedData struct {
	ChatID string `json:"chatId"`
}

type ReadUpdateData struct {
	ChatID            string    `json:"chatId"`
	UserID            string    `json:"userId"`
	LastReadMessageID string    `json:"lastReadMessageId"`
	ReadAt            time.Time `json:"readAt"`
}

type FriendRequestData struct {
	PairKey    string `json:"pairKey"`
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
	Status     string `json:"status"`
}

type CallIncomingData struct {
	CallID       string `json:"callId"`
	ChatID       string `json:"chatId"`
	CallerID     string `json:"callerId"`
	CallerName   string `json:"callerName"`
	CallerAvatar string `json:"callerAvatar"`
}

type CallAcceptData struct {
	CallID string `json:"callId"`
}

type CallDeclineData struct {
	CallID string `json:"callId"`
	Reason string `json:"reason"`
}

type CallEndData struct {
	CallID string `json:"callId"`
	Reason string `json:"reason"`
}
