package model

import (
	"time"

	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRequest status
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// RequesterMessageCap：pending 期间请求方最多可发的消息数（"一条免费，然后等"）
const RequesterMessageCap = 1

const (
	RequestFieldRequestID       = "request_id"
	RequestFieldChatID          = "chat_id"
	RequestFieldToUserID        = "to_user_id"
	RequestFieldStatus          = "status"
	RequestFieldCount           = "requester_message_count"
	RequestFieldLastMessageAt   = "last_message_at"
	RequestFieldLastMessageText = "last_message_text"
	RequestFieldUpdateTime      = "update_time"
)

// MessageRequest 陌生人消息的同意记录：每个单聊最多一条（chat_id 稀疏唯一索引）。
// 两个非好友首次互发消息时创建；之后每条消息刷新计数与预览；accept/decline 终态。
// 永不删除；独立的好友通过流程成立时强制置为 accepted。
type MessageRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RequestID string             `bson:"request_id"` // 全局唯一请求ID（雪花）
	ChatID    string             `bson:"chat_id"`    // 所属单聊（唯一）

	FromUserID string `bson:"from_user_id"` // 请求方（先开口的一侧）
	ToUserID   string `bson:"to_user_id"`   // 接收方（需要点 accept 的一侧）
	Status     string `bson:"status"`       // pending / accepted / declined

	RequesterMessageCount int `bson:"requester_message_count"` // pending 期间请求方已发条数

	// —— 预览冗余（请求列表页展示用）——
	LastMessageAt   time.Time `bson:"last_message_at"`
	LastMessageText string    `bson:"last_message_text"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

func (r *MessageRequest) GetTableName() string {
	return "message_request"
}

func (r *MessageRequest) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(r.GetTableName())
}
