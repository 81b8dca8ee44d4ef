package model

import (
	"time"

	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ContentType
const (
	ContentText  int32 = 1
	ContentImage int32 = 2
	ContentAudio int32 = 3
)

const (
	MessageFieldMessageID   = "message_id"
	MessageFieldChatID      = "chat_id"
	MessageFieldClientMsgID = "client_msg_id"
	MessageFieldCreateTime  = "create_time"
)

// Message 一条聊天消息。会话内按 create_time 追加/回读，满足单发送方有序。
// client_msg_id 为客户端幂等ID（稀疏唯一索引）：outbox 重发同一条消息时，
// 服务端返回已存文档而不是写第二条。
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	MessageID string             `bson:"message_id"` // 服务端消息ID（雪花）
	ChatID    string             `bson:"chat_id"`

	SenderID    string `bson:"sender_id"`
	ClientMsgID string `bson:"client_msg_id,omitempty"` // 客户端幂等ID（可空）

	ContentType int32  `bson:"content_type"` // 1=文本 2=图片 3=语音
	Content     string `bson:"content"`

	CreateTime time.Time `bson:"create_time"`
}

func (m *Message) GetTableName() string {
	return "message"
}

func (m *Message) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}
