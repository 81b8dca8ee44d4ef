package model

import (
	"time"

	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ChatReadFieldChatID        = "chat_id"
	ChatReadFieldUserID        = "user_id"
	ChatReadFieldLastReadMsgID = "last_read_message_id"
	ChatReadFieldReadAt        = "read_at"
)

// ChatRead 用户在某会话的已读光标，(chat_id, user_id) 唯一。
// 不变量：read_at 单调不减 —— 带旧时间戳的更新是 no-op（网络重放安全）。
type ChatRead struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	ChatID string             `bson:"chat_id"`
	UserID string             `bson:"user_id"`

	LastReadMessageID string    `bson:"last_read_message_id"` // 最新已读消息ID
	ReadAt            time.Time `bson:"read_at"`              // 已读时间（单调推进）
}

func (r *ChatRead) GetTableName() string {
	return "chat_read"
}

func (r *ChatRead) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(r.GetTableName())
}
