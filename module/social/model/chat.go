package model

import (
	"time"

	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Chat type
const (
	ChatTypeDirect int32 = 1 // 单聊：一对用户唯一一个
	ChatTypeGroup  int32 = 2 // 群聊：无发送门禁
)

const (
	ChatFieldChatID            = "chat_id"
	ChatFieldDirectKey         = "direct_key"
	ChatFieldMembers           = "members"
	ChatFieldHiddenFor         = "hidden_for"
	ChatFieldLastMessageAt     = "last_message_at"
	ChatFieldLastMessageText   = "last_message_text"
	ChatFieldLastMessageSender = "last_message_sender_id"
)

// Chat 会话主档。单聊以 direct_key（sorted "a:b"）唯一，首次发消息懒创建；
// last_message_* 为列表页冗余，发消息时刷新。
type Chat struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	ChatID   string             `bson:"chat_id"`   // 会话ID（雪花）
	ChatType int32              `bson:"chat_type"` // 1=单聊 2=群聊

	DirectKey string   `bson:"direct_key,omitempty"` // 仅单聊：无序对唯一键（稀疏唯一索引）
	UserA     string   `bson:"user_a,omitempty"`     // 仅单聊：排序后较小一端
	UserB     string   `bson:"user_b,omitempty"`     // 仅单聊：排序后较大一端
	Members   []string `bson:"members,omitempty"`    // 成员列表（单聊也冗余双方，列表查询用）

	// —— 列表页冗余 ——
	LastMessageAt       time.Time `bson:"last_message_at,omitempty"`
	LastMessageText     string    `bson:"last_message_text,omitempty"`
	LastMessageSenderID string    `bson:"last_message_sender_id,omitempty"`

	// HiddenFor：对这些用户隐藏（decline 消息请求后对接收方隐藏；accept 时清空）
	HiddenFor []string `bson:"hidden_for,omitempty"`

	CreateTime time.Time `bson:"create_time"`
}

func (c *Chat) GetTableName() string {
	return "chat"
}

func (c *Chat) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

func (c *Chat) IsDirect() bool {
	return c.ChatType == ChatTypeDirect
}

// OtherMember 单聊里 user 的对端；非单聊返回空串
func (c *Chat) OtherMember(user string) string {
	if !c.IsDirect() {
		return ""
	}
	if c.UserA == user {
		return c.UserB
	}
	if c.UserB == user {
		return c.UserA
	}
	return ""
}

// HasMember user 是否属于该会话
func (c *Chat) HasMember(user string) bool {
	if c.IsDirect() {
		return c.UserA == user || c.UserB == user
	}
	for _, m := range c.Members {
		if m == user {
			return true
		}
	}
	return false
}
