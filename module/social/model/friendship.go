package model

import (
	"time"

	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Friendship status
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipBlocked  = "blocked"
)

// 字段名常量（store 层拼 filter 用，避免裸字符串散落）
const (
	FriendshipFieldPairKey     = "pair_key"
	FriendshipFieldUserA       = "user_a"
	FriendshipFieldUserB       = "user_b"
	FriendshipFieldStatus      = "status"
	FriendshipFieldRequestedBy = "requested_by"
	FriendshipFieldBlockedBy   = "blocked_by"
	FriendshipFieldCreateTime  = "create_time"
	FriendshipFieldUpdateTime  = "update_time"
)

// Friendship 表示一对用户的好友关系，无序对全局只存一条。
// pair_key = 排序后的 "a:b"，建唯一索引保证不变量。
// unfriend 时删除文档；blocked 文档永不删除，只允许改向。
type Friendship struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"` // MongoDB 主键
	PairKey string             `bson:"pair_key"`      // 无序对唯一键（sorted "a:b"）
	UserA   string             `bson:"user_a"`        // 排序后较小的一端
	UserB   string             `bson:"user_b"`        // 排序后较大的一端

	Status      string `bson:"status"`       // pending / accepted / blocked
	RequestedBy string `bson:"requested_by"` // 好友申请发起方
	BlockedBy   string `bson:"blocked_by,omitempty"` // 拉黑方（仅 status=blocked 有效）

	CreateTime time.Time `bson:"create_time"` // 首次申请时间
	UpdateTime time.Time `bson:"update_time"` // 最后一次状态变化
}

func (f *Friendship) GetTableName() string {
	return "friendship"
}

func (f *Friendship) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(f.GetTableName())
}

// Involves 该关系是否包含 user
func (f *Friendship) Involves(user string) bool {
	return f.UserA == user || f.UserB == user
}

// Other 返回 user 的对端
func (f *Friendship) Other(user string) string {
	if f.UserA == user {
		return f.UserB
	}
	return f.UserA
}
