package model

import (
	"time"

	"SProject/data/database"
	mgo "SProject/service/mgo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ database.Table = (*User)(nil)

// Status
const (
	UserNormal int32 = 0
	UserBanned int32 = 1
)

const (
	UserFieldUserID   = "user_id"
	UserFieldUsername = "username"
)

// User 用户主档。只放身份与展示信息，社交关系在 module/social。
type User struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID string             `bson:"user_id"` // 全局唯一、不可变（雪花）

	Username     string `bson:"username"` // 登录名（唯一索引）
	PasswordHash string `bson:"password_hash"`
	PasswordSalt string `bson:"password_salt"`

	Nickname string `bson:"nickname"` // 显示名
	FaceURL  string `bson:"face_url"` // 头像URL
	Status   int32  `bson:"status,omitempty"`

	CreateTime time.Time `bson:"create_time"`
	UpdateTime time.Time `bson:"update_time"`
}

func (u *User) GetTableName() string {
	return "user"
}

func (u *User) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(u.GetTableName())
}
