package store

import (
	"context"
	"time"

	socialmodel "SProject/module/social/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	FriendshipColl *mongo.Collection // friendship
	ChatColl       *mongo.Collection // chat
	RequestColl    *mongo.Collection // message_request
	ReadColl       *mongo.Collection // chat_read
	MsgColl        *mongo.Collection // message
}

func NewStore() *Store {
	fr := socialmodel.Friendship{}
	ch := socialmodel.Chat{}
	rq := socialmodel.MessageRequest{}
	rd := socialmodel.ChatRead{}
	mg := socialmodel.Message{}
	return &Store{
		FriendshipColl: fr.Collection(),
		ChatColl:       ch.Collection(),
		RequestColl:    rq.Collection(),
		ReadColl:       rd.Collection(),
		MsgColl:        mg.Collection(),
	}
}

// EnsureIndexes 建立承载不变量的唯一索引：
//   - friendship.pair_key           每个无序对最多一条关系
//   - chat.direct_key (sparse)      每个无序对最多一个单聊
//   - message_request.chat_id (sparse) 每个单聊最多一条消息请求
//   - chat_read.(chat_id,user_id)   每人每会话一个已读光标
//   - message.client_msg_id (sparse) 客户端幂等ID
//
// 并发 insert 竞争靠这些索引收敛：输家拿到 duplicate key，回读赢家文档继续。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	uniq := options.Index().SetUnique(true)
	uniqSparse := options.Index().SetUnique(true).SetSparse(true)

	_, err := s.FriendshipColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: uniq,
	})
	if err != nil {
		return err
	}
	_, err = s.ChatColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}}, Options: uniq},
		{Keys: bson.D{{Key: "direct_key", Value: 1}}, Options: uniqSparse},
	})
	if err != nil {
		return err
	}
	_, err = s.RequestColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}}, Options: uniqSparse,
	})
	if err != nil {
		return err
	}
	_, err = s.ReadColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: uniq,
	})
	if err != nil {
		return err
	}
	_, err = s.MsgColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_msg_id", Value: 1}}, Options: uniqSparse},
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "create_time", Value: 1}}},
	})
	return err
}

func now() time.Time { return time.Now() }

// IsDup duplicate-key 判定（insert 竞争收敛用）
func IsDup(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
