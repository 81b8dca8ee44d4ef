package store

import (
	"context"
	"time"

	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MarkRead 已读光标单调推进。read_at 只增不减：过期/乱序上报
// 命中 $lt 条件失败，matched=false，光标原样保持。
func (s *Store) MarkRead(ctx context.Context, chatID, userID, lastReadMsgID string, readAt time.Time) (bool, error) {
	res, err := s.ReadColl.UpdateOne(ctx,
		bson.M{
			socialmodel.ChatReadFieldChatID: chatID,
			socialmodel.ChatReadFieldUserID: userID,
			socialmodel.ChatReadFieldReadAt: bson.M{"$lt": readAt},
		},
		bson.M{"$set": bson.M{
			socialmodel.ChatReadFieldLastReadMsgID: lastReadMsgID,
			socialmodel.ChatReadFieldReadAt:        readAt,
		}},
	)
	if err != nil {
		return false, errs.Wrap(err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	// 无文档时首次建档。与 $lt 过滤的 upsert 分两步做，
	// 避免旧上报在无文档时被 upsert 成倒退的光标。
	doc := &socialmodel.ChatRead{
		ChatID:            chatID,
		UserID:            userID,
		LastReadMessageID: lastReadMsgID,
		ReadAt:            readAt,
	}
	_, err = s.ReadColl.InsertOne(ctx, doc)
	if IsDup(err) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(err)
	}
	return true, nil
}

// GetReadMarks 返回会话内除 exceptUser 外所有成员的已读光标
func (s *Store) GetReadMarks(ctx context.Context, chatID, exceptUser string) ([]*socialmodel.ChatRead, error) {
	cur, err := s.ReadColl.Find(ctx, bson.M{
		socialmodel.ChatReadFieldChatID: chatID,
		socialmodel.ChatReadFieldUserID: bson.M{"$ne": exceptUser},
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	var out []*socialmodel.ChatRead
	for cur.Next(ctx) {
		var r socialmodel.ChatRead
		if err := cur.Decode(&r); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &r)
	}
	return out, errs.Wrap(cur.Err())
}

// GetReadMark 单用户光标，不存在返回 (nil, nil)
func (s *Store) GetReadMark(ctx context.Context, chatID, userID string) (*socialmodel.ChatRead, error) {
	var r socialmodel.ChatRead
	err := s.ReadColl.FindOne(ctx, bson.M{
		socialmodel.ChatReadFieldChatID: chatID,
		socialmodel.ChatReadFieldUserID: userID,
	}).Decode(&r)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &r, nil
}

// LatestMessageAtOrBefore 取 create_time <= t 的最新一条消息，
// 光标归因的回退路径用。没有则 (nil, nil)。
func (s *Store) LatestMessageAtOrBefore(ctx context.Context, chatID string, t time.Time) (*socialmodel.Message, error) {
	var m socialmodel.Message
	err := s.MsgColl.FindOne(ctx,
		bson.M{
			socialmodel.MessageFieldChatID:     chatID,
			socialmodel.MessageFieldCreateTime: bson.M{"$lte": t},
		},
		options.FindOne().SetSort(bson.D{{Key: socialmodel.MessageFieldCreateTime, Value: -1}}),
	).Decode(&m)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &m, nil
}
