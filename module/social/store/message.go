package store

import (
	"context"

	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertMessage 落库。client_msg_id 稀疏唯一索引做重发幂等：
// 重复插入回读首次落库的那条，created=false。
func (s *Store) InsertMessage(ctx context.Context, msg *socialmodel.Message) (*socialmodel.Message, bool, error) {
	_, err := s.MsgColl.InsertOne(ctx, msg)
	if IsDup(err) && msg.ClientMsgID != "" {
		var existing socialmodel.Message
		gerr := s.MsgColl.FindOne(ctx, bson.M{socialmodel.MessageFieldClientMsgID: msg.ClientMsgID}).Decode(&existing)
		if gerr != nil {
			return nil, false, errs.Wrap(gerr)
		}
		return &existing, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err)
	}
	return msg, true, nil
}

// GetMessage 按 message_id 查消息，不存在返回 (nil, nil)
func (s *Store) GetMessage(ctx context.Context, messageID string) (*socialmodel.Message, error) {
	var m socialmodel.Message
	err := s.MsgColl.FindOne(ctx, bson.M{socialmodel.MessageFieldMessageID: messageID}).Decode(&m)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &m, nil
}

// ListMessages 按时间倒序翻页
func (s *Store) ListMessages(ctx context.Context, chatID string, limit int64) ([]*socialmodel.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.MsgColl.Find(ctx,
		bson.M{socialmodel.MessageFieldChatID: chatID},
		options.Find().
			SetSort(bson.D{{Key: socialmodel.MessageFieldCreateTime, Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	var out []*socialmodel.Message
	for cur.Next(ctx) {
		var m socialmodel.Message
		if err := cur.Decode(&m); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &m)
	}
	return out, errs.Wrap(cur.Err())
}
