package store

import (
	"context"

	socialmodel "SProject/module/social/model"
	"SProject/tools"
	"SProject/tools/errs"
	"SProject/tools/ids"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetChat 按 chat_id 查会话，不存在返回 (nil, nil)
func (s *Store) GetChat(ctx context.Context, chatID string) (*socialmodel.Chat, error) {
	var c socialmodel.Chat
	err := s.ChatColl.FindOne(ctx, bson.M{socialmodel.ChatFieldChatID: chatID}).Decode(&c)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &c, nil
}

// GetDirectChat 按无序对查单聊，不存在返回 (nil, nil)
func (s *Store) GetDirectChat(ctx context.Context, userA, userB string) (*socialmodel.Chat, error) {
	key := tools.PairKey(userA, userB)
	var c socialmodel.Chat
	err := s.ChatColl.FindOne(ctx, bson.M{socialmodel.ChatFieldDirectKey: key}).Decode(&c)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &c, nil
}

// GetOrCreateDirectChat 单聊惰性建档。direct_key 唯一索引保证
// 并发双方首次互发只产生一个会话，输家回读赢家。
func (s *Store) GetOrCreateDirectChat(ctx context.Context, userA, userB string) (*socialmodel.Chat, bool, error) {
	key := tools.PairKey(userA, userB)
	var c socialmodel.Chat
	err := s.ChatColl.FindOne(ctx, bson.M{socialmodel.ChatFieldDirectKey: key}).Decode(&c)
	if err == nil {
		return &c, false, nil
	}
	if !pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, false, errs.Wrap(err)
	}
	a, b := tools.SortedPair(userA, userB)
	doc := &socialmodel.Chat{
		ChatID:     ids.GenerateString(),
		ChatType:   socialmodel.ChatTypeDirect,
		DirectKey:  key,
		UserA:      a,
		UserB:      b,
		Members:    []string{a, b},
		CreateTime: now(),
	}
	_, err = s.ChatColl.InsertOne(ctx, doc)
	if IsDup(err) {
		err = s.ChatColl.FindOne(ctx, bson.M{socialmodel.ChatFieldDirectKey: key}).Decode(&c)
		if err != nil {
			return nil, false, errs.Wrap(err)
		}
		return &c, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err)
	}
	return doc, true, nil
}

// CreateGroupChat 建群聊会话
func (s *Store) CreateGroupChat(ctx context.Context, members []string) (*socialmodel.Chat, error) {
	doc := &socialmodel.Chat{
		ChatID:     ids.GenerateString(),
		ChatType:   socialmodel.ChatTypeGroup,
		Members:    members,
		CreateTime: now(),
	}
	if _, err := s.ChatColl.InsertOne(ctx, doc); err != nil {
		return nil, errs.Wrap(err)
	}
	return doc, nil
}

// TouchChat 写入最近消息摘要并对全员取消隐藏（新消息让会话重新出现）
func (s *Store) TouchChat(ctx context.Context, chatID string, msg *socialmodel.Message) error {
	_, err := s.ChatColl.UpdateOne(ctx,
		bson.M{socialmodel.ChatFieldChatID: chatID},
		bson.M{
			"$set": bson.M{
				socialmodel.ChatFieldLastMessageAt:     msg.CreateTime,
				socialmodel.ChatFieldLastMessageText:   msg.Content,
				socialmodel.ChatFieldLastMessageSender: msg.SenderID,
				socialmodel.ChatFieldHiddenFor:         []string{},
			},
		},
	)
	return errs.Wrap(err)
}

// UnhideChat 清空隐藏标记，会话对全体成员重新可见（accept 时调用）
func (s *Store) UnhideChat(ctx context.Context, chatID string) error {
	_, err := s.ChatColl.UpdateOne(ctx,
		bson.M{socialmodel.ChatFieldChatID: chatID},
		bson.M{"$set": bson.M{socialmodel.ChatFieldHiddenFor: []string{}}},
	)
	return errs.Wrap(err)
}

// HideChat 将会话从 userID 的列表里隐藏（软删除）
func (s *Store) HideChat(ctx context.Context, chatID, userID string) error {
	_, err := s.ChatColl.UpdateOne(ctx,
		bson.M{socialmodel.ChatFieldChatID: chatID},
		bson.M{"$addToSet": bson.M{socialmodel.ChatFieldHiddenFor: userID}},
	)
	return errs.Wrap(err)
}

// ListChats 按最近消息时间倒序返回 userID 可见的会话
func (s *Store) ListChats(ctx context.Context, userID string, limit int64) ([]*socialmodel.Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := s.ChatColl.Find(ctx,
		bson.M{
			socialmodel.ChatFieldMembers:   userID,
			socialmodel.ChatFieldHiddenFor: bson.M{"$ne": userID},
		},
		options.Find().
			SetSort(bson.D{{Key: socialmodel.ChatFieldLastMessageAt, Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	var out []*socialmodel.Chat
	for cur.Next(ctx) {
		var c socialmodel.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &c)
	}
	return out, errs.Wrap(cur.Err())
}
