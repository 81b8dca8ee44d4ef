package store

import (
	"context"

	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	"SProject/tools/ids"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetRequestByChat 按会话查消息请求，不存在返回 (nil, nil)
func (s *Store) GetRequestByChat(ctx context.Context, chatID string) (*socialmodel.MessageRequest, error) {
	var r socialmodel.MessageRequest
	err := s.RequestColl.FindOne(ctx, bson.M{socialmodel.RequestFieldChatID: chatID}).Decode(&r)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &r, nil
}

// CreateRequest 为首条陌生人消息建请求，计数从 1 起。
// chat_id 唯一索引兜并发：重复插入回读赢家，调用方按赢家状态重新裁决。
func (s *Store) CreateRequest(ctx context.Context, chatID, fromUser, toUser string, msg *socialmodel.Message) (*socialmodel.MessageRequest, bool, error) {
	doc := &socialmodel.MessageRequest{
		RequestID:             ids.GenerateString(),
		ChatID:                chatID,
		FromUserID:            fromUser,
		ToUserID:              toUser,
		Status:                socialmodel.RequestPending,
		RequesterMessageCount: 1,
		LastMessageAt:         msg.CreateTime,
		LastMessageText:       msg.Content,
		CreateTime:            now(),
		UpdateTime:            now(),
	}
	_, err := s.RequestColl.InsertOne(ctx, doc)
	if IsDup(err) {
		existing, gerr := s.GetRequestByChat(ctx, chatID)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err)
	}
	return doc, true, nil
}

// BumpRequest 在 pending 且计数未达上限时 +1。条件更新保证并发下
// 计数不会越过 RequesterMessageCap。matched=false 表示没抢到名额。
func (s *Store) BumpRequest(ctx context.Context, chatID string, msg *socialmodel.Message) (bool, error) {
	res, err := s.RequestColl.UpdateOne(ctx,
		bson.M{
			socialmodel.RequestFieldChatID: chatID,
			socialmodel.RequestFieldStatus: socialmodel.RequestPending,
			socialmodel.RequestFieldCount:  bson.M{"$lt": socialmodel.RequesterMessageCap},
		},
		bson.M{
			"$inc": bson.M{socialmodel.RequestFieldCount: 1},
			"$set": bson.M{
				socialmodel.RequestFieldLastMessageAt:   msg.CreateTime,
				socialmodel.RequestFieldLastMessageText: msg.Content,
				socialmodel.RequestFieldUpdateTime:      now(),
			},
		},
	)
	if err != nil {
		return false, errs.Wrap(err)
	}
	return res.ModifiedCount > 0, nil
}

// ResolveRequest pending -> accepted/declined，仅收件人可执行。
// matched=false 表示请求已被处理过（幂等返回）。
func (s *Store) ResolveRequest(ctx context.Context, chatID, recipient, status string) (*socialmodel.MessageRequest, bool, error) {
	res := s.RequestColl.FindOneAndUpdate(ctx,
		bson.M{
			socialmodel.RequestFieldChatID:   chatID,
			socialmodel.RequestFieldToUserID: recipient,
			socialmodel.RequestFieldStatus:   socialmodel.RequestPending,
		},
		bson.M{"$set": bson.M{
			socialmodel.RequestFieldStatus:     status,
			socialmodel.RequestFieldUpdateTime: now(),
		}},
	)
	var r socialmodel.MessageRequest
	err := res.Decode(&r)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(err)
	}
	r.Status = status
	return &r, true, nil
}

// ForceAcceptRequest 好友关系确立后把 pending 请求直接转 accepted。
// 返回是否真的翻了状态（没有 pending 请求时为 false）。
func (s *Store) ForceAcceptRequest(ctx context.Context, chatID string) (bool, error) {
	res, err := s.RequestColl.UpdateOne(ctx,
		bson.M{
			socialmodel.RequestFieldChatID: chatID,
			socialmodel.RequestFieldStatus: socialmodel.RequestPending,
		},
		bson.M{"$set": bson.M{
			socialmodel.RequestFieldStatus:     socialmodel.RequestAccepted,
			socialmodel.RequestFieldUpdateTime: now(),
		}},
	)
	if err != nil {
		return false, errs.Wrap(err)
	}
	return res.ModifiedCount > 0, nil
}

// ListPendingRequests 收件箱：toUser 名下的待处理请求
func (s *Store) ListPendingRequests(ctx context.Context, toUser string) ([]*socialmodel.MessageRequest, error) {
	cur, err := s.RequestColl.Find(ctx, bson.M{
		socialmodel.RequestFieldToUserID: toUser,
		socialmodel.RequestFieldStatus:   socialmodel.RequestPending,
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	var out []*socialmodel.MessageRequest
	for cur.Next(ctx) {
		var r socialmodel.MessageRequest
		if err := cur.Decode(&r); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, &r)
	}
	return out, errs.Wrap(cur.Err())
}
