package store

import (
	"context"

	socialmodel "SProject/module/social/model"
	"SProject/tools"
	"SProject/tools/errs"
	pkgerr "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetFriendship 按无序对查关系，不存在返回 (nil, nil)
func (s *Store) GetFriendship(ctx context.Context, userA, userB string) (*socialmodel.Friendship, error) {
	key := tools.PairKey(userA, userB)
	var f socialmodel.Friendship
	err := s.FriendshipColl.FindOne(ctx, bson.M{socialmodel.FriendshipFieldPairKey: key}).Decode(&f)
	if pkgerr.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &f, nil
}

// CreateFriendRequest 插入 pending 关系；对已有文档返回赢家。
// 返回 (doc, created, err)
func (s *Store) CreateFriendRequest(ctx context.Context, fromUser, toUser string) (*socialmodel.Friendship, bool, error) {
	a, b := tools.SortedPair(fromUser, toUser)
	doc := &socialmodel.Friendship{
		PairKey:     tools.PairKey(fromUser, toUser),
		UserA:       a,
		UserB:       b,
		Status:      socialmodel.FriendshipPending,
		RequestedBy: fromUser,
		CreateTime:  now(),
		UpdateTime:  now(),
	}
	_, err := s.FriendshipColl.InsertOne(ctx, doc)
	if IsDup(err) {
		existing, gerr := s.GetFriendship(ctx, fromUser, toUser)
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

// AcceptFriendRequest pending -> accepted，仅收件人可执行。
// matched=false 表示没有可接受的 pending 请求（已处理或不存在）。
func (s *Store) AcceptFriendRequest(ctx context.Context, acceptor, requester string) (bool, error) {
	key := tools.PairKey(acceptor, requester)
	res, err := s.FriendshipColl.UpdateOne(ctx,
		bson.M{
			socialmodel.FriendshipFieldPairKey:     key,
			socialmodel.FriendshipFieldStatus:      socialmodel.FriendshipPending,
			socialmodel.FriendshipFieldRequestedBy: requester,
		},
		bson.M{"$set": bson.M{
			socialmodel.FriendshipFieldStatus:     socialmodel.FriendshipAccepted,
			socialmodel.FriendshipFieldUpdateTime: now(),
		}},
	)
	if err != nil {
		return false, errs.Wrap(err)
	}
	return res.ModifiedCount > 0, nil
}

// BlockUser upsert 为 blocked 并记录操作者。对任意既有状态生效。
func (s *Store) BlockUser(ctx context.Context, blocker, target string) error {
	a, b := tools.SortedPair(blocker, target)
	key := tools.PairKey(blocker, target)
	_, err := s.FriendshipColl.UpdateOne(ctx,
		bson.M{socialmodel.FriendshipFieldPairKey: key},
		bson.M{
			"$set": bson.M{
				socialmodel.FriendshipFieldStatus:     socialmodel.FriendshipBlocked,
				socialmodel.FriendshipFieldBlockedBy:  blocker,
				socialmodel.FriendshipFieldUpdateTime: now(),
			},
			"$setOnInsert": bson.M{
				socialmodel.FriendshipFieldUserA:      a,
				socialmodel.FriendshipFieldUserB:      b,
				socialmodel.FriendshipFieldCreateTime: now(),
			},
		},
		options.Update().SetUpsert(true),
	)
	return errs.Wrap(err)
}

// Unfriend 删除关系文档；blocked 状态不受影响（拉黑需显式解除）。
func (s *Store) Unfriend(ctx context.Context, userA, userB string) error {
	key := tools.PairKey(userA, userB)
	_, err := s.FriendshipColl.DeleteOne(ctx, bson.M{
		socialmodel.FriendshipFieldPairKey: key,
		socialmodel.FriendshipFieldStatus:  bson.M{"$ne": socialmodel.FriendshipBlocked},
	})
	return errs.Wrap(err)
}

// UnblockUser 仅拉黑发起者可解除，解除后关系文档删除（回到陌生人）。
func (s *Store) UnblockUser(ctx context.Context, blocker, target string) (bool, error) {
	key := tools.PairKey(blocker, target)
	res, err := s.FriendshipColl.DeleteOne(ctx, bson.M{
		socialmodel.FriendshipFieldPairKey:   key,
		socialmodel.FriendshipFieldStatus:    socialmodel.FriendshipBlocked,
		socialmodel.FriendshipFieldBlockedBy: blocker,
	})
	if err != nil {
		return false, errs.Wrap(err)
	}
	return res.DeletedCount > 0, nil
}

// ListFriends 返回与 userID 已成好友的对端ID列表
func (s *Store) ListFriends(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.FriendshipColl.Find(ctx, bson.M{
		socialmodel.FriendshipFieldStatus: socialmodel.FriendshipAccepted,
		"$or": bson.A{
			bson.M{socialmodel.FriendshipFieldUserA: userID},
			bson.M{socialmodel.FriendshipFieldUserB: userID},
		},
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer cur.Close(ctx)
	var out []string
	for cur.Next(ctx) {
		var f socialmodel.Friendship
		if err := cur.Decode(&f); err != nil {
			return nil, errs.Wrap(err)
		}
		out = append(out, f.Other(userID))
	}
	return out, errs.Wrap(cur.Err())
}
