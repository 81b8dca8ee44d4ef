package friend

import (
	"context"

	"SProject/logger"
	"SProject/module/social/events"
	socialmodel "SProject/module/social/model"
	"SProject/tools"
	"SProject/tools/errs"
)

type Storage interface {
	GetFriendship(ctx context.Context, userA, userB string) (*socialmodel.Friendship, error)
	CreateFriendRequest(ctx context.Context, fromUser, toUser string) (*socialmodel.Friendship, bool, error)
	AcceptFriendRequest(ctx context.Context, acceptor, requester string) (bool, error)
	BlockUser(ctx context.Context, blocker, target string) error
	UnblockUser(ctx context.Context, blocker, target string) (bool, error)
	Unfriend(ctx context.Context, userA, userB string) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
}

// ConsentLink 好友关系确立后联动消息请求（好友身份覆盖消息门禁）
type ConsentLink interface {
	ForceAcceptOnFriendship(ctx context.Context, userA, userB string) error
}

type Service struct {
	store   Storage
	consent ConsentLink
	sink    events.Sink
}

func NewService(store Storage, consent ConsentLink, sink events.Sink) *Service {
	return &Service{store: store, consent: consent, sink: sink}
}

// Request 发好友申请。对向的 pending 申请视为双方都点了加好友，
// 直接走接受路径；重复申请幂等。
func (s *Service) Request(ctx context.Context, fromUser, toUser string) error {
	if fromUser == "" || toUser == "" || fromUser == toUser {
		return errs.ErrArgs.Wrap()
	}
	doc, created, err := s.store.CreateFriendRequest(ctx, fromUser, toUser)
	if err != nil {
		return err
	}
	if created {
		events.Dispatch(s.sink, []events.Event{
			events.ToUser(toUser, events.EventFriendRequestNew, events.FriendRequestData{
				PairKey:    doc.PairKey,
				FromUserID: fromUser,
				ToUserID:   toUser,
				Status:     doc.Status,
			}),
		})
		return nil
	}
	switch doc.Status {
	case socialmodel.FriendshipBlocked:
		if doc.BlockedBy == fromUser {
			return errs.ErrBlockedByYou.Wrap()
		}
		return errs.ErrBlockedByPeer.Wrap()
	case socialmodel.FriendshipAccepted:
		return nil
	case socialmodel.FriendshipPending:
		if doc.RequestedBy == toUser {
			// 对方先申请过：互相想加，当作接受
			return s.Accept(ctx, fromUser, toUser)
		}
		return nil
	}
	return errs.ErrConflict.Wrap()
}

// Accept 接受好友申请。成功后强制放通双方的消息请求。
func (s *Service) Accept(ctx context.Context, acceptor, requester string) error {
	matched, err := s.store.AcceptFriendRequest(ctx, acceptor, requester)
	if err != nil {
		return err
	}
	if !matched {
		cur, gerr := s.store.GetFriendship(ctx, acceptor, requester)
		if gerr != nil {
			return gerr
		}
		if cur == nil {
			return errs.ErrRecordNotFound.Wrap()
		}
		if cur.Status == socialmodel.FriendshipAccepted {
			return nil
		}
		return errs.ErrConflict.Wrap()
	}
	if err := s.consent.ForceAcceptOnFriendship(ctx, acceptor, requester); err != nil {
		logger.Warnf("force accept message request for %s failed: %v", tools.PairKey(acceptor, requester), err)
	}
	data := events.FriendRequestData{
		PairKey:    tools.PairKey(acceptor, requester),
		FromUserID: requester,
		ToUserID:   acceptor,
		Status:     socialmodel.FriendshipAccepted,
	}
	events.Dispatch(s.sink, []events.Event{
		events.ToUser(requester, events.EventFriendRequestAccepted, data),
		events.ToUser(acceptor, events.EventFriendRequestAccepted, data),
	})
	return nil
}

// Block 拉黑。既有关系被覆盖为 blocked 并记录操作方。
func (s *Service) Block(ctx context.Context, blocker, target string) error {
	if blocker == "" || target == "" || blocker == target {
		return errs.ErrArgs.Wrap()
	}
	return s.store.BlockUser(ctx, blocker, target)
}

// Unblock 仅拉黑方可解除，解除后回到陌生人关系
func (s *Service) Unblock(ctx context.Context, blocker, target string) error {
	ok, err := s.store.UnblockUser(ctx, blocker, target)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrRecordNotFound.Wrap()
	}
	return nil
}

// Unfriend 删除好友关系。blocked 文档不受影响。
func (s *Service) Unfriend(ctx context.Context, userA, userB string) error {
	return s.store.Unfriend(ctx, userA, userB)
}

func (s *Service) Friends(ctx context.Context, userID string) ([]string, error) {
	return s.store.ListFriends(ctx, userID)
}
