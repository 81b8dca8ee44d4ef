package consent

import (
	"context"
	"time"

	"SProject/logger"
	"SProject/module/social/events"
	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	"SProject/tools/ids"
	"SProject/tools/safe"
)

// Storage is the slice of the mongo store this service needs.
// Kept as an interface so policy orchestration is testable with fakes.
type Storage interface {
	GetChat(ctx context.Context, chatID string) (*socialmodel.Chat, error)
	GetDirectChat(ctx context.Context, userA, userB string) (*socialmodel.Chat, error)
	GetOrCreateDirectChat(ctx context.Context, userA, userB string) (*socialmodel.Chat, bool, error)
	TouchChat(ctx context.Context, chatID string, msg *socialmodel.Message) error
	HideChat(ctx context.Context, chatID, userID string) error
	UnhideChat(ctx context.Context, chatID string) error

	GetFriendship(ctx context.Context, userA, userB string) (*socialmodel.Friendship, error)

	GetRequestByChat(ctx context.Context, chatID string) (*socialmodel.MessageRequest, error)
	CreateRequest(ctx context.Context, chatID, fromUser, toUser string, msg *socialmodel.Message) (*socialmodel.MessageRequest, bool, error)
	BumpRequest(ctx context.Context, chatID string, msg *socialmodel.Message) (bool, error)
	ResolveRequest(ctx context.Context, chatID, recipient, status string) (*socialmodel.MessageRequest, bool, error)
	ForceAcceptRequest(ctx context.Context, chatID string) (bool, error)

	InsertMessage(ctx context.Context, msg *socialmodel.Message) (*socialmodel.Message, bool, error)
}

// Archiver 消息归档旁路（Kafka）。失败只记日志，不影响主链路。
type Archiver interface {
	Archive(msg *socialmodel.Message) error
}

type Service struct {
	store    Storage
	sink     events.Sink
	archiver Archiver
}

func NewService(store Storage, sink events.Sink, archiver Archiver) *Service {
	return &Service{store: store, sink: sink, archiver: archiver}
}

// SendInput 一次发消息。ChatID 与 PeerID 二选一：
// 给 PeerID 表示对该用户发起/续写单聊（懒创建会话）。
type SendInput struct {
	ChatID      string `json:"chatId"`
	PeerID      string `json:"peerId"`
	ClientMsgID string `json:"clientMsgId"`
	ContentType int32  `json:"contentType"`
	Content     string `json:"content"`
}

// SendMessage 发消息主链路：定位会话 -> 准入裁决 -> 请求表记账 ->
// 落库（幂等）-> 刷新会话摘要 -> 投递事件 -> 异步归档。
//
// 裁决与记账之间存在竞态窗口，靠请求表的条件更新收敛：
// 输家拿着赢家快照重判一次，最多降级为 Bump，Bump 抢不到名额即拒绝。
func (s *Service) SendMessage(ctx context.Context, senderID string, in SendInput) (*socialmodel.Message, error) {
	if in.Content == "" || (in.ChatID == "" && in.PeerID == "") {
		return nil, errs.ErrArgs.Wrap()
	}
	if in.ContentType == 0 {
		in.ContentType = socialmodel.ContentText
	}

	chat, err := s.locateChat(ctx, senderID, in)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, errs.ErrRecordNotFound.Wrap()
	}

	var friendship *socialmodel.Friendship
	var request *socialmodel.MessageRequest
	peer := ""
	if chat.IsDirect() {
		peer = chat.OtherMember(senderID)
		friendship, err = s.store.GetFriendship(ctx, senderID, peer)
		if err != nil {
			return nil, err
		}
		request, err = s.store.GetRequestByChat(ctx, chat.ChatID)
		if err != nil {
			return nil, err
		}
	}

	dec := Resolve(chat, senderID, friendship, request)
	if dec.Deny != nil {
		return nil, dec.Deny.Wrap()
	}

	msg := &socialmodel.Message{
		MessageID:   ids.GenerateString(),
		ChatID:      chat.ChatID,
		SenderID:    senderID,
		ClientMsgID: in.ClientMsgID,
		ContentType: in.ContentType,
		Content:     in.Content,
		CreateTime:  time.Now(),
	}

	var createdReq *socialmodel.MessageRequest
	switch dec.Mutation {
	case MutationCreate:
		req, created, cerr := s.store.CreateRequest(ctx, chat.ChatID, senderID, peer, msg)
		if cerr != nil {
			return nil, cerr
		}
		if created {
			createdReq = req
		} else if err := s.reResolve(ctx, chat, senderID, friendship, req, msg); err != nil {
			return nil, err
		}
	case MutationBump:
		ok, berr := s.store.BumpRequest(ctx, chat.ChatID, msg)
		if berr != nil {
			return nil, berr
		}
		if !ok {
			req2, gerr := s.store.GetRequestByChat(ctx, chat.ChatID)
			if gerr != nil {
				return nil, gerr
			}
			if err := s.reResolve(ctx, chat, senderID, friendship, req2, msg); err != nil {
				return nil, err
			}
		}
	}

	stored, created, err := s.store.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !created {
		// outbox 重发命中幂等索引：直接回已存文档，不重复投递
		return stored, nil
	}

	if err := s.store.TouchChat(ctx, chat.ChatID, stored); err != nil {
		logger.Warnf("touch chat %s failed: %v", chat.ChatID, err)
	}
	s.emitMessage(chat, stored, peer, createdReq)
	if s.archiver != nil {
		m := stored
		safe.SafeGo(func() {
			if aerr := s.archiver.Archive(m); aerr != nil {
				logger.Warnf("archive message %s failed: %v", m.MessageID, aerr)
			}
		})
	}
	return stored, nil
}

func (s *Service) locateChat(ctx context.Context, senderID string, in SendInput) (*socialmodel.Chat, error) {
	if in.ChatID != "" {
		return s.store.GetChat(ctx, in.ChatID)
	}
	chat, _, err := s.store.GetOrCreateDirectChat(ctx, senderID, in.PeerID)
	return chat, err
}

// reResolve 输掉记账竞争后的二次裁决：拿赢家快照重过一遍策略，
// 能降级成 Bump 就再抢一次名额，抢不到按“等待接受”拒绝。
func (s *Service) reResolve(ctx context.Context, chat *socialmodel.Chat, senderID string, friendship *socialmodel.Friendship, req *socialmodel.MessageRequest, msg *socialmodel.Message) error {
	dec := Resolve(chat, senderID, friendship, req)
	if dec.Deny != nil {
		return dec.Deny.Wrap()
	}
	if dec.Mutation == MutationBump {
		ok, err := s.store.BumpRequest(ctx, chat.ChatID, msg)
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrPendingCap.Wrap()
		}
	}
	return nil
}

func (s *Service) emitMessage(chat *socialmodel.Chat, msg *socialmodel.Message, peer string, createdReq *socialmodel.MessageRequest) {
	data := events.MessageNewData{
		MessageID:   msg.MessageID,
		ChatID:      msg.ChatID,
		SenderID:    msg.SenderID,
		ClientMsgID: msg.ClientMsgID,
		Type:        msg.ContentType,
		Text:        msg.Content,
		CreatedAt:   msg.CreateTime,
	}
	var evs []events.Event
	if chat.IsDirect() {
		// 对端 + 发送方回显（多端同步）
		evs = append(evs,
			events.ToUser(peer, events.EventMessageNew, data),
			events.ToUser(msg.SenderID, events.EventMessageNew, data),
		)
	} else {
		evs = append(evs, events.ToGroup(chat.ChatID, events.EventMessageNew, data))
	}
	if createdReq != nil {
		evs = append(evs, events.ToUser(createdReq.ToUserID, events.EventMessageRequestNew, requestData(createdReq)))
	}
	events.Dispatch(s.sink, evs)
}

func requestData(r *socialmodel.MessageRequest) events.MessageRequestData {
	return events.MessageRequestData{
		RequestID:       r.RequestID,
		ChatID:          r.ChatID,
		FromUserID:      r.FromUserID,
		ToUserID:        r.ToUserID,
		Status:          r.Status,
		LastMessageAt:   r.LastMessageAt,
		LastMessageText: r.LastMessageText,
	}
}

// AcceptRequest 收件人接受消息请求。幂等：重复 accept 返回当前文档。
func (s *Service) AcceptRequest(ctx context.Context, chatID, userID string) (*socialmodel.MessageRequest, error) {
	req, matched, err := s.store.ResolveRequest(ctx, chatID, userID, socialmodel.RequestAccepted)
	if err != nil {
		return nil, err
	}
	if !matched {
		return s.resolveNoop(ctx, chatID, userID, socialmodel.RequestAccepted)
	}
	if err := s.store.UnhideChat(ctx, chatID); err != nil {
		logger.Warnf("unhide chat %s failed: %v", chatID, err)
	}
	events.Dispatch(s.sink, []events.Event{
		events.ToUser(req.FromUserID, events.EventMessageRequestAccepted, requestData(req)),
		events.ToUser(req.ToUserID, events.EventMessageRequestAccepted, requestData(req)),
		events.ToUser(req.FromUserID, events.EventChatActivated, events.ChatActivatedData{ChatID: chatID}),
		events.ToUser(req.ToUserID, events.EventChatActivated, events.ChatActivatedData{ChatID: chatID}),
	})
	return req, nil
}

// DeclineRequest 收件人拒绝。会话对收件人隐藏，通知请求方。
func (s *Service) DeclineRequest(ctx context.Context, chatID, userID string) (*socialmodel.MessageRequest, error) {
	req, matched, err := s.store.ResolveRequest(ctx, chatID, userID, socialmodel.RequestDeclined)
	if err != nil {
		return nil, err
	}
	if !matched {
		return s.resolveNoop(ctx, chatID, userID, socialmodel.RequestDeclined)
	}
	if err := s.store.HideChat(ctx, chatID, userID); err != nil {
		logger.Warnf("hide chat %s failed: %v", chatID, err)
	}
	events.Dispatch(s.sink, []events.Event{
		events.ToUser(req.FromUserID, events.EventMessageRequestDeclined, requestData(req)),
	})
	return req, nil
}

// resolveNoop 条件更新没命中时的收尾：已是目标终态按幂等成功返回，
// 其余情况（非收件人、已进另一终态、请求不存在）报冲突或不存在。
func (s *Service) resolveNoop(ctx context.Context, chatID, userID, wantStatus string) (*socialmodel.MessageRequest, error) {
	req, err := s.store.GetRequestByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	if req.ToUserID == userID && req.Status == wantStatus {
		return req, nil
	}
	return nil, errs.ErrConflict.Wrap()
}

// ForceAcceptOnFriendship 好友关系确立的联动：双方之间的 pending
// 消息请求直接转 accepted，会话恢复可见。好友身份覆盖消息门禁。
// 真翻了状态时给双方推 chat:activated，和显式 accept 的表现一致。
func (s *Service) ForceAcceptOnFriendship(ctx context.Context, userA, userB string) error {
	chat, err := s.store.GetDirectChat(ctx, userA, userB)
	if err != nil {
		return err
	}
	if chat == nil {
		return nil
	}
	flipped, err := s.store.ForceAcceptRequest(ctx, chat.ChatID)
	if err != nil {
		return err
	}
	if err := s.store.UnhideChat(ctx, chat.ChatID); err != nil {
		return err
	}
	if flipped {
		events.Dispatch(s.sink, []events.Event{
			events.ToUser(userA, events.EventChatActivated, events.ChatActivatedData{ChatID: chat.ChatID}),
			events.ToUser(userB, events.EventChatActivated, events.ChatActivatedData{ChatID: chat.ChatID}),
		})
	}
	return nil
}
