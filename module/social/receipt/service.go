package receipt

import (
	"context"
	"time"

	"SProject/module/social/events"
	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
)

type Storage interface {
	GetChat(ctx context.Context, chatID string) (*socialmodel.Chat, error)
	MarkRead(ctx context.Context, chatID, userID, lastReadMsgID string, readAt time.Time) (bool, error)
	GetReadMarks(ctx context.Context, chatID, exceptUser string) ([]*socialmodel.ChatRead, error)
	ListMessages(ctx context.Context, chatID string, limit int64) ([]*socialmodel.Message, error)
}

type Service struct {
	store Storage
	sink  events.Sink
}

func NewService(store Storage, sink events.Sink) *Service {
	return &Service{store: store, sink: sink}
}

// MarkRead 推进已读光标并广播。乱序/重放上报被单调性条件挡下时
// 静默成功（幂等），不广播。
func (s *Service) MarkRead(ctx context.Context, chatID, userID, lastReadMsgID string, readAt time.Time) error {
	if chatID == "" || lastReadMsgID == "" || readAt.IsZero() {
		return errs.ErrArgs.Wrap()
	}
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil || !chat.HasMember(userID) {
		return errs.ErrRecordNotFound.Wrap()
	}
	applied, err := s.store.MarkRead(ctx, chatID, userID, lastReadMsgID, readAt)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	events.Dispatch(s.sink, []events.Event{
		events.ToGroup(chatID, events.EventChatReadUpdate, events.ReadUpdateData{
			ChatID:            chatID,
			UserID:            userID,
			LastReadMessageID: lastReadMsgID,
			ReadAt:            readAt,
		}),
	})
	return nil
}

// SeenBy 拉取光标和最近消息，做一次归因。messages 按升序传给归因器。
// 和 MarkRead 一样只对会话成员开放。
func (s *Service) SeenBy(ctx context.Context, chatID, viewerID string, limit int64) (map[string][]string, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.HasMember(viewerID) {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	marks, err := s.store.GetReadMarks(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	if len(marks) == 0 {
		return nil, nil
	}
	msgs, err := s.store.ListMessages(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	// ListMessages 倒序翻页，这里转升序
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return InferSeenBy(msgs, marks, viewerID), nil
}
