package receipt

import (
	"context"
	"testing"
	"time"

	socialmodel "SProject/module/social/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(id string, t time.Time) *socialmodel.Message {
	return &socialmodel.Message{MessageID: id, ChatID: "c1", CreateTime: t}
}

func TestInferSeenByExactMatch(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	msgs := []*socialmodel.Message{
		msgAt("m1", base),
		msgAt("m2", base.Add(5*time.Minute)),
		msgAt("m3", base.Add(10*time.Minute)),
	}
	marks := []*socialmodel.ChatRead{
		{ChatID: "c1", UserID: "bob", LastReadMessageID: "m2", ReadAt: base.Add(6 * time.Minute)},
	}

	got := InferSeenBy(msgs, marks, "alice")
	// 归因到 m2 一条，m1/m3 都不出现
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bob"}, got["m2"])
}

func TestInferSeenByFallbackToTimestamp(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	msgs := []*socialmodel.Message{
		msgAt("m1", base),
		msgAt("m2", base.Add(5*time.Minute)),
		msgAt("m3", base.Add(10*time.Minute)),
	}
	// 光标指向的消息已被撤回：按 read_at 回退到 m2
	marks := []*socialmodel.ChatRead{
		{ChatID: "c1", UserID: "bob", LastReadMessageID: "gone", ReadAt: base.Add(7 * time.Minute)},
	}

	got := InferSeenBy(msgs, marks, "alice")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bob"}, got["m2"])
}

func TestInferSeenByUnresolvableReaderSkipped(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	msgs := []*socialmodel.Message{msgAt("m1", base)}
	// read_at 早于所有消息且 ID 不命中：读者不出现
	marks := []*socialmodel.ChatRead{
		{ChatID: "c1", UserID: "bob", LastReadMessageID: "gone", ReadAt: base.Add(-time.Minute)},
	}
	assert.Nil(t, InferSeenBy(msgs, marks, "alice"))
}

func TestInferSeenByOneEntryPerReader(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	msgs := []*socialmodel.Message{
		msgAt("m1", base),
		msgAt("m2", base.Add(time.Minute)),
	}
	marks := []*socialmodel.ChatRead{
		{ChatID: "c1", UserID: "bob", LastReadMessageID: "m2", ReadAt: base.Add(2 * time.Minute)},
		{ChatID: "c1", UserID: "carol", LastReadMessageID: "m1", ReadAt: base.Add(30 * time.Second)},
		{ChatID: "c1", UserID: "alice", LastReadMessageID: "m2", ReadAt: base.Add(time.Minute)},
	}

	got := InferSeenBy(msgs, marks, "alice") // 自己的光标不计入
	assert.Equal(t, []string{"bob"}, got["m2"])
	assert.Equal(t, []string{"carol"}, got["m1"])
	total := 0
	for _, readers := range got {
		total += len(readers)
	}
	assert.Equal(t, 2, total)
}

// fakeReadStore 只带 receipt 需要的几个方法
type fakeReadStore struct {
	chat  *socialmodel.Chat
	marks map[string]*socialmodel.ChatRead // by userID
	msgs  []*socialmodel.Message
}

func (f *fakeReadStore) GetChat(context.Context, string) (*socialmodel.Chat, error) {
	return f.chat, nil
}

func (f *fakeReadStore) MarkRead(_ context.Context, _, userID, msgID string, readAt time.Time) (bool, error) {
	cur, ok := f.marks[userID]
	if ok && !readAt.After(cur.ReadAt) {
		return false, nil
	}
	f.marks[userID] = &socialmodel.ChatRead{
		ChatID: f.chat.ChatID, UserID: userID,
		LastReadMessageID: msgID, ReadAt: readAt,
	}
	return true, nil
}

func (f *fakeReadStore) GetReadMarks(_ context.Context, _, except string) ([]*socialmodel.ChatRead, error) {
	var out []*socialmodel.ChatRead
	for _, m := range f.marks {
		if m.UserID != except {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeReadStore) ListMessages(context.Context, string, int64) ([]*socialmodel.Message, error) {
	out := make([]*socialmodel.Message, len(f.msgs))
	for i, m := range f.msgs {
		out[len(f.msgs)-1-i] = m // 倒序，模拟翻页接口
	}
	return out, nil
}

type countSink struct{ broadcasts int }

func (c *countSink) SendToUser(string, string, any)       {}
func (c *countSink) BroadcastToGroup(string, string, any) { c.broadcasts++ }

func TestMarkReadMonotone(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	st := &fakeReadStore{
		chat: &socialmodel.Chat{
			ChatID: "c1", ChatType: socialmodel.ChatTypeDirect,
			UserA: "alice", UserB: "bob",
		},
		marks: map[string]*socialmodel.ChatRead{},
	}
	sink := &countSink{}
	svc := NewService(st, sink)
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, "c1", "bob", "m2", base.Add(2*time.Minute)))
	assert.Equal(t, 1, sink.broadcasts)

	// 更旧的重放：no-op，不广播，光标不动
	require.NoError(t, svc.MarkRead(ctx, "c1", "bob", "m1", base.Add(time.Minute)))
	assert.Equal(t, 1, sink.broadcasts)
	assert.Equal(t, "m2", st.marks["bob"].LastReadMessageID)

	// 非成员被拒
	err := svc.MarkRead(ctx, "c1", "mallory", "m2", base.Add(3*time.Minute))
	assert.Error(t, err)
}

func TestSeenByMembersOnly(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	st := &fakeReadStore{
		chat: &socialmodel.Chat{
			ChatID: "c1", ChatType: socialmodel.ChatTypeDirect,
			UserA: "alice", UserB: "bob",
		},
		marks: map[string]*socialmodel.ChatRead{
			"bob": {ChatID: "c1", UserID: "bob", LastReadMessageID: "m1", ReadAt: base.Add(time.Minute)},
		},
		msgs: []*socialmodel.Message{msgAt("m1", base)},
	}
	svc := NewService(st, &countSink{})
	ctx := context.Background()

	got, err := svc.SeenBy(ctx, "c1", "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got["m1"])

	// 非成员不许旁观别人的已读位
	_, err = svc.SeenBy(ctx, "c1", "mallory", 50)
	assert.Error(t, err)
}

func TestEmitterCoalescesAndGates(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	var sent []Mark
	e := NewEmitter(func(chatID string, m Mark) { sent = append(sent, m) })

	open := Gate{ChatActive: true, ScrolledToBottom: true, Focused: true}

	// 门禁关：快速连续观察只留最新
	e.Observe("c1", "m1", base)
	e.Observe("c1", "m2", base.Add(time.Second))
	e.Observe("c1", "m3", base.Add(2*time.Second))
	assert.Empty(t, sent)

	// 开门补发一次，且是最新的
	e.SetGate("c1", open)
	require.Len(t, sent, 1)
	assert.Equal(t, "m3", sent[0].LastReadMessageID)

	// 门开着时直接上报
	e.Observe("c1", "m4", base.Add(3*time.Second))
	require.Len(t, sent, 2)

	// 开->开 不触发重复补发
	e.SetGate("c1", open)
	assert.Len(t, sent, 2)

	// 失焦后观察被挂起
	e.SetGate("c1", Gate{ChatActive: true, ScrolledToBottom: true})
	e.Observe("c1", "m5", base.Add(4*time.Second))
	assert.Len(t, sent, 2)
}
