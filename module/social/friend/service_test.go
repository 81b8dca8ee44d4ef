package friend

import (
	"context"
	"testing"
	"time"

	socialmodel "SProject/module/social/model"
	"SProject/tools"
	"SProject/tools/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFriendStore struct {
	docs map[string]*socialmodel.Friendship
}

func newFakeFriendStore() *fakeFriendStore {
	return &fakeFriendStore{docs: map[string]*socialmodel.Friendship{}}
}

func (f *fakeFriendStore) GetFriendship(_ context.Context, a, b string) (*socialmodel.Friendship, error) {
	return f.docs[tools.PairKey(a, b)], nil
}

func (f *fakeFriendStore) CreateFriendRequest(_ context.Context, from, to string) (*socialmodel.Friendship, bool, error) {
	key := tools.PairKey(from, to)
	if d, ok := f.docs[key]; ok {
		return d, false, nil
	}
	a, b := tools.SortedPair(from, to)
	d := &socialmodel.Friendship{
		PairKey: key, UserA: a, UserB: b,
		Status: socialmodel.FriendshipPending, RequestedBy: from,
		CreateTime: time.Now(),
	}
	f.docs[key] = d
	return d, true, nil
}

func (f *fakeFriendStore) AcceptFriendRequest(_ context.Context, acceptor, requester string) (bool, error) {
	d, ok := f.docs[tools.PairKey(acceptor, requester)]
	if !ok || d.Status != socialmodel.FriendshipPending || d.RequestedBy != requester {
		return false, nil
	}
	d.Status = socialmodel.FriendshipAccepted
	return true, nil
}

func (f *fakeFriendStore) BlockUser(_ context.Context, blocker, target string) error {
	key := tools.PairKey(blocker, target)
	d, ok := f.docs[key]
	if !ok {
		a, b := tools.SortedPair(blocker, target)
		d = &socialmodel.Friendship{PairKey: key, UserA: a, UserB: b}
		f.docs[key] = d
	}
	d.Status = socialmodel.FriendshipBlocked
	d.BlockedBy = blocker
	return nil
}

func (f *fakeFriendStore) UnblockUser(_ context.Context, blocker, target string) (bool, error) {
	key := tools.PairKey(blocker, target)
	d, ok := f.docs[key]
	if !ok || d.Status != socialmodel.FriendshipBlocked || d.BlockedBy != blocker {
		return false, nil
	}
	delete(f.docs, key)
	return true, nil
}

func (f *fakeFriendStore) Unfriend(_ context.Context, a, b string) error {
	key := tools.PairKey(a, b)
	if d, ok := f.docs[key]; ok && d.Status != socialmodel.FriendshipBlocked {
		delete(f.docs, key)
	}
	return nil
}

func (f *fakeFriendStore) ListFriends(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, d := range f.docs {
		if d.Status == socialmodel.FriendshipAccepted && d.Involves(userID) {
			out = append(out, d.Other(userID))
		}
	}
	return out, nil
}

type consentSpy struct{ forced [][2]string }

func (c *consentSpy) ForceAcceptOnFriendship(_ context.Context, a, b string) error {
	c.forced = append(c.forced, [2]string{a, b})
	return nil
}

type nilSink struct{}

func (nilSink) SendToUser(string, string, any)       {}
func (nilSink) BroadcastToGroup(string, string, any) {}

func codeOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	var ce *errs.CodeError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestFriendRequestAcceptFlow(t *testing.T) {
	st := newFakeFriendStore()
	spy := &consentSpy{}
	svc := NewService(st, spy, nilSink{})
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice", "bob"))
	d := st.docs[tools.PairKey("alice", "bob")]
	require.NotNil(t, d)
	assert.Equal(t, socialmodel.FriendshipPending, d.Status)

	// 重复申请幂等
	require.NoError(t, svc.Request(ctx, "alice", "bob"))

	require.NoError(t, svc.Accept(ctx, "bob", "alice"))
	assert.Equal(t, socialmodel.FriendshipAccepted, d.Status)
	// 成为好友时联动放通消息请求
	require.Len(t, spy.forced, 1)

	friends, err := svc.Friends(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, friends)

	// 重复接受幂等
	require.NoError(t, svc.Accept(ctx, "bob", "alice"))
	require.Len(t, spy.forced, 1)
}

func TestMutualRequestBecomesFriends(t *testing.T) {
	st := newFakeFriendStore()
	spy := &consentSpy{}
	svc := NewService(st, spy, nilSink{})
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice", "bob"))
	// 对向申请视为接受
	require.NoError(t, svc.Request(ctx, "bob", "alice"))
	assert.Equal(t, socialmodel.FriendshipAccepted, st.docs[tools.PairKey("alice", "bob")].Status)
}

func TestBlockStopsFriendRequests(t *testing.T) {
	st := newFakeFriendStore()
	svc := NewService(st, &consentSpy{}, nilSink{})
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, "alice", "bob"))

	err := svc.Request(ctx, "bob", "alice")
	assert.Equal(t, errs.PolicyBlockedByPeerError, codeOf(t, err))
	err = svc.Request(ctx, "alice", "bob")
	assert.Equal(t, errs.PolicyBlockedByYouError, codeOf(t, err))

	// unfriend 不得删除拉黑文档
	require.NoError(t, svc.Unfriend(ctx, "alice", "bob"))
	assert.NotNil(t, st.docs[tools.PairKey("alice", "bob")])

	// 只有拉黑方能解除
	err = svc.Unblock(ctx, "bob", "alice")
	assert.Equal(t, errs.RecordNotFoundError, codeOf(t, err))
	require.NoError(t, svc.Unblock(ctx, "alice", "bob"))
	assert.Nil(t, st.docs[tools.PairKey("alice", "bob")])
}
