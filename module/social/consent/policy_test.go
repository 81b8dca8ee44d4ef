package consent

import (
	"testing"

	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
	"github.com/stretchr/testify/assert"
)

func directChat(a, b string) *socialmodel.Chat {
	return &socialmodel.Chat{
		ChatID:   "c1",
		ChatType: socialmodel.ChatTypeDirect,
		UserA:    a,
		UserB:    b,
		Members:  []string{a, b},
	}
}

func TestResolvePolicy(t *testing.T) {
	chat := directChat("alice", "bob")

	tests := []struct {
		name       string
		sender     string
		friendship *socialmodel.Friendship
		request    *socialmodel.MessageRequest
		wantCode   int // 0 = allow
		wantMut    Mutation
	}{
		{
			name:    "stranger first message creates request",
			sender:  "alice",
			wantMut: MutationCreate,
		},
		{
			name:   "requester second message over cap denied",
			sender: "alice",
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestPending, RequesterMessageCount: 1,
			},
			wantCode: errs.PolicyPendingCapError,
		},
		{
			name:   "requester bumps while under cap",
			sender: "alice",
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestPending, RequesterMessageCount: 0,
			},
			wantMut: MutationBump,
		},
		{
			name:   "recipient cannot reply before accepting",
			sender: "bob",
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestPending, RequesterMessageCount: 1,
			},
			wantCode: errs.PolicyMustAcceptError,
		},
		{
			name:   "accepted request opens both directions",
			sender: "bob",
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestAccepted, RequesterMessageCount: 1,
			},
			wantMut: MutationNone,
		},
		{
			name:   "declined request is terminal for requester",
			sender: "alice",
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestDeclined,
			},
			wantCode: errs.PolicyDeclinedError,
		},
		{
			name:   "friends bypass the request machine",
			sender: "alice",
			friendship: &socialmodel.Friendship{
				UserA: "alice", UserB: "bob",
				Status: socialmodel.FriendshipAccepted,
			},
			wantMut: MutationNone,
		},
		{
			name:   "blocked by sender",
			sender: "alice",
			friendship: &socialmodel.Friendship{
				UserA: "alice", UserB: "bob",
				Status: socialmodel.FriendshipBlocked, BlockedBy: "alice",
			},
			wantCode: errs.PolicyBlockedByYouError,
		},
		{
			name:   "blocked by peer",
			sender: "alice",
			friendship: &socialmodel.Friendship{
				UserA: "alice", UserB: "bob",
				Status: socialmodel.FriendshipBlocked, BlockedBy: "bob",
			},
			wantCode: errs.PolicyBlockedByPeerError,
		},
		{
			name:   "block wins over an accepted-looking request",
			sender: "alice",
			friendship: &socialmodel.Friendship{
				UserA: "alice", UserB: "bob",
				Status: socialmodel.FriendshipBlocked, BlockedBy: "bob",
			},
			request: &socialmodel.MessageRequest{
				FromUserID: "alice", ToUserID: "bob",
				Status: socialmodel.RequestAccepted,
			},
			wantCode: errs.PolicyBlockedByPeerError,
		},
		{
			name:     "non member denied",
			sender:   "mallory",
			wantCode: errs.RecordNotFoundError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := Resolve(chat, tt.sender, tt.friendship, tt.request)
			if tt.wantCode != 0 {
				assert.NotNil(t, dec.Deny)
				assert.Equal(t, tt.wantCode, dec.Deny.Code)
				return
			}
			assert.Nil(t, dec.Deny)
			assert.Equal(t, tt.wantMut, dec.Mutation)
		})
	}
}

func TestResolveGroupChatSkipsGate(t *testing.T) {
	chat := &socialmodel.Chat{
		ChatID:   "g1",
		ChatType: socialmodel.ChatTypeGroup,
		Members:  []string{"alice", "bob", "carol"},
	}
	dec := Resolve(chat, "alice", nil, nil)
	assert.Nil(t, dec.Deny)
	assert.Equal(t, MutationNone, dec.Mutation)
}
