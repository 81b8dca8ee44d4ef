package consent

import (
	socialmodel "SProject/module/social/model"
	"SProject/tools/errs"
)

// Mutation tells the caller which request-table write has to land
// before the message may be persisted.
type Mutation int

const (
	MutationNone   Mutation = iota // no request bookkeeping needed
	MutationCreate                 // first stranger message, create pending request
	MutationBump                   // further stranger message, take a capped slot
)

// Decision is the outcome of the consent policy for one message.
// Deny nil means the message may proceed once Mutation is applied.
type Decision struct {
	Deny     *errs.CodeError
	Mutation Mutation
}

func allow(m Mutation) Decision { return Decision{Mutation: m} }
func deny(e *errs.CodeError) Decision {
	return Decision{Deny: e, Mutation: MutationNone}
}

// Resolve 对一条待发消息做准入裁决。纯函数，入参是当时的
// 关系快照与请求快照（均可为 nil），不做任何 IO。
//
// 规则优先级：拉黑 > 好友放行 > 消息请求状态机。
// 群聊不走请求状态机，入群即视为同意。
func Resolve(chat *socialmodel.Chat, senderID string, friendship *socialmodel.Friendship, request *socialmodel.MessageRequest) Decision {
	if chat == nil || !chat.HasMember(senderID) {
		return deny(&errs.ErrRecordNotFound)
	}
	if !chat.IsDirect() {
		return allow(MutationNone)
	}

	if friendship != nil && friendship.Status == socialmodel.FriendshipBlocked {
		if friendship.BlockedBy == senderID {
			return deny(&errs.ErrBlockedByYou)
		}
		return deny(&errs.ErrBlockedByPeer)
	}
	if friendship != nil && friendship.Status == socialmodel.FriendshipAccepted {
		return allow(MutationNone)
	}

	// 陌生人或仅有好友申请在途：消息请求状态机裁决
	if request == nil {
		return allow(MutationCreate)
	}
	switch request.Status {
	case socialmodel.RequestAccepted:
		return allow(MutationNone)
	case socialmodel.RequestDeclined:
		// 拒绝是终态，双向封口，除非后续走好友流程覆盖
		return deny(&errs.ErrDeclined)
	case socialmodel.RequestPending:
		if senderID == request.ToUserID {
			// 收件人未接受前不能回复，先走 accept
			return deny(&errs.ErrMustAccept)
		}
		if request.RequesterMessageCount >= socialmodel.RequesterMessageCap {
			return deny(&errs.ErrPendingCap)
		}
		return allow(MutationBump)
	default:
		return deny(&errs.ErrConflict)
	}
}
