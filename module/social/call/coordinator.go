package call

import (
	"sync"
	"time"

	"SProject/logger"
	"SProject/module/social/events"
	"SProject/tools/errs"
	"SProject/tools/ids"
)

// 通话是纯内存态，不落库。状态机：
//
//	ringing -> connected            (accept)
//	ringing -> declined             (decline / busy)
//	ringing -> ended(timeout)       (30s 无应答)
//	ringing|connected -> ended      (任一方挂断)
//
// 终态即从表中移除，之后对该 callID 的任何操作都是 no-op。

const (
	ReasonBusy    = "busy"
	ReasonTimeout = "timeout"
	ReasonHangup  = "hangup"
)

type state int

const (
	stateRinging state = iota + 1
	stateConnected
)

type session struct {
	callID   string
	chatID   string
	callerID string
	calleeID string
	state    state
	timer    *time.Timer
}

func (s *session) other(userID string) string {
	if userID == s.callerID {
		return s.calleeID
	}
	return s.callerID
}

// CallerInfo 震铃时带给被叫的主叫展示信息
type CallerInfo struct {
	Name   string
	Avatar string
}

// Coordinator 信令协调器。显式持有呼叫表与振铃定时器，
// 连接建立时录入、任何终态统一经 remove 清理，没有游离的全局状态。
type Coordinator struct {
	mu          sync.Mutex
	byID        map[string]*session
	byUser      map[string]*session // 参与者 -> 会话；振铃中的被叫也占线
	sink        events.Sink
	ringTimeout time.Duration
}

func NewCoordinator(sink events.Sink, ringTimeout time.Duration) *Coordinator {
	if ringTimeout <= 0 {
		ringTimeout = 30 * time.Second
	}
	return &Coordinator{
		byID:        make(map[string]*session),
		byUser:      make(map[string]*session),
		sink:        sink,
		ringTimeout: ringTimeout,
	}
}

// Start 主叫发起呼叫。
//   - 主叫已有未决呼叫：本地拒绝，不向被叫发任何事件；
//   - 被叫占线（振铃或通话中）：不打扰被叫，直接给主叫回
//     call:decline{busy}；
//   - 否则登记会话、武装超时定时器、向被叫震铃。
func (c *Coordinator) Start(callerID, calleeID, chatID string, caller CallerInfo) (string, error) {
	if callerID == "" || calleeID == "" || callerID == calleeID {
		return "", errs.ErrArgs.Wrap()
	}
	c.mu.Lock()
	if _, busy := c.byUser[callerID]; busy {
		c.mu.Unlock()
		return "", errs.ErrCallerBusy.Wrap()
	}
	callID := ids.GenerateString()
	if _, busy := c.byUser[calleeID]; busy {
		c.mu.Unlock()
		c.sink.SendToUser(callerID, events.EventCallDecline, events.CallDeclineData{
			CallID: callID,
			Reason: ReasonBusy,
		})
		return "", errs.ErrCalleeBusy.Wrap()
	}
	sess := &session{
		callID:   callID,
		chatID:   chatID,
		callerID: callerID,
		calleeID: calleeID,
		state:    stateRinging,
	}
	sess.timer = time.AfterFunc(c.ringTimeout, func() { c.timeout(callID) })
	c.byID[callID] = sess
	c.byUser[callerID] = sess
	c.byUser[calleeID] = sess
	c.mu.Unlock()

	c.sink.SendToUser(calleeID, events.EventCallIncoming, events.CallIncomingData{
		CallID:       callID,
		ChatID:       chatID,
		CallerID:     callerID,
		CallerName:   caller.Name,
		CallerAvatar: caller.Avatar,
	})
	return callID, nil
}

// Accept 被叫接听。超时后的迟到接听是 no-op。
func (c *Coordinator) Accept(callID, userID string) error {
	c.mu.Lock()
	sess, ok := c.byID[callID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if userID != sess.calleeID || sess.state != stateRinging {
		c.mu.Unlock()
		return errs.ErrCallState.Wrap()
	}
	sess.timer.Stop()
	sess.state = stateConnected
	caller := sess.callerID
	c.mu.Unlock()

	c.sink.SendToUser(caller, events.EventCallAccept, events.CallAcceptData{CallID: callID})
	return nil
}

// Decline 被叫拒接。终态，迟到的 decline 是 no-op。
func (c *Coordinator) Decline(callID, userID, reason string) error {
	c.mu.Lock()
	sess, ok := c.byID[callID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if userID != sess.calleeID || sess.state != stateRinging {
		c.mu.Unlock()
		return errs.ErrCallState.Wrap()
	}
	c.removeLocked(sess)
	c.mu.Unlock()

	if reason == "" {
		reason = "declined"
	}
	c.sink.SendToUser(sess.callerID, events.EventCallDecline, events.CallDeclineData{
		CallID: callID,
		Reason: reason,
	})
	return nil
}

// End 任一参与者挂断，振铃中或通话中均可。通知对端。
func (c *Coordinator) End(callID, userID string) error {
	c.mu.Lock()
	sess, ok := c.byID[callID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	if userID != sess.callerID && userID != sess.calleeID {
		c.mu.Unlock()
		return errs.ErrCallState.Wrap()
	}
	c.removeLocked(sess)
	c.mu.Unlock()

	c.sink.SendToUser(sess.other(userID), events.EventCallEnd, events.CallEndData{
		CallID: callID,
		Reason: ReasonHangup,
	})
	return nil
}

// timeout 振铃 30s 无应答：等价于主叫挂断，双方各收一条 ended(timeout)。
// 定时器与 Accept/Decline/End 的竞争由表里是否还有该会话裁决，
// 保证超时转移恰好发生一次。
func (c *Coordinator) timeout(callID string) {
	c.mu.Lock()
	sess, ok := c.byID[callID]
	if !ok || sess.state != stateRinging {
		c.mu.Unlock()
		return
	}
	c.removeLocked(sess)
	c.mu.Unlock()

	logger.Infof("call %s ring timeout, caller=%s callee=%s", callID, sess.callerID, sess.calleeID)
	data := events.CallEndData{CallID: callID, Reason: ReasonTimeout}
	c.sink.SendToUser(sess.callerID, events.EventCallEnd, data)
	c.sink.SendToUser(sess.calleeID, events.EventCallEnd, data)
}

// DropUser 连接全部断开时清理该用户的在场呼叫，对端收到 ended。
func (c *Coordinator) DropUser(userID string) {
	c.mu.Lock()
	sess, ok := c.byUser[userID]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.removeLocked(sess)
	c.mu.Unlock()

	c.sink.SendToUser(sess.other(userID), events.EventCallEnd, events.CallEndData{
		CallID: sess.callID,
		Reason: ReasonHangup,
	})
}

// Close 停掉所有定时器，进程退出用
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sess := range c.byID {
		sess.timer.Stop()
	}
	c.byID = make(map[string]*session)
	c.byUser = make(map[string]*session)
}

func (c *Coordinator) removeLocked(sess *session) {
	sess.timer.Stop()
	delete(c.byID, sess.callID)
	delete(c.byUser, sess.callerID)
	delete(c.byUser, sess.calleeID)
}
