package call

import (
	"sync"
	"testing"
	"time"

	"SProject/module/social/events"
	"SProject/tools/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRec struct {
	mu   sync.Mutex
	sent []sinkEvent
}

type sinkEvent struct {
	user  string
	event string
	data  any
}

func (s *sinkRec) SendToUser(userID, event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sinkEvent{userID, event, data})
}

func (s *sinkRec) BroadcastToGroup(string, string, any) {}

func (s *sinkRec) byEvent(event string) []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sinkEvent
	for _, e := range s.sent {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func codeOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	var ce *errs.CodeError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestCallAcceptFlow(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	callID, err := c.Start("alice", "bob", "c1", CallerInfo{Name: "Alice"})
	require.NoError(t, err)

	incoming := sink.byEvent(events.EventCallIncoming)
	require.Len(t, incoming, 1)
	assert.Equal(t, "bob", incoming[0].user)
	data := incoming[0].data.(events.CallIncomingData)
	assert.Equal(t, callID, data.CallID)
	assert.Equal(t, "Alice", data.CallerName)

	require.NoError(t, c.Accept(callID, "bob"))
	accepts := sink.byEvent(events.EventCallAccept)
	require.Len(t, accepts, 1)
	assert.Equal(t, "alice", accepts[0].user)

	// 通话中挂断，通知对端
	require.NoError(t, c.End(callID, "alice"))
	ends := sink.byEvent(events.EventCallEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, "bob", ends[0].user)
}

func TestCallerBusyRejectedLocally(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	_, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)

	// 同一主叫二次外呼：本地拒绝，被叫不会收到第二次震铃
	_, err = c.Start("alice", "carol", "c2", CallerInfo{})
	assert.Equal(t, errs.CallerBusyError, codeOf(t, err))
	assert.Len(t, sink.byEvent(events.EventCallIncoming), 1)
}

func TestCalleeBusyAutoDeclines(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	callID, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)
	require.NoError(t, c.Accept(callID, "bob"))

	// bob 通话中，carol 呼入：不震铃，carol 直接收到 busy
	_, err = c.Start("carol", "bob", "c2", CallerInfo{})
	assert.Equal(t, errs.CalleeBusyError, codeOf(t, err))

	assert.Len(t, sink.byEvent(events.EventCallIncoming), 1)
	declines := sink.byEvent(events.EventCallDecline)
	require.Len(t, declines, 1)
	assert.Equal(t, "carol", declines[0].user)
	assert.Equal(t, ReasonBusy, declines[0].data.(events.CallDeclineData).Reason)
}

func TestRingingCalleeCountsAsBusy(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	_, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)

	_, err = c.Start("carol", "bob", "c2", CallerInfo{})
	assert.Equal(t, errs.CalleeBusyError, codeOf(t, err))
}

func TestRingTimeoutFiresExactlyOnce(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, 20*time.Millisecond)
	defer c.Close()

	callID, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(sink.byEvent(events.EventCallEnd)) == 2
	}, time.Second, 5*time.Millisecond)

	ends := sink.byEvent(events.EventCallEnd)
	for _, e := range ends {
		assert.Equal(t, ReasonTimeout, e.data.(events.CallEndData).Reason)
	}

	// 迟到的 accept/decline 是 no-op，不产生新事件
	require.NoError(t, c.Accept(callID, "bob"))
	require.NoError(t, c.Decline(callID, "bob", "late"))
	assert.Len(t, sink.byEvent(events.EventCallEnd), 2)
	assert.Len(t, sink.byEvent(events.EventCallAccept), 0)

	// 超时清理后主叫可以再次外呼
	_, err = c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)
}

func TestAcceptDisarmsTimeout(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, 20*time.Millisecond)
	defer c.Close()

	callID, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)
	require.NoError(t, c.Accept(callID, "bob"))

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, sink.byEvent(events.EventCallEnd), 0)
}

func TestDeclineNotifiesCaller(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	callID, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)

	// 只有被叫能拒接
	err = c.Decline(callID, "alice", "nope")
	assert.Equal(t, errs.CallStateError, codeOf(t, err))

	require.NoError(t, c.Decline(callID, "bob", "declined"))
	declines := sink.byEvent(events.EventCallDecline)
	require.Len(t, declines, 1)
	assert.Equal(t, "alice", declines[0].user)

	// 拒接后两边都不再占线
	_, err = c.Start("bob", "alice", "c1", CallerInfo{})
	require.NoError(t, err)
}

func TestDropUserEndsCall(t *testing.T) {
	sink := &sinkRec{}
	c := NewCoordinator(sink, time.Minute)
	defer c.Close()

	_, err := c.Start("alice", "bob", "c1", CallerInfo{})
	require.NoError(t, err)

	c.DropUser("alice")
	ends := sink.byEvent(events.EventCallEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, "bob", ends[0].user)
}
