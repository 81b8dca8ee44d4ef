package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(connID, userID string) *Client {
	return NewClient(connID, userID, nil, 16)
}

func recvEvent(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case payload := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(payload, &f))
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func TestRegistryMultiConnection(t *testing.T) {
	reg := NewRegistry()
	c1 := testClient("conn1", "alice")
	c2 := testClient("conn2", "alice")
	reg.Add(c1)
	reg.Add(c2)

	// 同一用户多端并存，互不顶号
	assert.True(t, reg.IsOnline("alice"))
	assert.Equal(t, 2, reg.ConnCount("alice"))
	assert.Len(t, reg.ListByUser("alice"), 2)

	user, last := reg.Remove("conn1")
	assert.Equal(t, "alice", user)
	assert.False(t, last)
	assert.True(t, reg.IsOnline("alice"))

	user, last = reg.Remove("conn2")
	assert.Equal(t, "alice", user)
	assert.True(t, last)
	assert.False(t, reg.IsOnline("alice"))

	// 重复摘除是 no-op
	_, last = reg.Remove("conn2")
	assert.False(t, last)
}

func TestRouterSendToUserAllConnections(t *testing.T) {
	reg := NewRegistry()
	r := NewRouter("gw-test", reg, nil)

	c1 := testClient("conn1", "alice")
	c2 := testClient("conn2", "alice")
	reg.Add(c1)
	reg.Add(c2)

	r.SendToUser("alice", "message:new", map[string]any{"text": "hi"})

	f1 := recvEvent(t, c1)
	f2 := recvEvent(t, c2)
	assert.Equal(t, "message:new", f1.Event)
	assert.Equal(t, "message:new", f2.Event)
	assert.Equal(t, "hi", f1.Data["text"])
}

func TestRouterOfflineUserDropped(t *testing.T) {
	reg := NewRegistry()
	r := NewRouter("gw-test", reg, nil)

	// 没有在线连接也没有 relay：投递静默丢弃，不 panic 不排队
	r.SendToUser("ghost", "message:new", map[string]any{"text": "hi"})
}

func TestRouterGroupBroadcast(t *testing.T) {
	reg := NewRegistry()
	r := NewRouter("gw-test", reg, nil)

	a := testClient("conn-a", "alice")
	b := testClient("conn-b", "bob")
	o := testClient("conn-o", "outsider")
	reg.Add(a)
	reg.Add(b)
	reg.Add(o)
	r.JoinGroup("c1", a)
	r.JoinGroup("c1", b)

	r.BroadcastToGroup("c1", "chat:readUpdate", map[string]any{"chatId": "c1"})

	assert.Equal(t, "chat:readUpdate", recvEvent(t, a).Event)
	assert.Equal(t, "chat:readUpdate", recvEvent(t, b).Event)
	select {
	case <-o.Send:
		t.Fatal("outsider must not receive group broadcast")
	case <-time.After(50 * time.Millisecond):
	}

	// 退订后不再收到
	r.LeaveGroup("c1", "conn-b")
	r.BroadcastToGroup("c1", "chat:readUpdate", map[string]any{"chatId": "c1"})
	assert.Equal(t, "chat:readUpdate", recvEvent(t, a).Event)
	select {
	case <-b.Send:
		t.Fatal("left member must not receive group broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouterDropConnClearsGroups(t *testing.T) {
	reg := NewRegistry()
	r := NewRouter("gw-test", reg, nil)
	a := testClient("conn-a", "alice")
	reg.Add(a)
	r.JoinGroup("c1", a)
	r.JoinGroup("c2", a)

	r.DropConn("conn-a")
	r.BroadcastToGroup("c1", "chat:readUpdate", nil)
	select {
	case <-a.Send:
		t.Fatal("dropped conn must not receive broadcasts")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"markRead","data":{"chatId":"c1","readAt":123}}`))
	require.NoError(t, err)
	assert.Equal(t, "markRead", f.Event)
	assert.Equal(t, "c1", f.Data["chatId"])

	_, err = ParseFrame([]byte(`{"data":{}}`))
	assert.Error(t, err)
	_, err = ParseFrame([]byte(`not json`))
	assert.Error(t, err)
}
