package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxLifecycle(t *testing.T) {
	o := New()

	e := o.Add("l1", "c1", 1, "hi")
	assert.Equal(t, StatusPending, e.Status)

	// 重复入列返回同一条
	again := o.Add("l1", "c1", 1, "hi")
	assert.Same(t, e, again)

	require.True(t, o.Fail("l1", "network down"))
	assert.Equal(t, "failed", e.Status.String())

	require.True(t, o.Retry("l1"))
	require.True(t, o.Confirm("l1", "srv-42"))
	assert.Equal(t, "srv-42", e.MessageID)

	// 确认后不再接受失败或二次确认
	assert.False(t, o.Fail("l1", "late error"))
	assert.False(t, o.Confirm("l1", "srv-43"))
	assert.Equal(t, "srv-42", e.MessageID)
}

func TestOutboxUnsettledOrder(t *testing.T) {
	o := New()
	o.Add("l1", "c1", 1, "a")
	o.Add("l2", "c1", 1, "b")
	o.Add("l3", "c2", 1, "c")
	o.Confirm("l2", "srv-2")

	got := o.Unsettled()
	require.Len(t, got, 2)
	assert.Equal(t, "l1", got[0].LocalID)
	assert.Equal(t, "l3", got[1].LocalID)

	o.Drop("l1")
	assert.Len(t, o.Unsettled(), 1)
}
