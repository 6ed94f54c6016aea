package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingQueue_FIFO(t *testing.T) {
	q := newPendingQueue()
	assert.True(t, q.empty())

	q.enqueue(workItem{kind: kindCast, payload: "a"})
	q.enqueue(workItem{kind: kindCast, payload: "b"})
	q.enqueue(workItem{kind: kindCast, payload: "c"})
	assert.Equal(t, 3, q.len())

	item, ok := q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", item.payload)

	item, ok = q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "b", item.payload)

	assert.Equal(t, 1, q.len())
}

func TestPendingQueue_DequeueEmpty(t *testing.T) {
	q := newPendingQueue()
	_, ok := q.dequeue()
	assert.False(t, ok)
}

func TestPendingQueue_Drain(t *testing.T) {
	q := newPendingQueue()
	q.enqueue(workItem{kind: kindCast, payload: 1})
	q.enqueue(workItem{kind: kindCast, payload: 2})
	items := q.drain()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].payload)
	assert.Equal(t, 2, items[1].payload)
	assert.True(t, q.empty())
}
