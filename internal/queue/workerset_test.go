package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerSet_AddRemoveSmallest(t *testing.T) {
	s := newWorkerSet()
	assert.True(t, s.empty())

	s.add("w2")
	s.add("w1")
	s.add("w3")
	assert.Equal(t, 3, s.size())

	w, ok := s.removeSmallest()
	require.True(t, ok)
	assert.Equal(t, WorkerID("w1"), w)
	assert.Equal(t, 2, s.size())

	w, ok = s.removeSmallest()
	require.True(t, ok)
	assert.Equal(t, WorkerID("w2"), w)
}

func TestWorkerSet_RemoveSmallestEmpty(t *testing.T) {
	s := newWorkerSet()
	_, ok := s.removeSmallest()
	assert.False(t, ok)
}

func TestWorkerSet_RemoveIdempotent(t *testing.T) {
	s := newWorkerSet()
	s.remove("ghost") // no-op, must not panic
	s.add("w1")
	s.remove("w1")
	s.remove("w1") // idempotent
	assert.True(t, s.empty())
}

func TestWorkerSet_HasAndDuplicateAdd(t *testing.T) {
	s := newWorkerSet()
	s.add("w1")
	s.add("w1") // ReplaceOrInsert: no duplicate membership
	assert.Equal(t, 1, s.size())
	assert.True(t, s.has("w1"))
	assert.False(t, s.has("w2"))
}
