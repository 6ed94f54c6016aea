package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akalyaev/worker-pool/internal/queue"
)

// recordingBehavior is a Behavior test double that records every
// invocation, standing in for a real user workload.
type recordingBehavior struct {
	mu    sync.Mutex
	casts []any
	calls []any
}

func (b *recordingBehavior) HandleCast(payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.casts = append(b.casts, payload)
}

func (b *recordingBehavior) HandleCall(payload any) (any, error) {
	b.mu.Lock()
	b.calls = append(b.calls, payload)
	b.mu.Unlock()
	return payload, nil
}

func (b *recordingBehavior) HandleEvent(payload any, allState bool) {}

func (b *recordingBehavior) HandleSyncEvent(payload any, allState bool) (any, error) {
	return payload, nil
}

func (b *recordingBehavior) castCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.casts)
}

// panicBehavior panics on every call, to exercise Runtime.execute's recover path.
type panicBehavior struct{ recordingBehavior }

func (panicBehavior) HandleCall(payload any) (any, error) {
	panic("boom")
}

func TestRuntime_CastIsDispatchedAndProcessed(t *testing.T) {
	hub := NewHub()
	manager := queue.NewManager("worker-test", hub)
	defer manager.Shutdown(nil)

	behavior := &recordingBehavior{}
	Spawn(queue.WorkerID("w1"), manager, hub, behavior)

	manager.CastToAvailableWorker("payload-1")
	require.Eventually(t, func() bool { return behavior.castCount() == 1 }, time.Second, time.Millisecond)

	// the worker re-registers itself as ready once the task completes, so a
	// second cast is matched to the same worker without another worker_ready.
	manager.CastToAvailableWorker("payload-2")
	require.Eventually(t, func() bool { return behavior.castCount() == 2 }, time.Second, time.Millisecond)
}

func TestRuntime_CallRepliesThroughClient(t *testing.T) {
	hub := NewHub()
	manager := queue.NewManager("worker-call-test", hub)
	defer manager.Shutdown(nil)

	behavior := &recordingBehavior{}
	Spawn(queue.WorkerID("w1"), manager, hub, behavior)

	value, err := manager.CallAvailableWorker(context.Background(), "echo-me", queue.Forever)
	require.NoError(t, err)
	assert.Equal(t, "echo-me", value)
}

func TestRuntime_MarkBusyRemovesFromIdle(t *testing.T) {
	hub := NewHub()
	manager := queue.NewManager("worker-busy-test", hub)
	defer manager.Shutdown(nil)

	behavior := &recordingBehavior{}
	rt := Spawn(queue.WorkerID("w1"), manager, hub, behavior)
	require.Eventually(t, func() bool { return manager.WorkerCounts().Idle == 1 }, time.Second, time.Millisecond)

	rt.MarkBusy()
	require.Eventually(t, func() bool { return manager.WorkerCounts().Idle == 0 }, time.Second, time.Millisecond)

	manager.CastToAvailableWorker("queued-while-busy")
	require.Eventually(t, func() bool { return manager.WorkerCounts().Pending == 1 }, time.Second, time.Millisecond)
}

func TestRuntime_StopUnregistersAndReportsDead(t *testing.T) {
	hub := NewHub()
	manager := queue.NewManager("worker-stop-test", hub)
	defer manager.Shutdown(nil)

	behavior := &recordingBehavior{}
	rt := Spawn(queue.WorkerID("w1"), manager, hub, behavior)
	require.Eventually(t, func() bool { return manager.WorkerCounts().Idle == 1 }, time.Second, time.Millisecond)

	rt.Stop(hub)
	require.Eventually(t, func() bool { return manager.WorkerCounts().Idle == 0 }, time.Second, time.Millisecond)
	assert.Nil(t, hub.lookup(queue.WorkerID("w1")))
}

func TestRuntime_PanicDuringCallIsRecoveredAndRepliedAsError(t *testing.T) {
	hub := NewHub()
	manager := queue.NewManager("worker-panic-test", hub)
	defer manager.Shutdown(nil)

	Spawn(queue.WorkerID("w1"), manager, hub, &panicBehavior{})

	_, err := manager.CallAvailableWorker(context.Background(), "anything", queue.Forever)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
