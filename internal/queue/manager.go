// Package queue implements the dispatch loop: the single-threaded broker
// that matches a fixed set of long-lived workers against an unbounded
// stream of casts, calls, and state-machine events. It owns the idle-worker
// set and the pending FIFO and carries every ordering, fairness, liveness,
// and deadline guarantee of the pool.
//
// Follows the internal/concurrent.workerPool.dispatch() shape: one
// goroutine, one inbound channel, one message processed to completion
// before the next is read.
package queue

import (
	"context"
	"time"

	"github.com/lindb/common/pkg/logger"
	"go.uber.org/atomic"

	"github.com/akalyaev/worker-pool/internal/metrics"
	"github.com/akalyaev/worker-pool/internal/tracing"
)

// Dispatcher performs the non-blocking handoff of a matched work item to a
// specific worker. Implemented by the worker runtime (internal/worker);
// the manager never talks to a worker except through this seam.
//
// SyncEvent is handed the client's reply handle directly so the worker can
// reply to it once its result is ready, without routing the reply back
// through the dispatch loop.
type Dispatcher interface {
	Cast(worker WorkerID, payload any)
	CastCall(worker WorkerID, client *Client, payload any)
	Event(worker WorkerID, payload any, allState bool)
	SyncEvent(worker WorkerID, client *Client, payload any, allState bool)
}

// Counts is the worker_counts introspection tuple.
type Counts struct {
	Idle    int
	Pending int
}

// Forever marks a Call/SyncEvent timeout as never expiring.
const Forever time.Duration = -1

// commands processed one at a time by run(). Unexported: submitters only
// ever see Manager's exported methods.
type (
	cmdCast struct{ payload any }
	cmdCall struct {
		payload any
		timeout time.Duration
		client  *Client
	}
	cmdSendEvent struct {
		payload  any
		allState bool
	}
	cmdSyncEvent struct {
		payload  any
		allState bool
		timeout  time.Duration
		client   *Client
	}
	cmdWorkerReady  struct{ id WorkerID }
	cmdWorkerBusy   struct{ id WorkerID }
	cmdWorkerDead   struct{ id WorkerID }
	cmdWorkerCounts struct{ reply chan Counts }
	cmdShutdown     struct {
		reason error
		done   chan struct{}
	}
)

// Manager is the queue manager: the dispatch loop plus its owned state.
type Manager struct {
	name       string
	born       time.Time
	clock      Clock
	dispatcher Dispatcher
	logger     logger.Logger
	stats      *metrics.PoolStats
	observer   tracing.Observer

	cmds    chan any
	stopped chan struct{} // closed once run() has fully drained and exited
	closed  atomic.Bool   // lock-free fast path for send(), mirroring pool.stopped

	// owned exclusively inside run() — never touched from outside it.
	workers *workerSet
	pending *pendingQueue
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithClock overrides the production wall clock, for deterministic tests.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithStats attaches a Prometheus mirror of the dispatch loop's counters.
func WithStats(s *metrics.PoolStats) Option {
	return func(m *Manager) { m.stats = s }
}

// WithObserver attaches the tracing subsystem.
func WithObserver(o tracing.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// NewManager creates a manager for pool name, dispatching matched work
// through dispatcher, and starts its dispatch loop goroutine.
func NewManager(name string, dispatcher Dispatcher, opts ...Option) *Manager {
	m := &Manager{
		name:       name,
		born:       time.Now(),
		clock:      NewSystemClock(),
		dispatcher: dispatcher,
		logger:     logger.GetLogger("Queue", name),
		observer:   tracing.Noop,
		cmds:       make(chan any, 64),
		stopped:    make(chan struct{}),
		closed:     *atomic.NewBool(false),
		workers:    newWorkerSet(),
		pending:    newPendingQueue(),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.run()
	return m
}

// PoolName returns the pool this manager belongs to.
func (m *Manager) PoolName() string { return m.name }

// Born returns the manager's creation timestamp.
func (m *Manager) Born() time.Time { return m.born }

// send enqueues a command, or reports noproc immediately if the manager has
// already shut down — mirroring a message send to a dead process. closed
// gives submitters a lock-free fast path before falling back to the
// channel-based check, the same shape as pool.stopped.
func (m *Manager) send(cmd any) error {
	if m.closed.Load() {
		return ErrNoProc
	}
	select {
	case <-m.stopped:
		return ErrNoProc
	default:
	}
	select {
	case m.cmds <- cmd:
		return nil
	case <-m.stopped:
		return ErrNoProc
	}
}

// --- submitter operations ---

// CastToAvailableWorker is fire-and-forget: dispatched immediately to an
// idle worker, or enqueued. Never fails; it blocks only while the manager's
// 64-command inbox is full.
func (m *Manager) CastToAvailableWorker(payload any) {
	_ = m.send(cmdCast{payload: payload})
}

// SendEventToAvailableWorker is the async event-delivery analogue of Cast.
func (m *Manager) SendEventToAvailableWorker(payload any) {
	_ = m.send(cmdSendEvent{payload: payload, allState: false})
}

// SendAllEventToAvailableWorker is the all-state variant of
// SendEventToAvailableWorker; the variant survives enqueue (REDESIGN FLAG #1).
func (m *Manager) SendAllEventToAvailableWorker(payload any) {
	_ = m.send(cmdSendEvent{payload: payload, allState: true})
}

// CallAvailableWorker submits a synchronous call with timeout (or Forever).
// Blocks on the submitter's own reply channel; observes ErrTimeout if the
// local wait elapses, ErrNoProc if the manager is not running.
func (m *Manager) CallAvailableWorker(ctx context.Context, payload any, timeout time.Duration) (any, error) {
	return m.syncSubmit(ctx, timeout, func(client *Client) any {
		return cmdCall{payload: payload, timeout: timeout, client: client}
	})
}

// SyncSendEventToAvailableWorker is the synchronous single-state event call.
func (m *Manager) SyncSendEventToAvailableWorker(ctx context.Context, payload any, timeout time.Duration) (any, error) {
	return m.syncSubmit(ctx, timeout, func(client *Client) any {
		return cmdSyncEvent{payload: payload, allState: false, timeout: timeout, client: client}
	})
}

// SyncSendAllEventToAvailableWorker is the synchronous all-state event call.
func (m *Manager) SyncSendAllEventToAvailableWorker(ctx context.Context, payload any, timeout time.Duration) (any, error) {
	return m.syncSubmit(ctx, timeout, func(client *Client) any {
		return cmdSyncEvent{payload: payload, allState: true, timeout: timeout, client: client}
	})
}

func (m *Manager) syncSubmit(ctx context.Context, timeout time.Duration, build func(*Client) any) (any, error) {
	waitCtx := ctx
	if timeout >= 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	client := NewClient(waitCtx)
	if err := m.send(build(client)); err != nil {
		return nil, err
	}
	reply, ok := client.Wait()
	if !ok {
		if waitCtx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, waitCtx.Err()
	}
	return reply.Value, reply.Err
}

// --- lifecycle callbacks ---

// NewWorker is equivalent to WorkerReady: it admits w as idle, or hands it
// the head of pending if work is already waiting.
func (m *Manager) NewWorker(w WorkerID) { m.WorkerReady(w) }

// WorkerReady runs the central matching rule: see handleWorkerReady.
func (m *Manager) WorkerReady(w WorkerID) { _ = m.send(cmdWorkerReady{id: w}) }

// WorkerBusy removes w from the idle set, if present. No-op otherwise.
func (m *Manager) WorkerBusy(w WorkerID) { _ = m.send(cmdWorkerBusy{id: w}) }

// WorkerDead removes w from the idle set, if present. Never touches
// pending — a dead worker was never assigned a queued item.
func (m *Manager) WorkerDead(w WorkerID) { _ = m.send(cmdWorkerDead{id: w}) }

// WorkerCounts returns (idle, pending) in O(1).
func (m *Manager) WorkerCounts() Counts {
	reply := make(chan Counts, 1)
	if err := m.send(cmdWorkerCounts{reply: reply}); err != nil {
		return Counts{}
	}
	select {
	case c := <-reply:
		return c
	case <-m.stopped:
		return Counts{}
	}
}

// Shutdown drains pending, replying ErrQueueShutdown to every waiting
// Call/SyncEvent client and logging every lost Cast/Event, then stops the
// dispatch loop. Blocks until the drain completes.
func (m *Manager) Shutdown(reason error) {
	done := make(chan struct{})
	select {
	case <-m.stopped:
		return
	case m.cmds <- cmdShutdown{reason: reason, done: done}:
	}
	<-done
}

// --- dispatch loop ---

func (m *Manager) run() {
	defer close(m.stopped)
	for cmd := range m.cmds {
		switch c := cmd.(type) {
		case cmdCast:
			m.handleCast(c.payload)
		case cmdSendEvent:
			m.handleSendEvent(c.payload, c.allState)
		case cmdCall:
			m.handleCall(c.payload, c.timeout, c.client)
		case cmdSyncEvent:
			m.handleSyncEvent(c.payload, c.allState, c.timeout, c.client)
		case cmdWorkerReady:
			m.handleWorkerReady(c.id)
		case cmdWorkerBusy:
			m.workers.remove(c.id)
			m.refreshStats()
		case cmdWorkerDead:
			m.workers.remove(c.id)
			if m.stats != nil {
				m.stats.WorkersDead.Inc()
			}
			m.refreshStats()
		case cmdWorkerCounts:
			c.reply <- Counts{Idle: m.workers.size(), Pending: m.pending.len()}
		case cmdShutdown:
			m.closed.Store(true)
			m.handleShutdown(c.reason)
			close(c.done)
			return
		}
	}
}

func (m *Manager) deadlineFor(timeout time.Duration) Deadline {
	if timeout < 0 {
		return Infinity
	}
	return m.clock.Now() + Deadline(timeout.Microseconds())
}

func (m *Manager) handleCast(payload any) {
	span := m.observer.RequestStarted(context.Background(), "cast")
	if w, ok := m.workers.removeSmallest(); ok {
		m.dispatcher.Cast(w, payload)
		if m.stats != nil {
			m.stats.TasksDispatched.Inc()
		}
		span.End("dispatched")
	} else {
		m.pending.enqueue(workItem{kind: kindCast, payload: payload})
		span.End("queued")
	}
	m.refreshStats()
}

func (m *Manager) handleSendEvent(payload any, allState bool) {
	span := m.observer.RequestStarted(context.Background(), "send_event")
	if w, ok := m.workers.removeSmallest(); ok {
		m.dispatcher.Event(w, payload, allState)
		if m.stats != nil {
			m.stats.TasksDispatched.Inc()
		}
		span.End("dispatched")
	} else {
		m.pending.enqueue(workItem{kind: kindEvent, payload: payload, allState: allState})
		span.End("queued")
	}
	m.refreshStats()
}

func (m *Manager) handleCall(payload any, timeout time.Duration, client *Client) {
	span := m.observer.RequestStarted(context.Background(), "call")
	deadline := m.deadlineFor(timeout)
	if w, ok := m.workers.removeSmallest(); ok {
		if m.dispatchCallToWorker(w, client, payload, deadline) {
			span.End("dispatched")
			m.refreshStats()
			return
		}
		// client gone or already expired: worker returns to idle, per spec.
		m.workers.add(w)
		span.End("expired")
	} else {
		m.pending.enqueue(workItem{kind: kindCall, payload: payload, client: client, deadline: deadline})
		span.End("queued")
	}
	m.refreshStats()
}

func (m *Manager) handleSyncEvent(payload any, allState bool, timeout time.Duration, client *Client) {
	span := m.observer.RequestStarted(context.Background(), "sync_event")
	deadline := m.deadlineFor(timeout)
	if w, ok := m.workers.removeSmallest(); ok {
		if m.dispatchSyncEventToWorker(w, client, payload, allState, deadline) {
			span.End("dispatched")
			m.refreshStats()
			return
		}
		m.workers.add(w)
		span.End("expired")
	} else {
		m.pending.enqueue(workItem{
			kind: kindSyncEvent, payload: payload, client: client,
			deadline: deadline, allState: allState,
		})
		span.End("queued")
	}
	m.refreshStats()
}

// dispatchCallToWorker hands off payload to w via cast_call if client is
// still alive and unexpired; returns false (and does not touch m.workers)
// if the entry should instead be dropped.
func (m *Manager) dispatchCallToWorker(w WorkerID, client *Client, payload any, deadline Deadline) bool {
	if !client.Alive() || deadline.Expired(m.clock.Now()) {
		if m.stats != nil {
			m.stats.TasksExpired.Inc()
		}
		return false
	}
	m.dispatcher.CastCall(w, client, payload)
	if m.stats != nil {
		m.stats.TasksDispatched.Inc()
	}
	return true
}

func (m *Manager) dispatchSyncEventToWorker(w WorkerID, client *Client, payload any, allState bool, deadline Deadline) bool {
	if !client.Alive() || deadline.Expired(m.clock.Now()) {
		if m.stats != nil {
			m.stats.TasksExpired.Inc()
		}
		return false
	}
	m.dispatcher.SyncEvent(w, client, payload, allState)
	if m.stats != nil {
		m.stats.TasksDispatched.Inc()
	}
	return true
}

// handleWorkerReady is the central matching rule: w either joins the idle
// set, or is matched against pending's head. An expired or abandoned
// Call/SyncEvent entry is dropped and the rule re-applied for w —
// implemented as a loop, not recursion, bounded by pending.len() at entry,
// so it always terminates.
func (m *Manager) handleWorkerReady(w WorkerID) {
	if m.stats != nil {
		m.stats.WorkersSeen.Inc()
	}
	span := m.observer.RequestStarted(context.Background(), "worker_ready")
	budget := m.pending.len()
	for i := 0; i <= budget; i++ {
		item, ok := m.pending.dequeue()
		if !ok {
			m.workers.add(w)
			span.End("idle")
			m.refreshStats()
			return
		}
		switch item.kind {
		case kindCast:
			m.dispatcher.Cast(w, item.payload)
			if m.stats != nil {
				m.stats.TasksDispatched.Inc()
			}
			span.End("dispatched")
			m.refreshStats()
			return
		case kindEvent:
			m.dispatcher.Event(w, item.payload, item.allState)
			if m.stats != nil {
				m.stats.TasksDispatched.Inc()
			}
			span.End("dispatched")
			m.refreshStats()
			return
		case kindCall:
			if m.dispatchCallToWorker(w, item.client, item.payload, item.deadline) {
				span.End("dispatched")
				m.refreshStats()
				return
			}
			// expired/abandoned: consumed one pending entry, retry w.
		case kindSyncEvent:
			if m.dispatchSyncEventToWorker(w, item.client, item.payload, item.allState, item.deadline) {
				span.End("dispatched")
				m.refreshStats()
				return
			}
		}
	}
	span.End("idle")
	// Unreachable in practice: the loop consumes at least one pending entry
	// per iteration, so it cannot outrun budget+1 iterations.
	m.workers.add(w)
	m.refreshStats()
}

func (m *Manager) handleShutdown(reason error) {
	for _, item := range m.pending.drain() {
		switch item.kind {
		case kindCast:
			m.logger.Info("cast lost on terminate", logger.Error(reason))
			if m.stats != nil {
				m.stats.TasksDropped.Inc()
			}
		case kindEvent:
			m.logger.Info("event lost on terminate", logger.Error(reason))
			if m.stats != nil {
				m.stats.TasksDropped.Inc()
			}
		case kindCall, kindSyncEvent:
			item.client.Send(Reply{Err: &ErrQueueShutdown{Reason: reason}})
		}
	}
	m.refreshStats()
}

func (m *Manager) refreshStats() {
	if m.stats == nil {
		return
	}
	m.stats.WorkersIdle.Set(float64(m.workers.size()))
	m.stats.PendingDepth.Set(float64(m.pending.len()))
}
