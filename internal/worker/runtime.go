// Package worker is a worker runtime collaborating with the dispatch core:
// it wraps user-supplied behavior, executes handed-off work, and reports
// its own lifecycle transitions (spawned, busy, ready, dead) back to a
// queue.Manager. The dispatch loop never reaches into this package; it only
// ever calls through the queue.Dispatcher seam.
//
// Follows the internal/concurrent.worker shape: a goroutine reading one
// task channel, re-registering itself as available once done.
package worker

import (
	"fmt"

	"github.com/lindb/common/pkg/logger"

	"github.com/akalyaev/worker-pool/internal/queue"
)

// Behavior is the user-supplied work a Runtime executes. Implementations
// correspond to the four delivery primitives a worker exposes: cast, call,
// event, and sync event.
type Behavior interface {
	// HandleCast processes a fire-and-forget payload.
	HandleCast(payload any)
	// HandleCall processes a synchronous call and produces the reply.
	HandleCall(payload any) (any, error)
	// HandleEvent processes an async state-machine event delivery.
	// allState distinguishes send_all_event from send_event.
	HandleEvent(payload any, allState bool)
	// HandleSyncEvent processes a synchronous state-machine event delivery
	// and produces the reply.
	HandleSyncEvent(payload any, allState bool) (any, error)
}

type taskKind int

const (
	taskCast taskKind = iota
	taskCastCall
	taskEvent
	taskSyncEvent
)

type task struct {
	kind     taskKind
	payload  any
	client   *queue.Client
	allState bool
}

// Runtime is one long-lived worker process: it executes tasks handed off by
// the manager (via Hub) and reports lifecycle transitions back to it.
type Runtime struct {
	id       queue.WorkerID
	manager  *queue.Manager
	behavior Behavior
	logger   logger.Logger

	tasks  chan task
	stopCh chan struct{}
}

// Spawn creates a worker runtime, registers it in hub so the manager's
// Dispatcher calls can reach it, starts its processing goroutine, and
// reports it ready to manager (new_worker).
func Spawn(id queue.WorkerID, manager *queue.Manager, hub *Hub, behavior Behavior) *Runtime {
	r := &Runtime{
		id:       id,
		manager:  manager,
		behavior: behavior,
		logger:   logger.GetLogger("Worker", string(id)),
		tasks:    make(chan task, 1),
		stopCh:   make(chan struct{}),
	}
	hub.register(r)
	go r.process()
	manager.NewWorker(id)
	return r
}

// MarkBusy reports worker_busy: the worker is doing something outside the
// manager's knowledge and should not be matched until it reports ready
// again. No-op from the manager's perspective if it is already busy.
func (r *Runtime) MarkBusy() { r.manager.WorkerBusy(r.id) }

// Stop reports worker_dead and halts the processing goroutine. Any task
// already in flight finishes first.
func (r *Runtime) Stop(hub *Hub) {
	close(r.stopCh)
	hub.unregister(r.id)
	r.manager.WorkerDead(r.id)
}

func (r *Runtime) enqueue(t task) {
	r.tasks <- t
}

func (r *Runtime) process() {
	for {
		select {
		case <-r.stopCh:
			return
		case t := <-r.tasks:
			r.execute(t)
			select {
			case <-r.stopCh:
				return
			default:
			}
			// re-register as idle: equivalent to worker_ready.
			r.manager.WorkerReady(r.id)
		}
	}
}

func (r *Runtime) execute(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("worker panic: %v", rec)
			r.logger.Error("panic while executing task",
				logger.String("worker", string(r.id)), logger.Error(err), logger.Stack())
			if t.client != nil {
				t.client.Send(queue.Reply{Err: err})
			}
		}
	}()
	switch t.kind {
	case taskCast:
		r.behavior.HandleCast(t.payload)
	case taskCastCall:
		value, err := r.behavior.HandleCall(t.payload)
		t.client.Send(queue.Reply{Value: value, Err: err})
	case taskEvent:
		r.behavior.HandleEvent(t.payload, t.allState)
	case taskSyncEvent:
		value, err := r.behavior.HandleSyncEvent(t.payload, t.allState)
		t.client.Send(queue.Reply{Value: value, Err: err})
	}
}
