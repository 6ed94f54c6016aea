package worker

import (
	"sync"

	"github.com/akalyaev/worker-pool/internal/queue"
)

// Hub tracks the live Runtimes for one pool and implements queue.Dispatcher
// by looking up the addressed worker and handing it the task directly — the
// manager only ever knows a worker by its queue.WorkerID.
type Hub struct {
	mu      sync.RWMutex
	workers map[queue.WorkerID]*Runtime
}

// NewHub creates an empty worker table.
func NewHub() *Hub {
	return &Hub{workers: make(map[queue.WorkerID]*Runtime)}
}

func (h *Hub) register(r *Runtime) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workers[r.id] = r
}

func (h *Hub) unregister(id queue.WorkerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.workers, id)
}

func (h *Hub) lookup(id queue.WorkerID) *Runtime {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.workers[id]
}

// Cast implements queue.Dispatcher.
func (h *Hub) Cast(id queue.WorkerID, payload any) {
	if r := h.lookup(id); r != nil {
		r.enqueue(task{kind: taskCast, payload: payload})
	}
}

// CastCall implements queue.Dispatcher.
func (h *Hub) CastCall(id queue.WorkerID, client *queue.Client, payload any) {
	if r := h.lookup(id); r != nil {
		r.enqueue(task{kind: taskCastCall, payload: payload, client: client})
	}
}

// Event implements queue.Dispatcher.
func (h *Hub) Event(id queue.WorkerID, payload any, allState bool) {
	if r := h.lookup(id); r != nil {
		r.enqueue(task{kind: taskEvent, payload: payload, allState: allState})
	}
}

// SyncEvent implements queue.Dispatcher.
func (h *Hub) SyncEvent(id queue.WorkerID, client *queue.Client, payload any, allState bool) {
	if r := h.lookup(id); r != nil {
		r.enqueue(task{kind: taskSyncEvent, payload: payload, client: client, allState: allState})
	}
}

var _ queue.Dispatcher = (*Hub)(nil)
