// Package registry is the process-wide, in-memory pool registry: a table
// keyed by pool name, consulted only by the introspection surface. It never
// participates in dispatch. This is the Go analogue of an Erlang ETS named
// table / registered-process directory — a narrower concern than any
// distributed-registry library built for cross-node service discovery with
// persistence, which this pool registry has no use for, so it is
// deliberately a thin stdlib sync.Map.
package registry

import (
	"sync"
	"time"

	"github.com/akalyaev/worker-pool/internal/queue"
)

// CountsProvider is implemented by the dispatch loop manager.
type CountsProvider interface {
	WorkerCounts() queue.Counts
}

// Info is the metadata registered for one pool.
type Info struct {
	Name    string
	Manager CountsProvider
	Born    time.Time
}

// Stats derives introspection-friendly numbers from Info and a total
// worker-pool size supplied by the caller (the registry itself has no
// notion of pool size — that is a manager/config concern).
type Stats struct {
	Name  string
	Size  int
	Idle  int
	Busy  int
	Born  time.Time
	AgeS  float64
}

// Store is the registry's read/write surface.
type Store struct {
	pools sync.Map // string -> *Info
}

// New creates an empty registry.
func New() *Store {
	return &Store{}
}

// Register adds or replaces the entry for name.
func (s *Store) Register(info Info) {
	s.pools.Store(info.Name, &info)
}

// Deregister removes name, if present. Idempotent.
func (s *Store) Deregister(name string) {
	s.pools.Delete(name)
}

// Lookup returns the entry for name, if registered.
func (s *Store) Lookup(name string) (Info, bool) {
	v, ok := s.pools.Load(name)
	if !ok {
		return Info{}, false
	}
	return *v.(*Info), true
}

// List returns every registered pool's name, in no particular order — a
// best-effort snapshot, not a consistent point-in-time view.
func (s *Store) List() []string {
	var names []string
	s.pools.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// Stats derives busy = size - idle and age-in-seconds for name, given the
// pool's configured worker count. Returns false for an unregistered pool
// (the introspection surface maps this to ErrInvalidPool).
func (s *Store) Stats(name string, size int) (Stats, bool) {
	info, ok := s.Lookup(name)
	if !ok {
		return Stats{}, false
	}
	counts := info.Manager.WorkerCounts()
	return Stats{
		Name: name,
		Size: size,
		Idle: counts.Idle,
		Busy: size - counts.Idle,
		Born: info.Born,
		AgeS: time.Since(info.Born).Seconds(),
	}, true
}

var _ CountsProvider = (*queue.Manager)(nil)
