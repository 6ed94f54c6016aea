// Package http is the introspection HTTP surface: read-only endpoints over
// the pool registry and the manager's worker_counts. It never touches
// dispatch state directly — only through registry.Store's best-effort,
// unpersisted snapshots.
//
// Follows the internal/api RegisterXAPI(route gin.IRoutes) convention and
// uses lindb/common/pkg/http response helpers.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httppkg "github.com/lindb/common/pkg/http"

	"github.com/akalyaev/worker-pool/internal/queue"
	"github.com/akalyaev/worker-pool/internal/registry"
)

// PoolSizer supplies a pool's configured worker count, used to derive
// busy = size - idle. The registry itself has no notion of pool size.
type PoolSizer interface {
	Size(pool string) (int, bool)
}

// PoolAPI serves pool introspection endpoints.
type PoolAPI struct {
	store *registry.Store
	sizer PoolSizer
}

// NewPoolAPI creates a PoolAPI over store, using sizer to resolve pool
// sizes for the stats endpoint.
func NewPoolAPI(store *registry.Store, sizer PoolSizer) *PoolAPI {
	return &PoolAPI{store: store, sizer: sizer}
}

// Register adds the pool introspection routes.
func (a *PoolAPI) Register(route gin.IRoutes) {
	route.GET("/pools", a.ListPools)
	route.GET("/pools/:name/counts", a.WorkerCounts)
	route.GET("/pools/:name/stats", a.Stats)
}

// ListPools returns every registered pool name.
func (a *PoolAPI) ListPools(c *gin.Context) {
	httppkg.OK(c, a.store.List())
}

// WorkerCounts returns (idle, pending) for the named pool.
func (a *PoolAPI) WorkerCounts(c *gin.Context) {
	name := c.Param("name")
	info, ok := a.store.Lookup(name)
	if !ok {
		httppkg.Error(c, &queue.ErrInvalidPool{Name: name})
		return
	}
	httppkg.OK(c, info.Manager.WorkerCounts())
}

// Stats returns size/idle/busy/age for the named pool.
func (a *PoolAPI) Stats(c *gin.Context) {
	name := c.Param("name")
	size, ok := a.sizer.Size(name)
	if !ok {
		httppkg.Error(c, &queue.ErrInvalidPool{Name: name})
		return
	}
	stats, ok := a.store.Stats(name, size)
	if !ok {
		httppkg.Error(c, &queue.ErrInvalidPool{Name: name})
		return
	}
	c.JSON(http.StatusOK, stats)
}
