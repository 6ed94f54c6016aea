package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akalyaev/worker-pool/internal/queue"
	"github.com/akalyaev/worker-pool/internal/registry"
)

type fakeCounts struct{ counts queue.Counts }

func (f fakeCounts) WorkerCounts() queue.Counts { return f.counts }

type fakeSizer map[string]int

func (f fakeSizer) Size(name string) (int, bool) {
	n, ok := f[name]
	return n, ok
}

func newTestRouter(t *testing.T, store *registry.Store, sizer PoolSizer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPoolAPI(store, sizer).Register(router)
	return router
}

func TestPoolAPI_ListPools(t *testing.T) {
	store := registry.New()
	store.Register(registry.Info{Name: "pool-a", Manager: fakeCounts{}, Born: time.Now()})
	router := newTestRouter(t, store, fakeSizer{})

	req := httptest.NewRequest(http.MethodGet, "/pools", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pool-a")
}

func TestPoolAPI_WorkerCounts_KnownPool(t *testing.T) {
	store := registry.New()
	store.Register(registry.Info{Name: "pool-a", Manager: fakeCounts{counts: queue.Counts{Idle: 2, Pending: 1}}})
	router := newTestRouter(t, store, fakeSizer{})

	req := httptest.NewRequest(http.MethodGet, "/pools/pool-a/counts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2")
}

func TestPoolAPI_WorkerCounts_UnknownPool(t *testing.T) {
	store := registry.New()
	router := newTestRouter(t, store, fakeSizer{})

	req := httptest.NewRequest(http.MethodGet, "/pools/ghost/counts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestPoolAPI_Stats_KnownPool(t *testing.T) {
	store := registry.New()
	born := time.Now().Add(-time.Second)
	store.Register(registry.Info{
		Name: "pool-a", Manager: fakeCounts{counts: queue.Counts{Idle: 1}}, Born: born,
	})
	router := newTestRouter(t, store, fakeSizer{"pool-a": 4})

	req := httptest.NewRequest(http.MethodGet, "/pools/pool-a/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Size":4`)
}

func TestPoolAPI_Stats_UnknownSizer(t *testing.T) {
	store := registry.New()
	store.Register(registry.Info{Name: "pool-a", Manager: fakeCounts{}})
	router := newTestRouter(t, store, fakeSizer{})

	req := httptest.NewRequest(http.MethodGet, "/pools/pool-a/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusOK, rec.Code)
}
