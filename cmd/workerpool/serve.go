package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	httpapi "github.com/akalyaev/worker-pool/api/http"
	"github.com/akalyaev/worker-pool/config"
	"github.com/akalyaev/worker-pool/internal/metrics"
	"github.com/akalyaev/worker-pool/internal/queue"
	"github.com/akalyaev/worker-pool/internal/registry"
	"github.com/akalyaev/worker-pool/internal/tracing"
	"github.com/akalyaev/worker-pool/internal/worker"
)

var cfgPath string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the configured pools and the introspection HTTP surface",
		RunE:  serve,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to workerpool.toml (defaults to built-in config)")
	return cmd
}

// echoBehavior is the demo worker behavior the serve command spawns: it
// ignores Cast/Event payloads and replies to Call/SyncEvent with the payload
// it was given, enough to exercise every dispatch path without requiring a
// real user workload.
type echoBehavior struct{}

func (echoBehavior) HandleCast(payload any) {}

func (echoBehavior) HandleCall(payload any) (any, error) { return payload, nil }

func (echoBehavior) HandleEvent(payload any, allState bool) {}

func (echoBehavior) HandleSyncEvent(payload any, allState bool) (any, error) {
	return payload, nil
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	store := registry.New()

	var tracerProvider *sdktrace.TracerProvider
	observer := tracing.Noop
	if cfg.Tracing.Enabled {
		kind := tracing.ExporterStdout
		if cfg.Tracing.Exporter == "otlp-grpc" {
			kind = tracing.ExporterOTLPGRPC
		}
		tracerProvider, err = tracing.NewTracerProvider(ctx, kind, cfg.Tracing.Endpoint, "workerpool")
		if err != nil {
			return fmt.Errorf("start tracer provider: %w", err)
		}
		defer func() { _ = tracerProvider.Shutdown(context.Background()) }()
	}

	for _, pool := range cfg.Pools {
		stats := metrics.NewPoolStats(promReg, pool.Name)
		poolObserver := observer
		if tracerProvider != nil {
			poolObserver = tracing.NewOTelObserver(tracerProvider, pool.Name)
		}
		hub := worker.NewHub()
		manager := queue.NewManager(pool.Name, hub,
			queue.WithStats(stats),
			queue.WithObserver(poolObserver),
		)
		store.Register(registry.Info{Name: pool.Name, Manager: manager, Born: manager.Born()})
		for i := 0; i < pool.Size; i++ {
			// the pool name and spawn index prefix the id; the uuid suffix
			// keeps ids unique across process restarts.
			id := queue.WorkerID(fmt.Sprintf("%s-%d-%s", pool.Name, i, uuid.New().String()[:8]))
			worker.Spawn(id, manager, hub, echoBehavior{})
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))
	api := httpapi.NewPoolAPI(store, poolSizer{cfg: cfg})
	api.Register(router)

	srv := &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type poolSizer struct{ cfg config.Config }

func (s poolSizer) Size(name string) (int, bool) {
	p, ok := s.cfg.PoolByName(name)
	return p.Size, ok
}
