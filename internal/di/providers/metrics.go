package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"

	"github.com/pathflowapp/pathflow/internal/config"
	"github.com/pathflowapp/pathflow/internal/logger"
	"github.com/pathflowapp/pathflow/internal/metrics"
)

// ProvideMetricsRegistry provides the Prometheus registry.
func ProvideMetricsRegistry(i do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

// ProvideRecorder provides the pipeline metrics recorder.
func ProvideRecorder(i do.Injector) (*metrics.PrometheusRecorder, error) {
	reg := do.MustInvoke[*prometheus.Registry](i)
	return metrics.NewPrometheusRecorder(reg), nil
}

// MetricsServerHandle wraps the metrics HTTP server with shutdown capability.
type MetricsServerHandle struct {
	server *http.Server
}

// Shutdown implements do.Shutdownable.
func (h *MetricsServerHandle) Shutdown() error {
	if h.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.server.Shutdown(ctx)
}

// ProvideMetricsServer provides the Prometheus scrape endpoint. It is a no-op
// when metrics exposure is disabled.
func ProvideMetricsServer(i do.Injector) (*MetricsServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Metrics.Enabled {
		log.Debug("Metrics endpoint disabled")
		return &MetricsServerHandle{}, nil
	}

	reg := do.MustInvoke[*prometheus.Registry](i)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         cfg.Metrics.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server error", "error", err)
		}
	}()

	log.Info("Metrics endpoint started", "addr", cfg.Metrics.Addr)

	return &MetricsServerHandle{server: server}, nil
}
