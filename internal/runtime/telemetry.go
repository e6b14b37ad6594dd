package runtime

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arman-radmanesh/clinicore/config"
)

// StartMetricsServer exposes the Prometheus registry on a dedicated port when
// telemetry is enabled. It returns a shutdown function.
func StartMetricsServer(cfg config.TelemetryConfig, logger *log.Logger) (func(context.Context) error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled || cfg.MetricsPort == 0 {
		return func(context.Context) error { return nil }, nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server: %v", err)
		}
	}()
	logger.Printf("metrics listening on :%d", cfg.MetricsPort)
	return srv.Shutdown, nil
}
