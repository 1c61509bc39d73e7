package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// runSearch loads the inputs, opens the store and runs the coordinator.
// Input and store failures abort before any worker starts.
func runSearch(ctx context.Context, cfg Config, log *logrus.Logger) (RunStats, error) {
	table, err := LoadFrequencies(cfg.Frequencies)
	if err != nil {
		return RunStats{}, err
	}
	if len(table) == 0 {
		log.WithField("file", cfg.Frequencies).Warn("no bigrams loaded; every layout costs 0")
	}
	model := NewCostModel(table)

	store, err := OpenStore(ctx, StoreOptions{Path: cfg.Store, PersistSteps: cfg.PersistSteps})
	if err != nil {
		return RunStats{}, err
	}
	defer store.Close()

	reporters := []Reporter{NewLogReporter(log)}
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("layout-optimizer"))
		if err != nil {
			return RunStats{}, fmt.Errorf("connect nats %s: %w", cfg.NATSURL, err)
		}
		defer nc.Drain()
		reporters = append(reporters, NewNATSReporter(nc, cfg.NATSSubject))
	}

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	coord, err := NewCoordinator(model, store, SearchOptions{
		Trials:     cfg.Trials,
		Workers:    cfg.Workers,
		CacheSize:  cfg.CacheSize,
		Reporter:   MultiReporter(reporters...),
		Logger:     log,
		Registerer: reg,
	})
	if err != nil {
		return RunStats{}, err
	}
	return coord.Run(ctx)
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")
	return srv
}
