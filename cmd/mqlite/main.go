package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/vitalvas/mqlite"
)

func main() {
	config, err := mqlite.LoadConfig(os.Getenv("MQLITE_CONFIG"))
	if err != nil {
		os.Stderr.WriteString("mqlite: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := mqlite.NewStdLogger(nil, mqlite.ParseLogLevel(config.LogLevel))

	retained := mqlite.RetainedStore(mqlite.NewMemoryRetainedStore())
	if config.DataDir != "" {
		store, err := mqlite.OpenBadgerRetainedStore(config.DataDir)
		if err != nil {
			logger.Error("failed to open retained store", mqlite.LogFields{"data_dir": config.DataDir, "error": err})
			os.Exit(1)
		}
		retained = store
	}
	defer retained.Close()

	metrics := mqlite.NewPrometheusMetrics()

	opts := []mqlite.ServerOption{
		mqlite.WithLogger(logger),
		mqlite.WithMetrics(metrics),
		mqlite.WithRetainedStore(retained),
		mqlite.WithMaxConnections(config.MaxConnections),
		mqlite.WithMaxPacketSize(config.MaxPacketSize),
		mqlite.WithWriteTimeout(config.WriteTimeout),
	}
	if config.ConnectRate > 0 {
		opts = append(opts, mqlite.WithConnectRate(rate.Limit(config.ConnectRate), config.ConnectBurst))
	}

	srv, err := mqlite.NewServer(config.Listen, opts...)
	if err != nil {
		logger.Error("failed to start broker", mqlite.LogFields{"addr": config.Listen, "error": err})
		os.Exit(1)
	}

	var exporter *http.Server
	if config.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		exporter = &http.Server{Addr: config.MetricsListen, Handler: mux}

		go func() {
			logger.Info("metrics exporter started", mqlite.LogFields{"addr": config.MetricsListen})
			if err := exporter.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics exporter failed", mqlite.LogFields{"error": err})
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	srv.ListenAndServe()

	if exporter != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		exporter.Shutdown(shutdownCtx)
	}
}
