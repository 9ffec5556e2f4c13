package mqlite

import (
	"time"

	"golang.org/x/time/rate"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	retainedStore  RetainedStore
	metrics        Metrics
	logger         Logger
	maxPacketSize  uint32
	maxConnections int
	writeTimeout   time.Duration
	connectRate    rate.Limit
	connectBurst   int
}

func defaultServerConfig() *serverConfig {
	return &serverConfig{
		retainedStore:  NewMemoryRetainedStore(),
		metrics:        NoOpMetrics{},
		logger:         NewStdLogger(nil, LogLevelInfo),
		maxPacketSize:  256 * 1024,
		maxConnections: 100,
		writeTimeout:   10 * time.Second,
		connectRate:    rate.Inf,
	}
}

// WithRetainedStore sets the retained message store.
func WithRetainedStore(store RetainedStore) ServerOption {
	return func(c *serverConfig) {
		c.retainedStore = store
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) ServerOption {
	return func(c *serverConfig) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// WithMaxPacketSize sets the maximum accepted packet size in bytes.
// 0 means unlimited.
func WithMaxPacketSize(size uint32) ServerOption {
	return func(c *serverConfig) {
		c.maxPacketSize = size
	}
}

// WithMaxConnections sets the maximum number of concurrent
// connections. 0 means unlimited.
func WithMaxConnections(n int) ServerOption {
	return func(c *serverConfig) {
		c.maxConnections = n
	}
}

// WithWriteTimeout bounds how long one packet write may block the
// event loop.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(c *serverConfig) {
		c.writeTimeout = d
	}
}

// WithConnectRate limits how fast new connections are accepted.
func WithConnectRate(limit rate.Limit, burst int) ServerOption {
	return func(c *serverConfig) {
		c.connectRate = limit
		c.connectBurst = burst
	}
}
