package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the prometheus default registry
type MetricsServer struct {
	mu     sync.Mutex
	ctx    context.Context
	server *http.Server
}

// Handler returns the routes of the server
func (m *MetricsServer) Handler() http.Handler {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	return hdlr
}

func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Handler: m.Handler(),
		Addr:    addr,
	}
	m.mu.Lock()
	m.server = server
	m.ctx = ctx
	m.mu.Unlock()
	return server.ListenAndServe()
}

func (m *MetricsServer) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(m.ctx)
}
