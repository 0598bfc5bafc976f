package service

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/rs/cors"
)

// ReportsPath is where the reports directory is served
const ReportsPath = "/reports/"

type HealthzServer struct {
	mu        sync.Mutex
	ctx       context.Context
	server    *http.Server
	reportDir string
}

// NewHealthzServer creates a healthz server that also serves reportDir when it is set
func NewHealthzServer(reportDir string) *HealthzServer {
	return &HealthzServer{reportDir: reportDir}
}

// Handler returns the routes of the server
func (h *HealthzServer) Handler() http.Handler {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	if h.reportDir != "" {
		hdlr.Handle(ReportsPath, http.StripPrefix(ReportsPath, reportsHandler(h.reportDir)))
	}
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(hdlr)
}

func (h *HealthzServer) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Handler: h.Handler(),
		Addr:    addr,
	}
	h.mu.Lock()
	h.server = server
	h.ctx = ctx
	h.mu.Unlock()
	return server.ListenAndServe()
}

func (h *HealthzServer) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(h.ctx)
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	log.Debug("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}

// reportsHandler serves the report directory, hiding dot files
func reportsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, part := range strings.Split(r.URL.Path, "/") {
			if strings.HasPrefix(part, ".") {
				http.NotFound(w, r)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}
