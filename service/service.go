package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-reporter/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = 8080

	MetricsHost = "0.0.0.0"
	MetricsPort = 7300
)

// Config selects which servers run and where
type Config struct {
	HealthzEnabled bool
	HealthzHost    string
	HealthzPort    int
	ReportDir      string // served under ReportsPath when set

	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
}

type Service struct {
	cfg     Config
	log     log.Logger
	Healthz *HealthzServer
	Metrics *MetricsServer
}

func New(cfg Config, logger log.Logger) *Service {
	if cfg.HealthzHost == "" {
		cfg.HealthzHost = HealthzHost
	}
	if cfg.HealthzPort == 0 {
		cfg.HealthzPort = HealthzPort
	}
	if cfg.MetricsHost == "" {
		cfg.MetricsHost = MetricsHost
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = MetricsPort
	}
	if logger == nil {
		logger = log.Root()
	}
	s := &Service{
		cfg:     cfg,
		log:     logger,
		Healthz: NewHealthzServer(cfg.ReportDir),
		Metrics: &MetricsServer{},
	}
	return s
}

// Enabled reports whether any server is configured to run
func (s *Service) Enabled() bool {
	return s.cfg.HealthzEnabled || s.cfg.MetricsEnabled
}

func (s *Service) Start(ctx context.Context) {
	s.log.Info("service starting")

	if s.cfg.HealthzEnabled {
		go func() {
			addr := net.JoinHostPort(s.cfg.HealthzHost, strconv.Itoa(s.cfg.HealthzPort))
			s.log.Info("starting healthz server", "addr", addr, "reports", s.cfg.ReportDir)
			if err := s.Healthz.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting healthz server", "err", err)
				metrics.RecordErrorDetails("error starting healthz server", err)
			}
		}()
	}

	if s.cfg.MetricsEnabled {
		go func() {
			addr := net.JoinHostPort(s.cfg.MetricsHost, strconv.Itoa(s.cfg.MetricsPort))
			s.log.Info("starting metrics server", "addr", addr)
			if err := s.Metrics.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("error starting metrics server", "err", err)
				metrics.RecordErrorDetails("error starting metrics server", err)
			}
		}()
	}

	s.log.Info("service started")
}

func (s *Service) Shutdown() {
	s.log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	s.log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	s.log.Info("metrics stopped")

	s.log.Info("service stopped")
}
