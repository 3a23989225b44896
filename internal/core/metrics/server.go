package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
)

var logger = log.Logger("core/metrics")

// Server 指标 HTTP 端点
type Server struct {
	cfg     config.MetricsConfig
	handler http.Handler

	mu  sync.Mutex
	srv *http.Server
	ln  net.Listener
}

// NewServer 创建指标服务
func NewServer(cfg config.MetricsConfig, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &Server{cfg: cfg, handler: mux}
}

// Start 绑定地址并在后台提供服务
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ErrServerStarted
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务异常退出", "error", err)
		}
	}(s.srv)

	logger.Info("指标服务已启动", "addr", ln.Addr().String(), "path", s.cfg.Path)
	return nil
}

// Addr 返回实际监听地址，未启动时返回 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop 停止服务
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
