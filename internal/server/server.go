// Package server implements the demonstration static file server used to try
// the web export locally.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/relkit/internal/config"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/metrics"
	"git.home.luguber.info/inful/relkit/internal/server/middleware"
)

// DefaultPort is used when no port argument is given.
const DefaultPort = 8080

// ParsePort returns the first argument made only of digits whose value is
// below 65536, or DefaultPort.
func ParsePort(args []string) int {
	for _, arg := range args {
		if arg == "" || strings.IndexFunc(arg, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			continue
		}
		if n, err := strconv.Atoi(arg); err == nil && n < 65536 {
			return n
		}
	}
	return DefaultPort
}

// Server serves a directory over HTTP.
type Server struct {
	cfg    config.ServeConfig
	logger *slog.Logger
	out    io.Writer
	ready  chan string
}

// New returns a server for cfg. The start banner is written to out.
func New(cfg config.ServeConfig, logger *slog.Logger, out io.Writer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Server{cfg: cfg, logger: logger, out: out, ready: make(chan string, 1)}
}

// Ready yields the listening address once Run has bound its socket.
func (s *Server) Ready() <-chan string { return s.ready }

// Handler builds the request handler: the static file tree, plus the
// Prometheus endpoint when metrics are enabled.
func (s *Server) Handler() http.Handler {
	var rec metrics.Recorder = metrics.NoopRecorder{}
	mux := http.NewServeMux()
	if s.cfg.Metrics {
		pr := metrics.NewPrometheusRecorder(nil)
		rec = pr
		mux.Handle(s.cfg.MetricsPath, pr.Handler())
	}
	mux.Handle("/", wasmTypes(http.FileServer(http.Dir(s.cfg.Dir))))
	return middleware.Chain(s.logger, rec)(mux)
}

// wasmTypes pins the WebAssembly media type; browsers refuse to stream-compile
// modules served with any other type.
func wasmTypes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		next.ServeHTTP(w, r)
	})
}

// Run listens on the configured port and serves until ctx is cancelled, then
// shuts down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	_, _ = fmt.Fprintf(s.out, "started localhost:%d\n", port)
	s.logger.Info("Serving directory", logfields.Dir(s.cfg.Dir), logfields.Port(port), "metrics", s.cfg.Metrics)
	s.ready <- fmt.Sprintf("localhost:%d", port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
