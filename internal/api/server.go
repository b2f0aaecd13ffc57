// Package api provides the citation service REST API server.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sifria/mareh/core/catalog"
	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/core/ref"
	"github.com/sifria/mareh/internal/config"
	"github.com/sifria/mareh/internal/logging"
	"github.com/sifria/mareh/internal/metrics"
	"github.com/sifria/mareh/internal/server"
)

// Server binds the citation engine and catalog store to HTTP.
type Server struct {
	cfg     config.ServerConfig
	engine  *ref.Engine
	store   *catalog.Store
	metrics *metrics.Metrics
	hub     *Hub

	httpServer *http.Server
}

// NewServer assembles a server. store may be nil when the catalog is
// in-memory only; mutations are then not persisted.
func NewServer(cfg config.ServerConfig, engine *ref.Engine, store *catalog.Store, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		store:   store,
		metrics: m,
		hub:     NewHub(m),
	}
	engine.Library().Subscribe(func(ev library.Event) {
		s.hub.BroadcastEvent(ev)
		m.CatalogRebuilds.Inc()
		m.CatalogTextsTotal.Set(float64(len(engine.Library().TextTitles())))
	})
	return s
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/parse", s.handleParse)
	mux.HandleFunc("GET /v1/scan", s.handleScan)
	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("GET /v1/titles", s.handleTitles)
	mux.HandleFunc("GET /v1/index/{title}", s.handleGetIndex)
	mux.HandleFunc("POST /v1/index", s.handlePostIndex)
	mux.HandleFunc("DELETE /v1/index/{title}", s.handleDeleteIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start runs the server until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()

	var handler http.Handler = s.routes()
	handler = s.metricsMiddleware(handler)
	handler = logging.Middleware(handler)
	handler = server.CORSMiddleware(server.CORSConfig{}, handler)
	handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), handler)

	// The WebSocket endpoint bypasses the wrapping middleware: the
	// upgrade handshake needs the raw connection via http.Hijacker.
	root := http.NewServeMux()
	root.HandleFunc("GET /v1/events", s.hub.ServeWS)
	root.Handle("/", handler)
	handler = root

	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	logging.ServerStartup("rest_api", s.cfg.Addr(),
		"texts", len(s.engine.Library().TextTitles()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// metricsMiddleware records request counts and latencies per route.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.written {
		return
	}
	r.status = code
	r.written = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}
