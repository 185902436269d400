package sitegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/passport-ui/passport/pkg/breadcrumb"
)

// Request kinds used as metric labels besides the page kinds.
const (
	kindAPI      = "api"
	kindSitemap  = "sitemap"
	kindRegistry = "registry"
	kindNotFound = "not_found"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger  *slog.Logger
	metrics MetricsConfig
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) ServerOption {
	return func(c *serverConfig) {
		c.metrics.Namespace = namespace
	}
}

// WithBuckets sets the request duration histogram buckets.
func WithBuckets(buckets []float64) ServerOption {
	return func(c *serverConfig) {
		c.metrics.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry backing /metrics.
func WithRegistry(registry *prometheus.Registry) ServerOption {
	return func(c *serverConfig) {
		c.metrics.Registry = registry
	}
}

// Server serves a generator's pages over HTTP for local preview.
// The generator can be replaced at any time with Swap; in-flight requests
// finish against the generator they started with.
type Server struct {
	current atomic.Pointer[Generator]
	logger  *slog.Logger
	metrics *metrics
	gather  prometheus.Gatherer
	router  chi.Router
}

// NewServer creates a preview server for gen.
func NewServer(gen *Generator, opts ...ServerOption) *Server {
	cfg := serverConfig{logger: slog.Default(), metrics: defaultMetricsConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.metrics.Registry == nil {
		cfg.metrics.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		logger:  cfg.logger,
		metrics: newMetrics(cfg.metrics),
		gather:  cfg.metrics.Registry,
	}
	s.current.Store(gen)
	s.metrics.sitePages.Set(float64(len(gen.Pages())))
	s.router = s.routes()
	return s
}

// Generator returns the generator currently being served.
func (s *Server) Generator() *Generator {
	return s.current.Load()
}

// Swap replaces the served generator.
func (s *Server) Swap(gen *Generator) {
	s.current.Store(gen)
	s.metrics.siteSwaps.Inc()
	s.metrics.sitePages.Set(float64(len(gen.Pages())))
	s.logger.Info("preview site replaced", "site", gen.Site().Profile.Name)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("preview server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down preview server: %w", err)
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.With(s.instrument(kindSitemap)).Get("/sitemap.xml", s.handleSitemap)
	r.With(s.instrument(kindRegistry)).Get("/registry.json", s.handleRegistry)
	r.Route("/api", func(r chi.Router) {
		r.Use(s.instrument(kindAPI))
		r.Get("/navigation", s.handleNavigation)
		r.Get("/breadcrumbs", s.handleBreadcrumbs)
		r.Get("/pages", s.handlePages)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	r.With(s.instrument("")).Get("/*", s.handlePage)
	return r
}

type kindKey struct{}

// instrument records request counts and durations. Handlers under a blank
// kind report the page kind they served through setKind.
func (s *Server) instrument(kind string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			label := kind
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), kindKey{}, &label)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			s.metrics.requestsTotal.WithLabelValues(label, strconv.Itoa(status)).Inc()
			s.metrics.requestDuration.WithLabelValues(label).Observe(elapsed.Seconds())
			s.logger.Debug("preview request", "method", r.Method, "path", r.URL.Path,
				"kind", label, "status", status, "duration", elapsed)
		})
	}
}

func setKind(r *http.Request, kind string) {
	if label, ok := r.Context().Value(kindKey{}).(*string); ok {
		*label = kind
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	gen := s.Generator()
	page, err := gen.Resolve(r.URL.Path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			setKind(r, kindNotFound)
			s.renderHTML(w, http.StatusNotFound, func(buf *bytes.Buffer) error {
				return gen.RenderNotFound(buf, r.URL.Path)
			})
			return
		}
		setKind(r, "error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	setKind(r, string(page.Kind))
	s.renderHTML(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return gen.Render(buf, page)
	})
}

func (s *Server) renderHTML(w http.ResponseWriter, status int, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	data, err := s.Generator().MarshalSitemap()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(data)
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Generator().Site().Query.Registry)
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Generator().Site().Navigation(r.URL.Query().Get("q")))
}

type breadcrumbsResponse struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	Breadcrumbs []breadcrumb.Crumb `json:"breadcrumbs"`
}

func (s *Server) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path query parameter is required"})
		return
	}
	crumbs := s.Generator().Site().Crumbs
	writeJSON(w, http.StatusOK, breadcrumbsResponse{
		Path:        path,
		Title:       crumbs.Title(path),
		Breadcrumbs: crumbs.For(path),
	})
}

type pageSummary struct {
	Path  string `json:"path"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages := s.Generator().Pages()
	out := make([]pageSummary, len(pages))
	for i, p := range pages {
		out[i] = pageSummary{Path: p.Path, Kind: p.Kind, Title: p.Title}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
