// Package chi provides the HTTP surface: the streaming ask endpoint, asset
// delivery, health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fwojciec/siteask"
)

// DefaultRetrieveK bounds how many text snippets back an answer.
const DefaultRetrieveK = 5

// ShutdownTimeout bounds graceful shutdown on Close.
const ShutdownTimeout = 10 * time.Second

// Server serves the ask and asset endpoints over HTTP.
type Server struct {
	Addr string

	Store     siteask.AssetStore
	Retriever siteask.Retriever
	Indexer   siteask.Indexer // optional: uploads become retrievable
	Generator siteask.Generator
	Decoder   siteask.UploadDecoder

	Logger  *slog.Logger    // optional
	Metrics siteask.Metrics // optional

	// MetricsHandler serves GET /metrics when set (promhttp.Handler()).
	MetricsHandler http.Handler

	// RetrieveK overrides DefaultRetrieveK when positive.
	RetrieveK int

	// StreamIdleTimeout overrides ask.DefaultIdleTimeout when positive.
	StreamIdleTimeout time.Duration

	ln     net.Listener
	server *http.Server
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) metrics() siteask.Metrics {
	if s.Metrics != nil {
		return s.Metrics
	}
	return siteask.NopMetrics{}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Post("/ask", s.handleAsk)
	r.Get("/assets", s.handleListAssets)
	r.Get("/assets/*", s.handleAssetContent)

	return r
}

// Open starts listening on s.Addr. It returns once the listener is bound;
// serving continues in the background.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger().Error("http server failed", "error", err)
		}
	}()

	s.logger().Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// Close shuts the server down gracefully.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// logRequests emits one structured log line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger().Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// errorStatus maps domain error codes to HTTP status codes.
func errorStatus(err error) int {
	switch siteask.ErrorCode(err) {
	case siteask.ENOTFOUND:
		return http.StatusNotFound
	case siteask.EINVALID:
		return http.StatusBadRequest
	case siteask.ECONFLICT:
		return http.StatusConflict
	case siteask.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error as a JSON response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		s.logger().Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": siteask.ErrorMessage(err)})
}
