package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/supply-map-service/internal/cluster"
	"github.com/couchcryptid/supply-map-service/internal/dashboard"
	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard is the application service behind the API routes.
type Dashboard interface {
	Regions() []domain.ReferenceRegion
	Suppliers(ctx context.Context) []domain.JoinedRecord
	SupplierMarkers(ctx context.Context) []domain.Marker
	AddSupplier(ctx context.Context, in domain.SupplierInput) (dashboard.AddResult, error)
	RemoveSupplier(ctx context.Context, id string) error
	SupplierNews(ctx context.Context, id string) (dashboard.NewsReport, error)
	Demand(ctx context.Context) []domain.JoinedRecord
	DemandMarkers(ctx context.Context) []domain.Marker
	JoinRecords(subjects []domain.SubjectRecord) domain.JoinResult
	Clusters(ctx context.Context, kind dashboard.Kind) ([]cluster.Cluster, error)
	Cities() []domain.City
	CityInfo(id string) (domain.CityInfo, error)
}

// Server exposes the map API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API routes mounted under /api.
func NewServer(addr string, svc Dashboard, ready sharedobs.ReadinessChecker, allowedOrigins []string, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(allowedOrigins))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/api", apiRoutes(svc, logger))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// writeJSON encodes v before writing the header. A value that cannot be
// encoded is answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
