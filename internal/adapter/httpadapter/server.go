package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
	"github.com/couchcryptid/energy-atlas-service/internal/query"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Queries is the read API the handlers serve. *query.Service satisfies it.
type Queries interface {
	MunicipiosByDepartment(ctx context.Context, raw string) ([]domain.MunicipalityRecord, error)
	DepartmentData(ctx context.Context, raw string) (*domain.EnrichedDepartmentAggregate, error)
	EnergyValue(ctx context.Context, raw string, typ query.EnergyType) float64
	MunicipiosForMap(ctx context.Context, raw string, zoom float64) ([]query.MapMunicipality, error)
	MunicipioByDane(ctx context.Context, code int) (*domain.MunicipalityRecord, error)
	DepartmentAggregates(ctx context.Context) ([]domain.EnrichedDepartmentAggregate, error)
	DatasetStats(ctx context.Context) (domain.Metadata, error)
	DepartmentRecommendation(ctx context.Context, raw string) (string, error)
}

// Server exposes the atlas API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	queries    Queries
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/v1 routes and /healthz, /readyz,
// and /metrics.
func NewServer(addr string, queries Queries, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		queries: queries,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/departments", s.handleDepartments)
	mux.HandleFunc("GET /api/v1/departments/{name}", s.handleDepartment)
	mux.HandleFunc("GET /api/v1/departments/{name}/municipios", s.handleDepartmentMunicipios)
	mux.HandleFunc("GET /api/v1/departments/{name}/energy", s.handleEnergyValue)
	mux.HandleFunc("GET /api/v1/departments/{name}/recommendation", s.handleRecommendation)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/municipios/{dane}", s.handleMunicipio)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)

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
