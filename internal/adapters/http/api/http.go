// Package api exposes the event service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/okian/eventmap/internal/adapters/repository"
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/impact"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/internal/domain/validate"
	"github.com/okian/eventmap/pkg/logger"
)

const (
	defaultMaxBodyBytes     = 32 << 20
	defaultLeaderboardLimit = 10
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ReplaceEventsWithKey(ctx context.Context, key string, events []model.Event) (types.Upload, error)
	Events(ctx context.Context) (types.EventSet, error)

	Clusters(ctx context.Context, zoom float64) (types.ClusterView, error)
	ClusterAdhoc(ctx context.Context, events []model.Event, p cluster.Params) (cluster.Result, error)

	Recommend(ctx context.Context, q types.RecommendQuery) (recommend.Result, error)

	EstimateImpact(ctx context.Context, ev model.Event) (impact.Metrics, error)
	Impact(ctx context.Context, eventID string) (impact.Metrics, error)
	ImpactRank(ctx context.Context, eventID string) (types.Entry, error)
	ImpactTop(ctx context.Context, n int) ([]types.Entry, error)
	ImpactSummary(ctx context.Context) (impact.Summary, error)

	Stats() types.Stats
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for request logs.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	maxBody int64
	logger  logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{deps: deps, maxBody: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Router builds a chi router carrying the middleware stack and every API
// route. Callers may mount further routes on it.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics)

	s.Register(r)
	return r
}

// Register attaches all API routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/events", func(r chi.Router) {
		r.Put("/", s.handlePutEvents)
		r.Get("/", s.handleGetEvents)
	})

	r.Get("/clusters", s.handleGetClusters)
	r.Post("/clusters", s.handlePostClusters)
	r.Get("/clusters.geojson", s.handleGetClustersGeoJSON)

	r.Post("/recommendations", s.handlePostRecommendations)

	r.Route("/impact", func(r chi.Router) {
		r.Post("/", s.handlePostImpact)
		r.Get("/leaderboard", s.handleGetLeaderboard)
		r.Get("/summary", s.handleGetSummary)
		r.Get("/{eventID}", s.handleGetImpact)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// classify maps an error chain to a status code and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge), errors.Is(err, types.ErrTooManyEvents):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, types.ErrInvalidZoom),
		errors.Is(err, types.ErrInvalidEvent),
		errors.Is(err, validate.ErrInvalidProfile),
		errors.Is(err, cluster.ErrInvalidParams),
		errors.Is(err, recommend.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, types.ErrEventNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, types.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decode reads a JSON body into v and validates its struct tags.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return WrapKind(op, ErrTooLarge, err)
		}
		return WrapKind(op, ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
