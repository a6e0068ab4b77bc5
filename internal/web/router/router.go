// Package router exposes the entities of a model as read-only JSON
// endpoints backed by a paginated dictionary:
//
//	GET /entities                  entity summaries
//	GET /entities/{name}           a page (row, count query parameters)
//	GET /entities/{name}/count     the total number of entities
//	GET /entities/{name}/{key}     one entity by key, 404 when absent
//
// A key literally named "count" is shadowed by the count endpoint.
package router

import (
	"net/http"

	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/dictionary"
	"github.com/conduit-lang/descriptor/internal/web/middleware"
	"github.com/conduit-lang/descriptor/internal/web/response"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the page size when the count parameter is absent
	DefaultPageSize = 20

	// MaxPageSize caps the count parameter
	MaxPageSize = 1000
)

// Option configures the router
type Option func(*config)

type config struct {
	logger    *zap.Logger
	prefix    string
	rateLimit *middleware.RateLimitConfig
}

// WithLogger sets the logger of the request middleware and handlers
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrefix mounts the endpoints under prefix, e.g. "/api"
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithRateLimit limits every client to rps requests per second with the
// given burst. A non-positive rate disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) {
		if rps <= 0 {
			c.rateLimit = nil
			return
		}
		c.rateLimit = &middleware.RateLimitConfig{RequestsPerSecond: rps, Burst: burst}
	}
}

// New creates the HTTP handler serving m through dict
func New(m *model.Model, dict dictionary.PaginatedDictionary, opts ...Option) http.Handler {
	cfg := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	h := &handlers{model: m, dict: dict, logger: cfg.logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(cfg.logger))
	r.Use(middleware.Recovery(cfg.logger))
	if cfg.rateLimit != nil {
		r.Use(middleware.RateLimit(*cfg.rateLimit))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RenderError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	})

	r.Route(cfg.prefix+"/entities", func(r chi.Router) {
		r.Get("/", h.listEntities)
		r.Get("/{name}", h.page)
		r.Get("/{name}/count", h.count)
		r.Get("/{name}/{key}", h.get)
	})

	return r
}
