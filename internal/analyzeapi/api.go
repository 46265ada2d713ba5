// Package analyzeapi exposes the analysis service over HTTP.
package analyzeapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/bizpulse/internal/business"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
)

// AnalysisService defines the business operations analyzeapi needs.
type AnalysisService interface {
	Analyze(ctx context.Context, req *business.Request, opts business.AnalyzeOptions) (*business.Analysis, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     AnalysisService
	auth    func(http.Handler) http.Handler
	maxBody int64
}

// Option configures an API.
type Option func(*API)

// WithAuth protects the /api/v1 routes with the given middleware.
func WithAuth(mw func(http.Handler) http.Handler) Option {
	return func(a *API) { a.auth = mw }
}

// WithMaxBodyBytes rejects analyze bodies larger than n bytes with 413.
// Zero or negative disables the limit.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) { a.maxBody = n }
}

// New creates a new API handler.
func New(logger log.Logger, svc AnalysisService, opts ...Option) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("analysis service is required"))
	}
	a := &API{
		logger: logger,
		svc:    svc,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		if a.auth != nil {
			r.Use(a.auth)
		}
		r.Post("/analyze", a.handleAnalyze)
		r.Post("/analyze/output", a.handleAnalyzeOutput)
		r.Get("/rules", a.handleRules)
	})
}
