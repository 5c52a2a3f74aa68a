// Package http exposes the insights engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/services"
)

const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
)

// InsightsProvider computes the full insights bundle for a user.
type InsightsProvider interface {
	Compute(ctx context.Context, userID string, now time.Time) (*services.Insights, error)
}

// LedgerWriter records ledger changes on behalf of API callers.
type LedgerWriter interface {
	RecordTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error)
	UpsertAccount(ctx context.Context, userID string, a core.Account) error
	SetBudget(ctx context.Context, userID string, b core.Budget) error
}

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP server. Ledger may be nil, in which
// case write routes answer 405.
type Deps struct {
	Insights   InsightsProvider
	Ledger     LedgerWriter
	Ready      []ReadyCheck
	Logger     *log.Logger
	Clock      func() time.Time
	RateLimit  int
	RateWindow time.Duration
}

type Server struct {
	http.Server
	insights    InsightsProvider
	ledger      LedgerWriter
	ready       []ReadyCheck
	clock       func() time.Time
	logger      *log.StructuredLogger
	rateLimiter *rateLimiter
	trace       *traceMiddleware
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	limit, window := deps.RateLimit, deps.RateWindow
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}

	s := &Server{
		insights:    deps.Insights,
		ledger:      deps.Ledger,
		ready:       deps.Ready,
		clock:       clock,
		logger:      log.NewStructuredLogger(logger.WithComponent(log.ComponentHTTP)),
		rateLimiter: newRateLimiter(limit, window),
		trace:       newTraceMiddleware(logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/users/{userID}/insights", s.handleInsights)
	mux.HandleFunc("GET /api/users/{userID}/anomalies", s.section("anomalies", func(in *services.Insights) any { return in.Anomalies }))
	mux.HandleFunc("GET /api/users/{userID}/subscriptions", s.section("subscriptions", func(in *services.Insights) any { return in.Subscriptions }))
	mux.HandleFunc("GET /api/users/{userID}/prediction", s.section("prediction", func(in *services.Insights) any { return in.Prediction }))
	mux.HandleFunc("GET /api/users/{userID}/health", s.section("health", func(in *services.Insights) any { return in.Health }))
	mux.HandleFunc("GET /api/users/{userID}/budget", s.section("budget", func(in *services.Insights) any { return in.Budget }))
	mux.HandleFunc("GET /api/users/{userID}/report", s.section("report", func(in *services.Insights) any { return in.Report }))

	mux.HandleFunc("POST /api/users/{userID}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/users/{userID}/budget", s.handleSetBudget)
	mux.HandleFunc("PUT /api/users/{userID}/accounts/{accountID}", s.handleUpsertAccount)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           log.Middleware(s.logger.Logger())(s.trace.wrap(securityHeaders(s.rateLimiter.middleware(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.rateLimiter.startCleanup(window)

	return s
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}
