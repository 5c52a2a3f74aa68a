package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"finsight/internal/analytics"
	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
)

// Rejection is a ledger record the analyzers did not see, and why.
type Rejection struct {
	TransactionID string `json:"transactionId"`
	Reason        string `json:"reason"`
}

// Insights bundles every analyzer result for one user at one instant.
// Cached values are shared between callers and must be treated as read-only.
type Insights struct {
	UserID        string                       `json:"userId"`
	GeneratedAt   time.Time                    `json:"generatedAt"`
	Transactions  int                          `json:"transactions"`
	Rejected      int                          `json:"rejected"`
	Rejections    []Rejection                  `json:"rejections,omitempty"`
	Anomalies     analytics.AnomalyReport      `json:"anomalies"`
	Subscriptions analytics.SubscriptionReport `json:"subscriptions"`
	Prediction    *analytics.Prediction        `json:"prediction"`
	Health        *analytics.HealthReport      `json:"health"`
	Budget        *analytics.BudgetInsight     `json:"budget"`
	Report        analytics.MonthlyReport      `json:"report"`
}

// Notifier receives the outcome of each fresh computation.
type Notifier interface {
	InsightsComputed(ctx context.Context, in *Insights) error
	BudgetAlert(ctx context.Context, userID string, budget *analytics.BudgetInsight, at time.Time) error
}

// InsightsService loads a user's ledger, runs the analyzers and caches the
// result per ledger fingerprint and evaluation instant.
type InsightsService struct {
	reader   ledger.SnapshotReader
	cache    cache.Cache[*Insights]
	notifier Notifier
	logger   *log.StructuredLogger
}

func NewInsightsService(reader ledger.SnapshotReader, c cache.Cache[*Insights], notifier Notifier, logger *log.Logger) *InsightsService {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightsService{
		reader:   reader,
		cache:    c,
		notifier: notifier,
		logger:   log.NewStructuredLogger(logger.WithComponent(log.ComponentInsights)),
	}
}

// Compute returns the insights for userID evaluated at now. The only error
// is a failure to load the ledger (or a cancelled context).
func (s *InsightsService) Compute(ctx context.Context, userID string, now time.Time) (*Insights, error) {
	snap, err := s.reader.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", userID, err)
	}

	key, err := cacheKey(userID, now, snap)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.logger.Logger().DebugContext(ctx, "Insights served from cache",
				log.FieldUserID, userID, log.FieldCacheHit, true)
			return cached, nil
		}
	}

	valid, rejected := core.Sanitize(snap.Transactions)
	in := &Insights{
		UserID:       userID,
		GeneratedAt:  now,
		Transactions: len(valid),
		Rejected:     len(rejected),
	}
	for _, r := range rejected {
		s.logger.LogRejected(ctx, userID, r.Transaction.ID, r.Err)
		in.Rejections = append(in.Rejections, Rejection{TransactionID: r.Transaction.ID, Reason: r.Err.Error()})
	}

	if err := analyze(ctx, in, valid, snap, now); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, in)
	}

	fields := log.NewFields().
		WithUser(userID).
		WithOperation(log.OpCompute).
		WithInsights(in.Transactions, in.Rejected, len(in.Anomalies.Anomalies), in.Subscriptions.ActiveCount)
	if in.Health != nil {
		fields[log.FieldHealthScore] = in.Health.Score
	}
	if in.Budget != nil {
		fields[log.FieldBudgetStatus] = in.Budget.Status
	}
	s.logger.Logger().InfoContext(ctx, "Insights computed", fields.ToSlice()...)

	s.notify(ctx, in)
	return in, nil
}

// Invalidate drops every cached result for userID.
func (s *InsightsService) Invalidate(ctx context.Context, userID string) int {
	if s.cache == nil {
		return 0
	}
	n := s.cache.DeletePrefix(ctx, userPrefix(userID))
	s.logger.Logger().DebugContext(ctx, "Insights cache invalidated",
		log.FieldUserID, userID, log.FieldOperation, log.OpInvalidate, "removed", n)
	return n
}

// analyze runs the analyzers concurrently. Each goroutine writes its own field.
func analyze(ctx context.Context, in *Insights, txns []core.Transaction, snap core.Snapshot, now time.Time) error {
	g, gctx := errgroup.WithContext(ctx)
	run := func(fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	run(func() { in.Anomalies = analytics.DetectAnomalies(txns) })
	run(func() { in.Subscriptions = analytics.DetectSubscriptions(txns, now) })
	run(func() { in.Prediction = analytics.PredictNextPeriod(txns, now) })
	run(func() { in.Health = analytics.ScoreHealth(txns, snap.Accounts, snap.Budget, now) })
	run(func() { in.Budget = analytics.AnalyzeBudget(txns, snap.Budget, now) })
	run(func() { in.Report = analytics.BuildMonthlyReport(txns, now) })

	return g.Wait()
}

// notify publishes the computation; delivery problems never fail Compute.
func (s *InsightsService) notify(ctx context.Context, in *Insights) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.InsightsComputed(ctx, in); err != nil {
		s.logger.LogError(ctx, "Failed to publish insights", err, log.OpPublish, log.NewFields().WithUser(in.UserID))
	}
	if in.Budget.NeedsAlert() {
		if err := s.notifier.BudgetAlert(ctx, in.UserID, in.Budget, in.GeneratedAt); err != nil {
			s.logger.LogError(ctx, "Failed to publish budget alert", err, log.OpPublish, log.NewFields().WithUser(in.UserID))
		}
	}
}

func userPrefix(userID string) string {
	return userID + "|"
}

// cacheKey is user|instant|fingerprint. Results depend on the exact instant,
// so only repeated calls for the same instant and snapshot share an entry.
func cacheKey(userID string, now time.Time, snap core.Snapshot) (string, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("fingerprint snapshot: %w", err)
	}
	instant := now.UTC().Format(time.RFC3339Nano)
	return userPrefix(userID) + instant + "|" + strconv.FormatUint(xxhash.Sum64(b), 16), nil
}
