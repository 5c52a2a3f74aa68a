package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/amqp"
	"finsight/internal/analytics"
	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/ledger/memory"
)

var evalTime = time.Date(2025, 6, 20, 12, 0, 30, 0, time.UTC)

type fakeNotifier struct {
	mu       sync.Mutex
	computed []*Insights
	alerts   []analytics.BudgetStatus
	err      error
}

func (f *fakeNotifier) InsightsComputed(_ context.Context, in *Insights) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.computed = append(f.computed, in)
	return f.err
}

func (f *fakeNotifier) BudgetAlert(_ context.Context, _ string, b *analytics.BudgetInsight, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, b.Status)
	return f.err
}

type failingReader struct{}

func (failingReader) LoadSnapshot(context.Context, string) (core.Snapshot, error) {
	return core.Snapshot{}, errors.New("sheet unavailable")
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	store.Seed("u1",
		core.Transaction{ID: "salary", Amount: decimal.NewFromInt(3000), Type: core.Income, Category: "salary", Date: core.NewDate(2025, 6, 1)},
		core.Transaction{ID: "rent", Amount: decimal.NewFromInt(950), Type: core.Expense, Category: "housing", Date: core.NewDate(2025, 6, 5)},
		core.Transaction{ID: "bad", Amount: decimal.NewFromInt(-10), Type: core.Expense, Category: "food", Date: core.NewDate(2025, 6, 6)},
	)
	if err := store.SetBudget(context.Background(), "u1", core.Budget{Amount: decimal.NewFromInt(1000)}); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	return store
}

func newTestService(t *testing.T, store *memory.Store) (*InsightsService, *fakeNotifier, *cache.LRUCache[*Insights]) {
	t.Helper()
	c := cache.NewLRUCache[*Insights](16, time.Hour)
	n := &fakeNotifier{}
	return NewInsightsService(store, c, n, nil), n, c
}

func TestCompute(t *testing.T) {
	svc, notifier, _ := newTestService(t, seededStore(t))

	in, err := svc.Compute(context.Background(), "u1", evalTime)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if in.Transactions != 2 || in.Rejected != 1 {
		t.Errorf("transactions/rejected = %d/%d, want 2/1", in.Transactions, in.Rejected)
	}
	if len(in.Rejections) != 1 || in.Rejections[0].TransactionID != "bad" {
		t.Errorf("unexpected rejections %+v", in.Rejections)
	}
	if in.Budget == nil || in.Budget.Status != analytics.BudgetCritical {
		t.Fatalf("budget = %+v, want critical", in.Budget)
	}
	if in.Health == nil {
		t.Error("expected a health report")
	}
	if in.Anomalies.Anomalies == nil {
		t.Error("anomaly list must be non-nil")
	}
	if !in.GeneratedAt.Equal(evalTime) {
		t.Errorf("GeneratedAt = %v, want %v", in.GeneratedAt, evalTime)
	}

	if len(notifier.computed) != 1 {
		t.Errorf("insights notifications = %d, want 1", len(notifier.computed))
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0] != analytics.BudgetCritical {
		t.Errorf("budget alerts = %v, want [critical]", notifier.alerts)
	}
}

func TestComputeCaching(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc, notifier, c := newTestService(t, store)

	first, err := svc.Compute(ctx, "u1", evalTime)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	t.Run("same instant and snapshot hits the cache", func(t *testing.T) {
		again, err := svc.Compute(ctx, "u1", evalTime)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if again != first {
			t.Error("expected the cached result")
		}
		if len(notifier.computed) != 1 {
			t.Errorf("cache hit must not notify, got %d notifications", len(notifier.computed))
		}
	})

	t.Run("later instant in the same minute recomputes", func(t *testing.T) {
		later := evalTime.Add(20 * time.Second)
		next, _ := svc.Compute(ctx, "u1", later)
		if next == first || !next.GeneratedAt.Equal(later) {
			t.Errorf("expected a fresh result generated at %v, got %v", later, next.GeneratedAt)
		}
	})

	t.Run("ledger change recomputes", func(t *testing.T) {
		_, err := store.AppendTransaction(ctx, "u1", core.Transaction{
			Amount: decimal.NewFromInt(20), Type: core.Expense, Category: "food", Date: core.NewDate(2025, 6, 18),
		})
		if err != nil {
			t.Fatalf("AppendTransaction: %v", err)
		}
		changed, _ := svc.Compute(ctx, "u1", evalTime)
		if changed == first || changed.Transactions != 3 {
			t.Errorf("expected recomputation with 3 transactions, got %d", changed.Transactions)
		}
	})

	t.Run("invalidate drops the user's entries", func(t *testing.T) {
		if n := svc.Invalidate(ctx, "u1"); n == 0 {
			t.Error("expected entries to be removed")
		}
		if c.Size() != 0 {
			t.Errorf("cache size = %d, want 0", c.Size())
		}
	})
}

func TestComputeEmptyLedger(t *testing.T) {
	svc, notifier, _ := newTestService(t, memory.New())

	in, err := svc.Compute(context.Background(), "nobody", evalTime)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if in.Health != nil || in.Prediction != nil || in.Budget != nil {
		t.Errorf("expected neutral results, got %+v", in)
	}
	if !in.Anomalies.AllClear() || len(in.Subscriptions.Subscriptions) != 0 {
		t.Error("expected no anomalies or subscriptions")
	}
	if len(notifier.alerts) != 0 {
		t.Error("no budget alert expected")
	}
}

func TestComputeErrors(t *testing.T) {
	t.Run("reader failure", func(t *testing.T) {
		svc := NewInsightsService(failingReader{}, nil, nil, nil)
		if _, err := svc.Compute(context.Background(), "u1", evalTime); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _, _ := newTestService(t, seededStore(t))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := svc.Compute(ctx, "u1", evalTime); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("notifier failure does not fail compute", func(t *testing.T) {
		svc, notifier, _ := newTestService(t, seededStore(t))
		notifier.err = errors.New("broker down")
		if _, err := svc.Compute(context.Background(), "u1", evalTime); err != nil {
			t.Errorf("Compute: %v", err)
		}
	})
}

func TestComputeWithoutCache(t *testing.T) {
	svc := NewInsightsService(seededStore(t), nil, nil, nil)
	a, err := svc.Compute(context.Background(), "u1", evalTime)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b, _ := svc.Compute(context.Background(), "u1", evalTime)
	if a == b {
		t.Error("without a cache every call computes")
	}
	if svc.Invalidate(context.Background(), "u1") != 0 {
		t.Error("Invalidate without cache removes nothing")
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	changed  []*amqp.SnapshotChangedMessage
	computed []*amqp.InsightsComputedMessage
	alerts   []*amqp.BudgetAlertMessage
	err      error
}

func (f *fakePublisher) PublishSnapshotChanged(_ context.Context, msg *amqp.SnapshotChangedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, msg)
	return f.err
}

func (f *fakePublisher) PublishInsightsComputed(_ context.Context, msg *amqp.InsightsComputedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.computed = append(f.computed, msg)
	return f.err
}

func (f *fakePublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, msg)
	return f.err
}

func TestAMQPNotifier(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewInsightsService(seededStore(t), nil, NewAMQPNotifier(pub), nil)

	in, err := svc.Compute(context.Background(), "u1", evalTime)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(pub.computed) != 1 {
		t.Fatalf("computed messages = %d, want 1", len(pub.computed))
	}
	msg := pub.computed[0]
	if msg.UserID != "u1" || msg.Score != in.Health.Score || msg.Grade != in.Health.Grade || msg.Rejected != 1 {
		t.Errorf("unexpected insights message %+v", msg)
	}

	if len(pub.alerts) != 1 {
		t.Fatalf("alert messages = %d, want 1", len(pub.alerts))
	}
	alert := pub.alerts[0]
	if alert.Status != "critical" || alert.BudgetAmount != 1000 || alert.Spent != 950 || alert.PercentageUsed < 94.99 || alert.PercentageUsed > 95.01 {
		t.Errorf("unexpected alert %+v", alert)
	}
}

func TestComputeSubscriptionActivityAtExactInstant(t *testing.T) {
	ctx := context.Background()
	last := time.Date(2025, 4, 30, 12, 0, 30, 0, time.UTC)
	store := memory.New()
	for i, d := range []time.Time{last.AddDate(0, 0, -60), last.AddDate(0, 0, -30), last} {
		store.Seed("u1", core.Transaction{
			ID:          fmt.Sprintf("sub-%d", i),
			Amount:      decimal.NewFromInt(12),
			Type:        core.Expense,
			Category:    "entertainment",
			Description: "Netflix",
			Date:        d,
		})
	}
	svc, _, _ := newTestService(t, store)

	// A 30 day cadence goes inactive 45 days after the last payment.
	boundary := last.AddDate(0, 0, 45)
	tests := []struct {
		name       string
		now        time.Time
		wantActive bool
	}{
		{"before the limit", boundary.Add(-10 * time.Second), true},
		{"after the limit, same minute", boundary.Add(10 * time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := svc.Compute(ctx, "u1", tt.now)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if !in.GeneratedAt.Equal(tt.now) {
				t.Errorf("GeneratedAt = %v, want %v", in.GeneratedAt, tt.now)
			}
			subs := in.Subscriptions.Subscriptions
			if len(subs) != 1 {
				t.Fatalf("expected 1 subscription, got %+v", subs)
			}
			if subs[0].IsActive != tt.wantActive {
				t.Errorf("IsActive = %v, want %v", subs[0].IsActive, tt.wantActive)
			}
		})
	}
}
