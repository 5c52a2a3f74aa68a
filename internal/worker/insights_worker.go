package worker

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/ledger"
	"finsight/internal/log"
	"finsight/internal/services"
)

// Computer is the part of the insights service the worker drives.
type Computer interface {
	Compute(ctx context.Context, userID string, now time.Time) (*services.Insights, error)
	Invalidate(ctx context.Context, userID string) int
}

// InsightsWorker keeps cached insights fresh: it recomputes a user when the
// ledger announces a change and sweeps every user on a schedule.
type InsightsWorker struct {
	insights Computer
	users    ledger.UserLister
	clock    func() time.Time
	logger   *log.Logger
}

// RefreshSummary counts the outcome of one RefreshAll sweep.
type RefreshSummary struct {
	Users     int
	Refreshed int
	Errors    int
	Reminders int
}

func NewInsightsWorker(insights Computer, users ledger.UserLister, logger *log.Logger) *InsightsWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightsWorker{
		insights: insights,
		users:    users,
		clock:    time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSnapshotChanged processes a single snapshot-changed message from AMQP.
// Returning an error asks the consumer to redeliver it.
func (w *InsightsWorker) HandleSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing snapshot change",
		log.FieldUserID, msg.UserID,
		log.FieldReason, msg.Reason,
		"timestamp", msg.Timestamp)

	w.insights.Invalidate(ctx, msg.UserID)

	in, err := w.insights.Compute(ctx, msg.UserID, w.clock())
	if err != nil {
		return fmt.Errorf("recompute insights for %s: %w", msg.UserID, err)
	}
	w.remind(ctx, in)
	return nil
}

// RefreshAll recomputes every known user. One user's failure does not stop
// the sweep; only a failure to list users is returned.
func (w *InsightsWorker) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	var summary RefreshSummary

	users, err := w.users.ListUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list users: %w", err)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		w.logger.DebugContext(ctx, "No users to refresh")
		return summary, nil
	}

	now := w.clock()
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		in, err := w.insights.Compute(ctx, userID, now)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to refresh insights",
				log.FieldUserID, userID, log.FieldOperation, log.OpRefresh, log.FieldError, err)
			summary.Errors++
			continue
		}
		summary.Refreshed++
		summary.Reminders += w.remind(ctx, in)
	}

	w.logger.InfoContext(ctx, "Insights refresh completed",
		log.FieldOperation, log.OpRefresh,
		"total", summary.Users,
		"refreshed", summary.Refreshed,
		"errors", summary.Errors,
		"reminders", summary.Reminders)

	return summary, nil
}

// remind logs a reminder for each active subscription due within the week.
func (w *InsightsWorker) remind(ctx context.Context, in *services.Insights) int {
	n := 0
	for _, sub := range in.Subscriptions.Subscriptions {
		if !sub.IsActive || !sub.Upcoming {
			continue
		}
		w.logger.InfoContext(ctx, "Upcoming subscription payment",
			log.FieldUserID, in.UserID,
			"merchant", sub.Merchant,
			"amount", sub.AverageAmount,
			"due", sub.NextPaymentDate.Format(time.DateOnly),
			"days_until", sub.DaysUntilNextPayment)
		n++
	}
	return n
}
