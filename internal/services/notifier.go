package services

import (
	"context"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/analytics"
)

// Publisher is the subset of the AMQP client the services publish through.
type Publisher interface {
	PublishSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error
	PublishInsightsComputed(ctx context.Context, msg *amqp.InsightsComputedMessage) error
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AMQPNotifier turns computed insights into broker messages.
type AMQPNotifier struct {
	publisher Publisher
}

var _ Notifier = (*AMQPNotifier)(nil)

func NewAMQPNotifier(publisher Publisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) InsightsComputed(ctx context.Context, in *Insights) error {
	msg := &amqp.InsightsComputedMessage{
		UserID:                  in.UserID,
		AnomalyCount:            len(in.Anomalies.Anomalies),
		ActiveSubscriptions:     in.Subscriptions.ActiveCount,
		MonthlySubscriptionCost: in.Subscriptions.MonthlyTotal,
		Rejected:                in.Rejected,
		GeneratedAt:             in.GeneratedAt,
	}
	if in.Health != nil {
		msg.Score = in.Health.Score
		msg.Grade = in.Health.Grade
	}
	if in.Prediction != nil {
		msg.PredictedExpense = in.Prediction.PredictedExpense
	}
	return n.publisher.PublishInsightsComputed(ctx, msg)
}

func (n *AMQPNotifier) BudgetAlert(ctx context.Context, userID string, b *analytics.BudgetInsight, at time.Time) error {
	return n.publisher.PublishBudgetAlert(ctx, &amqp.BudgetAlertMessage{
		UserID:         userID,
		Status:         string(b.Status),
		PercentageUsed: b.PercentUsed,
		BudgetAmount:   b.Budget,
		Spent:          b.Spent,
		Timestamp:      at,
	})
}
