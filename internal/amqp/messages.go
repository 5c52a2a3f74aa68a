package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys on the direct exchange.
const (
	RoutingSnapshotChanged  = "snapshot.changed"
	RoutingInsightsComputed = "insights.computed"
	RoutingBudgetAlert      = "budget.alert"
)

// SnapshotChangedMessage tells the worker that a user's ledger changed and
// cached insights are stale. It carries no ledger data; the worker reloads it.
type SnapshotChangedMessage struct {
	UserID    string    `json:"userId"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// InsightsComputedMessage summarizes a finished insights computation.
type InsightsComputedMessage struct {
	UserID                  string    `json:"userId"`
	Score                   int       `json:"score"`
	Grade                   string    `json:"grade"`
	AnomalyCount            int       `json:"anomalyCount"`
	ActiveSubscriptions     int       `json:"activeSubscriptions"`
	MonthlySubscriptionCost float64   `json:"monthlySubscriptionCost"`
	PredictedExpense        float64   `json:"predictedExpense"`
	Rejected                int       `json:"rejected"`
	GeneratedAt             time.Time `json:"generatedAt"`
}

// BudgetAlertMessage is emitted when spending enters the warning or critical tier.
type BudgetAlertMessage struct {
	UserID         string    `json:"userId"`
	Status         string    `json:"status"`
	PercentageUsed float64   `json:"percentageUsed"`
	BudgetAmount   float64   `json:"budgetAmount"`
	Spent          float64   `json:"spent"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewSnapshotChangedMessage creates a change notification for userID.
func NewSnapshotChangedMessage(userID, reason string, at time.Time) *SnapshotChangedMessage {
	return &SnapshotChangedMessage{
		UserID:    userID,
		Reason:    reason,
		Timestamp: at,
	}
}

// Validate rejects messages the worker cannot act on.
func (m *SnapshotChangedMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("snapshot changed message without user id")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotChangedMessageFromJSON decodes and validates a snapshot change.
func SnapshotChangedMessageFromJSON(data []byte) (*SnapshotChangedMessage, error) {
	var msg SnapshotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
