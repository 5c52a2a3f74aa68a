package services

import (
	"context"
	"fmt"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"
)

// SnapshotPublisher announces ledger changes to other processes.
type SnapshotPublisher interface {
	PublishSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error
}

// LedgerService records ledger changes, then invalidates cached insights
// locally and tells workers the snapshot changed.
type LedgerService struct {
	store     ledger.Store
	insights  *InsightsService
	publisher SnapshotPublisher
	clock     func() time.Time
	logger    *log.StructuredLogger
}

func NewLedgerService(store ledger.Store, insights *InsightsService, publisher SnapshotPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		store:     store,
		insights:  insights,
		publisher: publisher,
		clock:     time.Now,
		logger:    log.NewStructuredLogger(logger.WithComponent(log.ComponentInsights)),
	}
}

// RecordTransaction saves t and returns it with its assigned ID.
func (s *LedgerService) RecordTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	stored, err := s.store.AppendTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed(ctx, userID, "transaction_added")
	return stored, nil
}

func (s *LedgerService) UpsertAccount(ctx context.Context, userID string, a core.Account) error {
	if err := s.store.UpsertAccount(ctx, userID, a); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	s.changed(ctx, userID, "account_updated")
	return nil
}

func (s *LedgerService) SetBudget(ctx context.Context, userID string, b core.Budget) error {
	if err := s.store.SetBudget(ctx, userID, b); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	s.changed(ctx, userID, "budget_updated")
	return nil
}

// changed runs after a successful write. Publishing is best effort: the
// change is already stored and the fingerprinted cache key covers a lost message.
func (s *LedgerService) changed(ctx context.Context, userID, reason string) {
	if s.insights != nil {
		s.insights.Invalidate(ctx, userID)
	}
	if s.publisher == nil {
		return
	}
	msg := amqp.NewSnapshotChangedMessage(userID, reason, s.clock())
	if err := s.publisher.PublishSnapshotChanged(ctx, msg); err != nil {
		s.logger.LogError(ctx, "Failed to publish snapshot change", err, log.OpPublish,
			log.NewFields().WithUser(userID))
	}
}
