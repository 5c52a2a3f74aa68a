// Package ledger defines the collaborator ports that supply ledger snapshots
// to the insights service, plus the row parsing shared by tabular backends.
package ledger

import (
	"context"
	"errors"

	"finsight/internal/core"
)

var (
	// ErrReadOnly is returned by backends that cannot record changes.
	ErrReadOnly = errors.New("ledger backend is read-only")
	// ErrDuplicate is returned when a transaction ID is already recorded for the user.
	ErrDuplicate = errors.New("transaction already exists")
)

// Ports for outbound adapters.
type (
	SnapshotReader interface {
		// LoadSnapshot returns everything known about userID. An unknown user
		// yields an empty snapshot, not an error.
		LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error)
	}

	TransactionWriter interface {
		// AppendTransaction stores t and returns it as stored (with its ID
		// assigned when t had none).
		AppendTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error)
	}

	AccountWriter interface {
		UpsertAccount(ctx context.Context, userID string, a core.Account) error
	}

	BudgetWriter interface {
		SetBudget(ctx context.Context, userID string, b core.Budget) error
	}

	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}

	// Store is a full read-write ledger backend.
	Store interface {
		SnapshotReader
		TransactionWriter
		AccountWriter
		BudgetWriter
		UserLister
	}
)
