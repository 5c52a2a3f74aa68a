package backend

import (
	"context"

	"finsight/internal/core"
	"finsight/internal/ledger"
)

type readOnlySource interface {
	ledger.SnapshotReader
	ledger.UserLister
}

// readOnly lifts a read-only source to a full Backend.
type readOnly struct {
	readOnlySource
}

func (readOnly) AppendTransaction(context.Context, string, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, ledger.ErrReadOnly
}

func (readOnly) UpsertAccount(context.Context, string, core.Account) error {
	return ledger.ErrReadOnly
}

func (readOnly) SetBudget(context.Context, string, core.Budget) error {
	return ledger.ErrReadOnly
}
