// Package storage is the SQLite ledger backend. Amounts are kept as decimal
// text so no precision is lost between writes and analysis.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"

	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type SQLiteRepository struct {
	db     *sqlx.DB
	logger *log.Logger
}

var _ ledger.Store = (*SQLiteRepository)(nil)

type transactionRow struct {
	ID          string          `db:"id"`
	Date        string          `db:"date"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
}

type accountRow struct {
	ID      string          `db:"id"`
	Name    string          `db:"name"`
	Balance decimal.Decimal `db:"balance"`
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite ledger ready", log.FieldOperation, log.OpMigrate, "path", dbPath)

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadSnapshot implements ledger.SnapshotReader. Rows whose date cannot be
// read are kept with a zero date so validation reports them downstream.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	snap := core.Snapshot{UserID: userID}

	var txRows []transactionRow
	err := r.db.SelectContext(ctx, &txRows, `
		SELECT id, date, type, amount, category, description
		FROM transactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return snap, fmt.Errorf("select transactions: %w", err)
	}

	snap.Transactions = make([]core.Transaction, 0, len(txRows))
	for _, row := range txRows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			r.logger.WarnContext(ctx, "Stored transaction has unreadable date",
				log.FieldUserID, userID, log.FieldTransactionID, row.ID, log.FieldError, err)
		}
		snap.Transactions = append(snap.Transactions, core.Transaction{
			ID:          row.ID,
			Amount:      row.Amount,
			Type:        core.TransactionType(row.Type),
			Category:    row.Category,
			Description: row.Description,
			Date:        date,
		})
	}

	var accRows []accountRow
	err = r.db.SelectContext(ctx, &accRows, `
		SELECT id, name, balance FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return snap, fmt.Errorf("select accounts: %w", err)
	}
	snap.Accounts = make([]core.Account, 0, len(accRows))
	for _, row := range accRows {
		snap.Accounts = append(snap.Accounts, core.Account{ID: row.ID, Name: row.Name, Balance: row.Balance})
	}

	var amounts []decimal.Decimal
	err = r.db.SelectContext(ctx, &amounts, `SELECT amount FROM budgets WHERE user_id = ?`, userID)
	if err != nil {
		return snap, fmt.Errorf("select budget: %w", err)
	}
	if len(amounts) > 0 {
		snap.Budget = &core.Budget{Amount: amounts[0]}
	}

	return snap, nil
}

// AppendTransaction implements ledger.TransactionWriter.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, id, date, type, amount, category, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO NOTHING`,
		userID, t.ID, t.Date.Format(time.RFC3339Nano), string(t.Type), t.Amount.String(), t.Category, t.Description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrDuplicate, t.ID)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		log.FieldOperation, log.OpAppend,
		log.FieldUserID, userID,
		log.FieldTransactionID, t.ID,
		"type", t.Type,
		"amount", t.Amount.String())

	return t, nil
}

// UpsertAccount implements ledger.AccountWriter.
func (r *SQLiteRepository) UpsertAccount(ctx context.Context, userID string, a core.Account) error {
	if a.ID == "" {
		return fmt.Errorf("%w: account without id", core.ErrInvalidRecord)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, id, name, balance) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			balance = excluded.balance,
			updated_at = CURRENT_TIMESTAMP`,
		userID, a.ID, a.Name, a.Balance.String())
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// SetBudget implements ledger.BudgetWriter.
func (r *SQLiteRepository) SetBudget(ctx context.Context, userID string, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, amount) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			amount = excluded.amount,
			updated_at = CURRENT_TIMESTAMP`,
		userID, b.Amount.String())
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// ListUsers implements ledger.UserLister.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := r.db.SelectContext(ctx, &users, `
		SELECT user_id FROM transactions
		UNION SELECT user_id FROM accounts
		UNION SELECT user_id FROM budgets
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
