// Package memory is an in-process ledger backend, optionally seeded from CSV files.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"finsight/internal/core"
	"finsight/internal/ledger"

	"github.com/google/uuid"
)

// Seed file names looked up by NewFromFiles.
const (
	TransactionsFile = "transactions.csv"
	AccountsFile     = "accounts.csv"
	BudgetsFile      = "budgets.csv"
)

type userLedger struct {
	transactions []core.Transaction
	accounts     []core.Account
	budget       *core.Budget
}

type Store struct {
	mu    sync.RWMutex
	users map[string]*userLedger
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{users: make(map[string]*userLedger)}
}

// NewFromFiles loads the CSV seeds found in dir. Missing files are skipped;
// a malformed row fails the load with its file and line.
func NewFromFiles(dir string) (*Store, error) {
	s := New()
	loaders := []struct {
		file string
		load func(h ledger.Header, row []string) error
	}{
		{TransactionsFile, s.loadTransaction},
		{AccountsFile, s.loadAccount},
		{BudgetsFile, s.loadBudget},
	}
	for _, l := range loaders {
		if err := readCSV(filepath.Join(dir, l.file), l.load); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Seed adds transactions for userID without validation. Invalid records are
// kept so the insights service can report them.
func (s *Store) Seed(userID string, txns ...core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	u.transactions = append(u.transactions, txns...)
}

func (s *Store) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return core.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := core.Snapshot{UserID: userID}
	u, ok := s.users[userID]
	if !ok {
		return snap, nil
	}
	snap.Transactions = append([]core.Transaction(nil), u.transactions...)
	snap.Accounts = append([]core.Account(nil), u.accounts...)
	if u.budget != nil {
		b := *u.budget
		snap.Budget = &b
	}
	return snap, nil
}

func (s *Store) AppendTransaction(_ context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, existing := range u.transactions {
		if existing.ID == t.ID {
			return core.Transaction{}, fmt.Errorf("%w: %s", ledger.ErrDuplicate, t.ID)
		}
	}
	u.transactions = append(u.transactions, t)
	return t, nil
}

func (s *Store) UpsertAccount(_ context.Context, userID string, a core.Account) error {
	if a.ID == "" {
		return fmt.Errorf("%w: account without id", core.ErrInvalidRecord)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertAccount(userID, a)
	return nil
}

func (s *Store) SetBudget(_ context.Context, userID string, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).budget = &b
	return nil
}

// ListUsers returns every known user, sorted.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.users))
	for id := range s.users {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}

// user returns the ledger of userID, creating it. Callers hold the write lock.
func (s *Store) user(userID string) *userLedger {
	u, ok := s.users[userID]
	if !ok {
		u = &userLedger{}
		s.users[userID] = u
	}
	return u
}

func (s *Store) upsertAccount(userID string, a core.Account) {
	u := s.user(userID)
	for i := range u.accounts {
		if u.accounts[i].ID == a.ID {
			u.accounts[i] = a
			return
		}
	}
	u.accounts = append(u.accounts, a)
}

func (s *Store) loadTransaction(h ledger.Header, row []string) error {
	t, err := ledger.ParseTransactionRow(h, row)
	if err != nil {
		return err
	}
	s.Seed(h.Get(row, ledger.ColUser), t)
	return nil
}

func (s *Store) loadAccount(h ledger.Header, row []string) error {
	a, err := ledger.ParseAccountRow(h, row)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertAccount(h.Get(row, ledger.ColUser), a)
	return nil
}

func (s *Store) loadBudget(h ledger.Header, row []string) error {
	amount, err := core.ParseAmount(h.Get(row, ledger.ColAmount))
	if err != nil {
		return err
	}
	return s.SetBudget(context.Background(), h.Get(row, ledger.ColUser), core.Budget{Amount: amount})
}

// readCSV calls fn for every data row of path. The first non-comment row is
// the header; lines starting with # are ignored.
func readCSV(path string, fn func(h ledger.Header, row []string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var header ledger.Header
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if header == nil {
			header = ledger.NewHeader(row)
			continue
		}
		if isBlank(row) {
			continue
		}
		if err := fn(header, row); err != nil {
			line, _ := r.FieldPos(0)
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
