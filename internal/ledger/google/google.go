// Package google reads a single user's ledger from a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options locates the spreadsheet and its tabs.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string

	TransactionsSheet string // default "Transactions"
	AccountsSheet     string // default "Accounts"
	BudgetRange       string // default "Budget!A2"; empty cell means no budget
	UserID            string // default "me"
}

// Client is a read-only ledger. The spreadsheet belongs to one user; the
// userID passed to LoadSnapshot is not used to select data.
type Client struct {
	svc    *gsheet.Service
	opts   Options
	logger *log.Logger
}

var (
	_ ledger.SnapshotReader = (*Client)(nil)
	_ ledger.UserLister     = (*Client)(nil)
)

// New creates a client using service account credentials. Extra options are
// appended to the credentials and scope, so callers may override the endpoint.
func New(ctx context.Context, opts Options, logger *log.Logger, extra ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var clientOpts []goption.ClientOption
	if len(extra) == 0 {
		creds, err := credentials(opts)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	}
	clientOpts = append(clientOpts, extra...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, opts Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.TransactionsSheet == "" {
		opts.TransactionsSheet = "Transactions"
	}
	if opts.AccountsSheet == "" {
		opts.AccountsSheet = "Accounts"
	}
	if opts.BudgetRange == "" {
		opts.BudgetRange = "Budget!A2"
	}
	if opts.UserID == "" {
		opts.UserID = "me"
	}
	return &Client{svc: svc, opts: opts, logger: logger.WithComponent(log.ComponentSheets)}
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// LoadSnapshot reads all three ranges in a single batch request.
func (c *Client) LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	ranges := []string{
		c.opts.TransactionsSheet + "!A:Z",
		c.opts.AccountsSheet + "!A:Z",
		c.opts.BudgetRange,
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.opts.SpreadsheetID).
		Ranges(ranges...).
		Context(ctx).
		Do()
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read ledger: %w", err)
	}

	values := make([][][]interface{}, len(ranges))
	for i, vr := range resp.ValueRanges {
		if i < len(values) {
			values[i] = vr.Values
		}
	}

	snap, skipped := parseSnapshot(values[0], values[1], values[2])
	snap.UserID = userID
	for _, s := range skipped {
		c.logger.WarnContext(ctx, "Skipping unreadable row", log.FieldUserID, userID, "row", s.row, "sheet", s.sheet, log.FieldError, s.err)
	}
	return snap, nil
}

// ListUsers returns the configured owner of the spreadsheet.
func (c *Client) ListUsers(_ context.Context) ([]string, error) {
	return []string{c.opts.UserID}, nil
}
