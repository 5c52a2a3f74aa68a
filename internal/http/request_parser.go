package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

const maxBodyBytes = 1 << 20

// transactionRequest is the body of POST /transactions. Amount accepts a
// JSON number or string; Date accepts any ledger date form.
type transactionRequest struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type accountRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type budgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          strings.TrimSpace(req.ID),
		Amount:      req.Amount,
		Type:        typ,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}, nil
}

// evalTime returns the instant to evaluate insights at: ?now= (RFC 3339)
// when present, otherwise the server clock.
func evalTime(r *http.Request, clock func() time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("now"))
	if v == "" {
		return clock(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid now parameter %q: want RFC 3339", v)
	}
	return t, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
