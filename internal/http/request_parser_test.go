package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finsight/internal/core"
)

func TestTransactionRequestToTransaction(t *testing.T) {
	tests := []struct {
		name    string
		req     transactionRequest
		wantErr error
	}{
		{name: "iso date", req: transactionRequest{Date: "2025-03-01", Type: "expense"}},
		{name: "european date", req: transactionRequest{Date: "01/03/2025", Type: "DEBIT"}},
		{name: "bad type", req: transactionRequest{Date: "2025-03-01", Type: "swap"}, wantErr: core.ErrInvalidType},
		{name: "bad date", req: transactionRequest{Date: "March", Type: "income"}, wantErr: core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.toTransaction()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	got, err := transactionRequest{ID: " t1 ", Date: "2025-03-01", Type: "in", Category: " food\x00 ", Description: "a\tb"}.toTransaction()
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "t1" || got.Type != core.Income || got.Category != "food" || got.Description != "a\tb" {
		t.Errorf("unexpected transaction %+v", got)
	}
}

func TestEvalTime(t *testing.T) {
	fixed := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	clock := func() time.Time { return fixed }

	tests := []struct {
		query   string
		want    time.Time
		wantErr bool
	}{
		{query: "", want: fixed},
		{query: "?now=2025-01-31T23:00:00Z", want: time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)},
		{query: "?now=2025-01-31T23:00:00%2B01:00", want: time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC)},
		{query: "?now=2025-01-31", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			got, err := evalTime(r, clock)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("evalTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  spaced  ":      "spaced",
		"null\x00byte":    "nullbyte",
		"keeps\nnewline":  "keeps\nnewline",
		"bell\x07removed": "bellremoved",
		"":                "",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
