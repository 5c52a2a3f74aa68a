package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
)

const batchResponse = `{
  "spreadsheetId": "sheet-1",
  "valueRanges": [
    {"range": "Transactions!A1:E3", "values": [["Date","Type","Amount","Category"],["2025-02-01","EXPENSE","10","food"],["2025-02-02","INCOME","100","salary"]]},
    {"range": "Accounts!A1:B2", "values": [["Name","Balance"],["Checking","50"]]},
    {"range": "Budget!A2", "values": [["500"]]}
  ]
}`

func TestClientLoadSnapshot(t *testing.T) {
	var gotPath, gotRanges string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRanges = strings.Join(r.URL.Query()["ranges"], "|")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(batchResponse))
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := New(ctx, Options{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap, err := c.LoadSnapshot(ctx, "me")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !strings.Contains(gotPath, "sheet-1") {
		t.Errorf("unexpected request path %s", gotPath)
	}
	if gotRanges != "Transactions!A:Z|Accounts!A:Z|Budget!A2" {
		t.Errorf("unexpected ranges %s", gotRanges)
	}
	if snap.UserID != "me" || len(snap.Transactions) != 2 || len(snap.Accounts) != 1 || snap.Budget.Value() != 500 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	users, _ := c.ListUsers(ctx)
	if len(users) != 1 || users[0] != "me" {
		t.Errorf("ListUsers() = %v", users)
	}
}

func TestClientLoadSnapshot_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Options{SpreadsheetID: "sheet-1"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.LoadSnapshot(context.Background(), "me"); err == nil {
		t.Fatal("expected an error from a failing API")
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Options{}, nil); err == nil {
		t.Error("expected error without spreadsheet id")
	}
	if _, err := New(ctx, Options{SpreadsheetID: "x"}, nil); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Errorf("expected credentials error, got %v", err)
	}
	if _, err := New(ctx, Options{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, nil); err == nil {
		t.Error("expected error for unreadable credentials file")
	}
}
