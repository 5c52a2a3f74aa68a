package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentInsights, Output: &buf})

	logger.Info("computed", FieldUserID, "u1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record[FieldComponent] != ComponentInsights || record[FieldUserID] != "u1" {
		t.Errorf("unexpected record %v", record)
	}

	buf.Reset()
	logger.WithComponent(ComponentCache).Debug("evicted")
	if !strings.Contains(buf.String(), `"component":"cache"`) {
		t.Errorf("expected cache component, got %s", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: ComponentApp, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Errorf("expected fallback logger, got %s", got.Component())
	}

	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	var seen *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if seen != logger {
		t.Error("middleware did not store the logger")
	}
}

func TestLogFieldsToSliceIsOrdered(t *testing.T) {
	fields := NewFields().WithUser("u1").WithOperation(OpCompute).WithError(errors.New("boom"))
	got := fields.ToSlice()
	want := []any{FieldError, "boom", FieldOperation, OpCompute, FieldUserID, "u1"}
	if len(got) != len(want) {
		t.Fatalf("ToSlice() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToSlice()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStructuredLoggerHTTPLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentHTTP, Output: &buf}))
	req := httptest.NewRequest(http.MethodGet, "/api/users/u1/insights", nil)

	sl.LogHTTPEnd(context.Background(), req, "req-1", http.StatusBadGateway, 12, "10.0.0.1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["level"] != "ERROR" || record[FieldRequestID] != "req-1" {
		t.Errorf("unexpected record %v", record)
	}
}
