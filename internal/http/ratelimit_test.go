package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.allow("10.1.1.1") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.allow("10.1.1.1") {
		t.Error("fourth request in the window should be rejected")
	}
	if !rl.allow("10.1.1.2") {
		t.Error("other clients have their own window")
	}
	if got := rl.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}

	now = now.Add(time.Minute)
	if !rl.allow("10.1.1.1") {
		t.Error("a new window should reset the count")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(10, time.Minute)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(90 * time.Second)
	rl.allow("b")
	now = now.Add(60 * time.Second)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Error("recent client should survive cleanup")
	}
	rl.stop()
	rl.stop()
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "direct peer", remoteAddr: "203.0.113.7:4000", want: "203.0.113.7"},
		{
			name:       "untrusted peer cannot spoof",
			remoteAddr: "203.0.113.7:4000",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy forwards first hop",
			remoteAddr: "10.0.0.5:4000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.5"},
			want:       "198.51.100.9",
		},
		{
			name:       "trusted proxy with real ip",
			remoteAddr: "127.0.0.1:4000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.10"},
			want:       "198.51.100.10",
		},
		{
			name:       "trusted proxy with garbage header",
			remoteAddr: "192.168.1.1:4000",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "192.168.1.1",
		},
		{name: "no port", remoteAddr: "203.0.113.8", want: "203.0.113.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
