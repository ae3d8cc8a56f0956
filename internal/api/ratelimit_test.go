package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestIPRateLimiterPerIP(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Fatal("Expected first request to pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("Expected second request from same IP to be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("Expected other IP to have its own budget")
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 10, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.Allow("1.1.1.1")
	rl.Allow("2.2.2.2")

	if n := rl.cleanup(time.Now().Add(-time.Minute)); n != 0 {
		t.Errorf("Expected fresh limiters to survive, removed %d", n)
	}
	if n := rl.cleanup(time.Now().Add(time.Minute)); n != 2 {
		t.Errorf("Expected 2 stale limiters removed, got %d", n)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"remote addr", "", "", "192.0.2.1"},
		{"forwarded chain", "X-Forwarded-For", "203.0.113.5, 10.0.0.1", "203.0.113.5"},
		{"forwarded single", "X-Forwarded-For", " 203.0.113.6 ", "203.0.113.6"},
		{"real ip", "X-Real-IP", "198.51.100.7", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil) // RemoteAddr 192.0.2.1:1234
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWebSocketRateLimiter(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)

	if !wrl.Allow("ip") || !wrl.Allow("ip") {
		t.Fatal("Expected two connections to be allowed")
	}
	if wrl.Allow("ip") {
		t.Error("Expected third connection to be rejected")
	}
	wrl.Release("ip")
	if got := wrl.GetConnectionCount("ip"); got != 1 {
		t.Errorf("Expected 1 connection after release, got %d", got)
	}
	if !wrl.Allow("ip") {
		t.Error("Expected slot to be reusable after release")
	}
	if got := wrl.GetStats()["rejected"]; got != 1 {
		t.Errorf("Expected 1 rejection, got %d", got)
	}
}

func TestOriginPolicy(t *testing.T) {
	p := NewOriginPolicy([]string{"http://localhost:*", "https://arena.example"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"https://arena.example", true},
		{"https://arena.example.evil", false},
		{"http://127.0.0.1:3000", false},
	}

	for _, tt := range tests {
		if got := p.Allow(tt.origin); got != tt.want {
			t.Errorf("Allow(%q): expected %v, got %v", tt.origin, tt.want, got)
		}
	}
}

func TestStatsRecorderDelta(t *testing.T) {
	var last uint64

	if d := delta(&last, 10); d != 10 {
		t.Errorf("Expected 10, got %d", d)
	}
	if d := delta(&last, 15); d != 5 {
		t.Errorf("Expected 5, got %d", d)
	}
	// counter reset
	if d := delta(&last, 3); d != 3 {
		t.Errorf("Expected 3 after reset, got %d", d)
	}
}

func TestTokenAuth(t *testing.T) {
	open := NewTokenAuth("")
	if open.Enabled() || !open.Check(httptest.NewRequest("POST", "/", nil)) {
		t.Error("Expected empty token to disable auth")
	}

	auth := NewTokenAuth("abc")
	req := httptest.NewRequest("POST", "/", nil)
	if auth.Check(req) {
		t.Error("Expected missing token to fail")
	}
	req.Header.Set("Authorization", "Bearer abc")
	if !auth.Check(req) {
		t.Error("Expected bearer token to pass")
	}
	if auth.checkToken("abd") || auth.checkToken("") {
		t.Error("Expected wrong or empty token to fail")
	}
}
