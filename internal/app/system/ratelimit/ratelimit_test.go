package ratelimit

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	l := New(2, time.Minute)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("expected the first two events to be allowed")
	}
	if l.Allow("a") {
		t.Error("expected the third event to be rejected")
	}
	if !l.Allow("b") {
		t.Error("keys must not share a bucket")
	}
}

func TestLimiter_Refills(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("expected bucket to be empty")
	}

	now = now.Add(30 * time.Second)
	if !l.Allow("a") {
		t.Error("expected one token back after half the period")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("expected bucket to be empty")
	}
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("expected Reset to refill the bucket")
	}
}

func TestLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(3 * time.Minute)
	l.Allow("new")

	if _, ok := l.buckets["old"]; ok {
		t.Error("expected idle bucket to be dropped")
	}
	if _, ok := l.buckets["new"]; !ok {
		t.Error("expected active bucket to be kept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"remote addr without port", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "10.0.0.1:5555", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "10.0.0.1:5555", "5.6.7.8"},
		{"forwarded for wins", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "5.6.7.8"}, "10.0.0.1:5555", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	for i, ip := range []string{"1.1.1.1:1", "2.2.2.2:1"} {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = ip
		if err := ll.Check(r, " Jo@X.com"); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i+1, err)
		}
	}

	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "3.3.3.3:1"
	if err := ll.Check(r, "jo@x.com"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts across IPs, got %v", err)
	}

	ll.ResetEmail("JO@x.com")
	if err := ll.Check(r, "jo@x.com"); err != nil {
		t.Errorf("expected ResetEmail to restore the budget, got %v", err)
	}
}

func TestLoginLimiter_PerIP(t *testing.T) {
	ll := NewLoginLimiterWithConfig(1, time.Minute, 100, time.Minute)
	r := httptest.NewRequest("POST", "/", nil)

	if err := ll.Check(r, "a@x.com"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := ll.Check(r, "b@x.com"); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("expected IP limit to apply across emails, got %v", err)
	}
}
