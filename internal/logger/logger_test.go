package logger

import (
	"context"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"cliente@example.com", "cl***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "[redacted]"},
	}

	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateSessionID(t *testing.T) {
	short := "cs_123"
	if got := TruncateSessionID(short); got != short {
		t.Errorf("expected short id unchanged, got %q", got)
	}

	long := "cs_test_a1B2c3D4e5F6g7H8i9J0"
	got := TruncateSessionID(long)
	if got == long {
		t.Error("expected long id truncated")
	}
	if want := "cs_test_a1B2...i9J0"; got != want {
		t.Errorf("TruncateSessionID(%q) = %q, want %q", long, got, want)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc")
	if got := GetRequestID(ctx); got != "req_abc" {
		t.Errorf("expected req_abc, got %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty id without value, got %q", got)
	}
}
