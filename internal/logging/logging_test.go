package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"text", FormatText},
		{"json", FormatJSON},
		{"", FormatJSON},
	}
	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("empty context request id = %q", got)
	}

	ctx = WithRequestID(ctx, "req-42")
	if got := GetRequestID(ctx); got != "req-42" {
		t.Errorf("request id = %q", got)
	}

	if LoggerFromContext(ctx) == GetLogger() {
		t.Error("logger with request id should differ from the default")
	}
	if LoggerFromContext(context.Background()) != GetLogger() {
		t.Error("logger without request id should be the default")
	}
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/parse", nil)
	rec := httptest.NewRecorder()
	Middleware(inner).ServeHTTP(rec, req)

	if seen == "" {
		t.Error("no request id in handler context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("response header id = %q, context id = %q", got, seen)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMiddlewareHonorsInboundRequestID(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-7")
	rec := httptest.NewRecorder()
	Middleware(inner).ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "upstream-7" {
		t.Errorf("request id = %q", got)
	}
}
