package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDKeepsValidCallerID(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "till-1-0042")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "till-1-0042" || rec.Header().Get(requestIDHeader) != "till-1-0042" {
		t.Fatalf("expected caller id to be kept, context=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}
}

func TestRequestIDReplacesUnsafeIDs(t *testing.T) {
	for _, id := range []string{"", "has space", "line\nbreak", strings.Repeat("x", 129)} {
		handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, id)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		got := rec.Header().Get(requestIDHeader)
		if got == "" || got == id {
			t.Fatalf("id %q should have been replaced, got %q", id, got)
		}
	}
}
