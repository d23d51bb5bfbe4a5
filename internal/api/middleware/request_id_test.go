package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
)

func serveWithRequestID(header string) (ctxID, headerID string) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = middleware.GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	if header != "" {
		req.Header.Set("X-Request-Id", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get("X-Request-Id")
}

func TestRequestID_Generates(t *testing.T) {
	ctxID, headerID := serveWithRequestID("")
	assert.True(t, strings.HasPrefix(ctxID, "req_"))
	assert.Len(t, ctxID, len("req_")+32)
	assert.Equal(t, ctxID, headerID)
}

func TestRequestID_CallerSupplied(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"well formed", "lb-7f3a.91_x", true},
		{"spaces", "bad id", false},
		{"newline", "abc\r\nSet-Cookie: x", false},
		{"too long", strings.Repeat("a", 65), false},
		{"max length", strings.Repeat("a", 64), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxID, headerID := serveWithRequestID(tt.header)
			assert.Equal(t, ctxID, headerID)
			if tt.reused {
				assert.Equal(t, tt.header, ctxID)
			} else {
				assert.True(t, strings.HasPrefix(ctxID, "req_"))
			}
		})
	}
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, _ := serveWithRequestID("")
		assert.False(t, seen[id], "duplicate request ID %s", id)
		seen[id] = true
	}
}
