package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "caller id kept", header: "req-123", keep: true},
		{name: "missing", header: "", keep: false},
		{name: "spaces rejected", header: "bad id", keep: false},
		{name: "too long", header: strings.Repeat("a", 129), keep: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/id", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			got := resp.Header().Get("X-Request-Id")
			if got != resp.Body.String() {
				t.Fatalf("header %q does not match context id %q", got, resp.Body.String())
			}
			if tt.keep {
				if got != tt.header {
					t.Fatalf("expected caller id %q, got %q", tt.header, got)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated uuid, got %q: %v", got, err)
			}
		})
	}
}
