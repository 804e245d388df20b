package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactor_Scrub(t *testing.T) {
	red := newRedactor(RedactOptions{})
	cases := []struct{ in, want string }{
		{"", ""},
		{"plain", "plain"},
		{"mail a.b+tag@example.com", "mail [REDACTED:email]"},
		{"id=123e4567-e89b-12d3-a456-426614174000", "id=[REDACTED:id]"},
		{"call 555-123-4567", "call [REDACTED:phone]"},
	}
	for _, tc := range cases {
		if got := red.scrub(tc.in); got != tc.want {
			t.Fatalf("scrub(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestLogger_RedactsQueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}, LogHeaders: true}))
	r.GET("/examples", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/examples?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set("X-Request-ID", "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) || !strings.Contains(logs, `"request_id":"rid-req"`) {
		t.Fatalf("expected info log with request id, got: %s", logs)
	}
	if strings.Contains(logs, "example.com") || strings.Contains(logs, "topsecret") || strings.Contains(logs, "shhh") {
		t.Fatalf("PII leaked into logs: %s", logs)
	}
	if !strings.Contains(logs, `[REDACTED:email]`) || !strings.Contains(logs, `[REDACTED:phone]`) || !strings.Contains(logs, `[REDACTED:id]`) {
		t.Fatalf("expected query redactions, got: %s", logs)
	}
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key"} {
		if !strings.Contains(logs, `"`+h+`":"[REDACTED]"`) {
			t.Fatalf("%s must be masked: %s", h, logs)
		}
	}
	if !strings.Contains(logs, `"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`) {
		t.Fatalf("expected redacted X-Custom header, got: %s", logs)
	}
}

func TestLogger_HeadersOmittedByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(Logger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/warn", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(httptest.NewRecorder(), req)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) {
		t.Fatalf("expected warn log: %s", logs)
	}
	if strings.Contains(logs, `"headers"`) || strings.Contains(logs, "secret") {
		t.Fatalf("headers must not be logged by default: %s", logs)
	}
}
