package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/server/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(buf *bytes.Buffer) *gin.Engine {
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", buf)
	e := gin.New()
	e.Use(middleware.Recovery(log), middleware.RequestID(), middleware.RequestLogger(log))
	e.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(*gin.Context) { panic("boom") })
	e.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return e
}

func TestRecovery_Panic(t *testing.T) {
	var buf bytes.Buffer
	rr := httptest.NewRecorder()
	newEngine(&buf).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" || strings.Contains(body.Error.Message, "boom") {
		t.Errorf("unexpected body: %+v", body)
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Error("panic was not logged")
	}
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(&buf)

	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	if rr.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "custom-id-123")
	e.ServeHTTP(rr, req)
	if got := rr.Header().Get(middleware.RequestIDHeader); got != "custom-id-123" {
		t.Fatalf("expected custom-id-123, got %s", got)
	}
	if !strings.Contains(buf.String(), `"request_id":"custom-id-123"`) {
		t.Errorf("request id not logged: %s", buf.String())
	}
}

func TestRequestLogger_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(&buf)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Errorf("health checks should not be logged: %s", buf.String())
	}

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	if !strings.Contains(buf.String(), `"path":"/ok"`) || !strings.Contains(buf.String(), `"status":200`) {
		t.Errorf("request not logged: %s", buf.String())
	}
}
