package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/repo"
)

// newLoggedEngine simulates RequestID + request-scoped logger.
func newLoggedEngine(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := zerolog.New(buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-1")
		c.Set("logger", &logger)
		c.Next()
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	return resp
}

func Test_fail_500_LogsAndBody(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedEngine(&buf)
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom", errors.New("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decode(t, w)
	if resp.RequestID != "rid-1" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "disk on fire") {
		t.Fatalf("expected error log with cause, got: %s", buf.String())
	}
}

func Test_Fail_4xx_NotLogged(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedEngine(&buf)
	r.GET("/x", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusNotFound || decode(t, w).Code != ErrCodeNotFound {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not be logged: %s", buf.String())
	}
}

func Test_respondError_Mapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", fmt.Errorf("resolve: %w", repo.ErrNotFound), http.StatusNotFound, ErrCodeNotFound, "no such file"},
		{"missing field", &domain.MissingFieldError{Field: "type"}, http.StatusBadRequest, "missing_field", `missing field "type"`},
		{"unauthorized", &domain.UnauthorizedError{Reason: "unknown token"}, http.StatusUnauthorized, "unauthorized", "unauthorized: unknown token"},
		{"too large", &domain.PayloadTooLargeError{Limit: 10}, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds 10 bytes"},
		{"not implemented", &domain.NotImplementedError{Feature: "submission withdrawal"}, http.StatusNotImplemented, "not_implemented", "submission withdrawal is not implemented"},
		{"storage", &domain.InsufficientStorageError{Area: "uploads", Free: 1, Required: 2}, http.StatusInsufficientStorage, "insufficient_storage", "insufficient storage, try again later"},
		{"wrapped storage", fmt.Errorf("store: %w", &domain.InsufficientStorageError{Area: "uploads"}), http.StatusInsufficientStorage, "insufficient_storage", "insufficient storage, try again later"},
		{"unknown", errors.New("/srv/sjdb/uploads: permission denied"), http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := newLoggedEngine(&buf)
			r.GET("/e", func(c *gin.Context) { respondError(c, tc.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/e", nil))

			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			resp := decode(t, w)
			if resp.Code != tc.code || resp.Message != tc.message {
				t.Fatalf("unexpected body: %+v", resp)
			}
		})
	}
}
