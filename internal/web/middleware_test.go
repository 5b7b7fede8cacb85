package web

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hyperengineering/recipes/internal/view"
	"github.com/hyperengineering/recipes/internal/view/viewtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogs redirects the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingMiddleware_RecordsStatusAndRequestID(t *testing.T) {
	logs := captureLogs(t)
	handler := chiMiddleware.RequestID(LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/recipes", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	logs := captureLogs(t)
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, logs.String(), `"status":200`)
}

func TestLoggingMiddleware_FirstStatusWins(t *testing.T) {
	logs := captureLogs(t)
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/recipes", nil))

	assert.Contains(t, logs.String(), `"status":302`)
}

func panicking(msg string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(msg)
	})
}

func TestRecoveryMiddleware_APIPanicBecomes500Problem(t *testing.T) {
	logs := captureLogs(t)
	h := NewHandler(nil, viewtest.Echo{}, "test")
	handler := h.RecoveryMiddleware(panicking("secret panic detail"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "secret panic detail")
	assert.True(t, strings.Contains(logs.String(), "panic recovered"))
}

func TestRecoveryMiddleware_HTMLPanicRendersErrorView(t *testing.T) {
	captureLogs(t)
	h := NewHandler(nil, viewtest.Echo{}, "test")
	handler := h.RecoveryMiddleware(panicking("secret panic detail"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEqual(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "secret panic detail")
	assert.Equal(t, "error", decodeView(t, w).View)
}

func TestRecoveryMiddleware_HTMLPanicWithTemplRenderer(t *testing.T) {
	captureLogs(t)
	h := NewHandler(nil, view.NewTemplRenderer(), "test")
	handler := h.RecoveryMiddleware(panicking("boom"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
}

func TestRecoveryMiddleware_PassesThrough(t *testing.T) {
	h := NewHandler(nil, viewtest.Echo{}, "test")
	handler := h.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}
