package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer

	handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"e-1"}`))
		}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	logged := buf.String()
	assert.Contains(t, logged, "method=POST")
	assert.Contains(t, logged, "path=/api/v1/entries")
	assert.Contains(t, logged, "status=201")
	assert.Contains(t, logged, "bytes=12")
	assert.Contains(t, logged, "level=INFO")
}

// Уровень лога повышается вместе с классом статуса ответа
func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"успех", http.StatusOK, "level=INFO"},
		{"клиентская ошибка", http.StatusNotFound, "level=WARN"},
		{"серверная ошибка", http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/spaces", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

// Username из salt-запроса не должен попадать в логи
func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/auth/salt/alice_grace", "/api/v1/auth/salt/***"},
		{"/api/v1/auth/salt/", "/api/v1/auth/salt/"},
		{"/api/v1/auth/login", "/api/v1/auth/login"},
		{"/api/v1/entries", "/api/v1/entries"},
		{"/api/v1/spaces/space-7/join", "/api/v1/spaces/space-7/join"},
		{"/api/v1/auth/token/abc123", "/api/v1/auth/token/***"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePath(tt.path))
		})
	}
}

func TestLoggingMiddleware_MasksSaltUsername(t *testing.T) {
	var buf bytes.Buffer

	handler := LoggingMiddleware(captureLogger(&buf))(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/salt/alice_grace", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logged := buf.String()
	assert.Contains(t, logged, "path=/api/v1/auth/salt/***")
	assert.NotContains(t, logged, "alice_grace")
}

func TestLoggingWithSkip_HealthNotLogged(t *testing.T) {
	var buf bytes.Buffer

	handler := LoggingWithSkip(captureLogger(&buf), []string{"/api/v1/health"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, buf.String(), "health check не логируется")

	handler.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/api/v1/spaces", nil))
	assert.Contains(t, buf.String(), "path=/api/v1/spaces")
}
