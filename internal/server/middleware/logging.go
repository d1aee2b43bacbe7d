package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter перехватывает статус и размер ответа
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// LoggingMiddleware логирует каждый HTTP запрос: метод, путь, статус,
// длительность, размер ответа. Уровень зависит от статуса ответа.
// Username в пути salt-запроса маскируется, токены в лог не попадают.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			switch {
			case wrapped.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case wrapped.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "HTTP request",
				"method", r.Method,
				"path", sanitizePath(r.URL.Path),
				"remote_addr", r.RemoteAddr,
				"status", wrapped.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", wrapped.bytes,
			)
		})
	}
}

// maskedSegments — сегменты пути, следом за которыми идет значение,
// которое не должно попадать в логи: username в salt-запросе,
// refresh token в будущих GET-вариантах
var maskedSegments = map[string]bool{
	"salt":  true,
	"token": true,
}

// sanitizePath маскирует чувствительные сегменты пути.
// /api/v1/auth/salt/alice_grace -> /api/v1/auth/salt/***
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	masked := false
	for i := 0; i+1 < len(parts); i++ {
		if maskedSegments[parts[i]] && parts[i+1] != "" {
			parts[i+1] = "***"
			masked = true
		}
	}
	if !masked {
		return path
	}
	return strings.Join(parts, "/")
}

// LoggingWithSkip не логирует перечисленные пути.
// Используется для health check, который опрашивается мониторингом
func LoggingWithSkip(logger *slog.Logger, skipPaths []string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}

	logging := LoggingMiddleware(logger)

	return func(next http.Handler) http.Handler {
		logged := logging(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			logged.ServeHTTP(w, r)
		})
	}
}
