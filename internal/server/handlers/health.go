package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger проверяет доступность хранилища. *sql.DB подходит напрямую
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler отвечает на health check запросы мониторинга
type HealthHandler struct {
	logger  *slog.Logger
	db      Pinger
	version string
}

// NewHealthHandler создает handler. version приходит из ldflags сборки
func NewHealthHandler(logger *slog.Logger, version string, db Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		db:      db,
		version: version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /api/v1/health.
// Пингует базу: без нее сервер не может обслуживать ни один запрос
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.logger.Error("health check: database unreachable", slog.Any("error", err))
			writeJSON(h.logger, w, HealthResponse{
				Status:  "unavailable",
				Version: h.version,
			}, http.StatusServiceUnavailable)
			return
		}
	}

	writeJSON(h.logger, w, HealthResponse{
		Status:  "ok",
		Version: h.version,
	}, http.StatusOK)
}
