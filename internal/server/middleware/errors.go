package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/gratilog/pkg/api"
)

// writeJSONError отправляет ошибку в том же JSON формате, что и handlers,
// чтобы клиент разбирал ответы middleware единым кодом
func writeJSONError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
