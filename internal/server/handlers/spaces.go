package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/server/storage"
	"github.com/iudanet/gratilog/internal/validation"
	"github.com/iudanet/gratilog/pkg/api"
)

// SpacesHandler обрабатывает операции над пространствами
type SpacesHandler struct {
	logger  *slog.Logger
	storage storage.SpaceStorage
}

// NewSpacesHandler создает новый handler пространств
func NewSpacesHandler(logger *slog.Logger, spaceStorage storage.SpaceStorage) *SpacesHandler {
	return &SpacesHandler{
		logger:  logger,
		storage: spaceStorage,
	}
}

// CreateSpace обрабатывает POST /api/v1/spaces
// Создание личного журнала или общей группы.
// Владелец сразу становится участником.
func (h *SpacesHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateSpaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateSpaceName(req.Name); err != nil {
		writeError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Kind != models.SpacePersonal && req.Kind != models.SpaceShared {
		writeError(h.logger, w, "kind must be personal or shared", http.StatusBadRequest)
		return
	}

	space := &models.Space{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Kind:      req.Kind,
		OwnerID:   userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.storage.CreateSpace(ctx, space); err != nil {
		h.logger.ErrorContext(ctx, "failed to create space", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.storage.AddMember(ctx, &models.SpaceMember{
		SpaceID:  space.ID,
		UserID:   userID,
		JoinedAt: space.CreatedAt,
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to add owner membership", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "space created",
		slog.String("space_id", space.ID),
		slog.String("kind", space.Kind),
		slog.String("owner_id", userID))

	writeJSON(h.logger, w, toAPISpace(space), http.StatusCreated)
}

// ListSpaces обрабатывает GET /api/v1/spaces
// Возвращает пространства, в которых состоит пользователь
func (h *SpacesHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	spaces, err := h.storage.ListUserSpaces(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list spaces", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.SpacesResponse{Spaces: make([]api.Space, 0, len(spaces))}
	for _, space := range spaces {
		resp.Spaces = append(resp.Spaces, toAPISpace(space))
	}

	writeJSON(h.logger, w, resp, http.StatusOK)
}

// JoinSpace обрабатывает POST /api/v1/spaces/{id}/join
// Вступление в общую группу. Личные журналы закрыты для вступления.
func (h *SpacesHandler) JoinSpace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	spaceID := r.PathValue("id")
	if spaceID == "" {
		writeError(h.logger, w, "space id is required", http.StatusBadRequest)
		return
	}

	space, err := h.storage.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, storage.ErrSpaceNotFound) {
			writeError(h.logger, w, "space not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get space", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if space.Kind != models.SpaceShared {
		writeError(h.logger, w, "personal spaces cannot be joined", http.StatusForbidden)
		return
	}

	err = h.storage.AddMember(ctx, &models.SpaceMember{
		SpaceID:  spaceID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyMember) {
			// Повторное вступление — no-op
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.logger.ErrorContext(ctx, "failed to add member", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user joined space",
		slog.String("space_id", spaceID),
		slog.String("user_id", userID))

	w.WriteHeader(http.StatusNoContent)
}

// toAPISpace конвертирует пространство в wire формат
func toAPISpace(space *models.Space) api.Space {
	return api.Space{
		CreatedAt: space.CreatedAt,
		ID:        space.ID,
		Name:      space.Name,
		Kind:      space.Kind,
		OwnerID:   space.OwnerID,
	}
}
