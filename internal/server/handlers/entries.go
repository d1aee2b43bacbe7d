package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/server/storage"
	"github.com/iudanet/gratilog/internal/validation"
	"github.com/iudanet/gratilog/pkg/api"
)

// Broadcaster рассылает события изменений подписчикам топика
type Broadcaster interface {
	Broadcast(event api.ChangeEvent)
}

// FeedStorage определяет операции хранилища, нужные обработчику ленты
type FeedStorage interface {
	storage.EntryStorage
	GetSpace(ctx context.Context, spaceID string) (*models.Space, error)
	IsMember(ctx context.Context, spaceID, userID string) (bool, error)
}

// FeedHandler обрабатывает авторитетные операции над записями ленты:
// создание, выборку коллекции и удаление. После каждой записи
// рассылает событие подписчикам топика.
type FeedHandler struct {
	logger      *slog.Logger
	storage     FeedStorage
	broadcaster Broadcaster
}

// NewFeedHandler создает новый handler ленты
func NewFeedHandler(logger *slog.Logger, feedStorage FeedStorage, broadcaster Broadcaster) *FeedHandler {
	return &FeedHandler{
		logger:      logger,
		storage:     feedStorage,
		broadcaster: broadcaster,
	}
}

// CreateEntry обрабатывает POST /api/v1/entries
// Авторитетная запись: сервер назначает id и created_at,
// echo-ит client_ref в ответе и push-событии.
func (h *FeedHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ParentID == "" {
		writeError(h.logger, w, "parent_id is required", http.StatusBadRequest)
		return
	}
	if !validKind(req.Kind) {
		writeError(h.logger, w, "unknown entry kind", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateContent(req.Content); err != nil {
		writeError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.authorize(ctx, w, req.ParentID, userID) {
		return
	}

	// Повторный POST с тем же client_ref возвращает уже созданную
	// запись: клиент мог отправить запрос дважды после обрыва сети
	if req.ClientRef != "" {
		existing, err := h.storage.GetEntryByClientRef(ctx, req.ClientRef)
		if err == nil {
			writeJSON(h.logger, w, toAPIEntry(existing), http.StatusOK)
			return
		}
		if !errors.Is(err, storage.ErrEntryNotFound) {
			h.logger.ErrorContext(ctx, "failed to check client_ref", slog.Any("error", err))
			writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	entry := &models.Entry{
		ID:        uuid.New().String(),
		ParentID:  req.ParentID,
		Kind:      req.Kind,
		AuthorID:  userID,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		ClientRef: req.ClientRef,
		Status:    models.StatusConfirmed,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.storage.CreateEntry(ctx, entry); err != nil {
		h.logger.ErrorContext(ctx, "failed to create entry", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Перечитываем для заполнения author_name из профиля
	created, err := h.storage.GetEntry(ctx, entry.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload created entry", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "entry created",
		slog.String("entry_id", created.ID),
		slog.String("parent_id", created.ParentID),
		slog.String("kind", created.Kind),
		slog.String("author_id", userID))

	apiEntry := toAPIEntry(created)
	h.broadcaster.Broadcast(api.ChangeEvent{
		Type:  api.ChangeInsert,
		Topic: created.ParentID,
		Entry: &apiEntry,
	})

	writeJSON(h.logger, w, apiEntry, http.StatusCreated)
}

// ListEntries обрабатывает GET /api/v1/entries?parent={parentID}
// Возвращает все подтвержденные записи коллекции в хронологическом порядке
func (h *FeedHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	parentID := r.URL.Query().Get("parent")
	if parentID == "" {
		writeError(h.logger, w, "parent query parameter is required", http.StatusBadRequest)
		return
	}

	if !h.authorize(ctx, w, parentID, userID) {
		return
	}

	entries, err := h.storage.ListEntries(ctx, parentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list entries", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.EntriesResponse{Entries: make([]api.Entry, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, toAPIEntry(entry))
	}

	writeJSON(h.logger, w, resp, http.StatusOK)
}

// DeleteEntry обрабатывает DELETE /api/v1/entries/{id}
// Удалять запись может только ее автор или владелец пространства
func (h *FeedHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	entryID := r.PathValue("id")
	if entryID == "" {
		writeError(h.logger, w, "entry id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.storage.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			writeError(h.logger, w, "entry not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get entry", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	if entry.AuthorID != userID && !h.isSpaceOwner(ctx, entry.ParentID, userID) {
		writeError(h.logger, w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.storage.DeleteEntry(ctx, entryID); err != nil {
		if errors.Is(err, storage.ErrEntryNotFound) {
			writeError(h.logger, w, "entry not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete entry", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "entry deleted",
		slog.String("entry_id", entryID),
		slog.String("user_id", userID))

	h.broadcaster.Broadcast(api.ChangeEvent{
		Type:  api.ChangeDelete,
		Topic: entry.ParentID,
		ID:    entryID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// authorize проверяет членство пользователя в пространстве коллекции.
// При отказе пишет ответ и возвращает false.
func (h *FeedHandler) authorize(ctx context.Context, w http.ResponseWriter, parentID, userID string) bool {
	spaceID, err := h.resolveSpaceID(ctx, parentID)
	if err != nil {
		if errors.Is(err, storage.ErrSpaceNotFound) || errors.Is(err, storage.ErrEntryNotFound) {
			writeError(h.logger, w, "collection not found", http.StatusNotFound)
			return false
		}
		h.logger.ErrorContext(ctx, "failed to resolve collection space", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return false
	}

	space, err := h.storage.GetSpace(ctx, spaceID)
	if err != nil {
		if errors.Is(err, storage.ErrSpaceNotFound) {
			writeError(h.logger, w, "collection not found", http.StatusNotFound)
			return false
		}
		h.logger.ErrorContext(ctx, "failed to get space", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return false
	}

	if space.OwnerID == userID {
		return true
	}

	member, err := h.storage.IsMember(ctx, spaceID, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check membership", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return false
	}
	if !member {
		writeError(h.logger, w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// resolveSpaceID определяет пространство, которому принадлежит коллекция.
// Топик может быть id пространства (фотографии), чат-топиком пространства
// или id фотографии (комментарии и реакции).
func (h *FeedHandler) resolveSpaceID(ctx context.Context, parentID string) (string, error) {
	if spaceID, ok := strings.CutSuffix(parentID, "/chat"); ok {
		return spaceID, nil
	}

	if _, err := h.storage.GetSpace(ctx, parentID); err == nil {
		return parentID, nil
	} else if !errors.Is(err, storage.ErrSpaceNotFound) {
		return "", err
	}

	// Комментарии и реакции: parent — фотография, ее parent — пространство
	photo, err := h.storage.GetEntry(ctx, parentID)
	if err != nil {
		return "", err
	}
	return photo.ParentID, nil
}

// isSpaceOwner сообщает, владеет ли пользователь пространством коллекции
func (h *FeedHandler) isSpaceOwner(ctx context.Context, parentID, userID string) bool {
	spaceID, err := h.resolveSpaceID(ctx, parentID)
	if err != nil {
		return false
	}
	space, err := h.storage.GetSpace(ctx, spaceID)
	if err != nil {
		return false
	}
	return space.OwnerID == userID
}

// validKind проверяет тип создаваемой записи
func validKind(kind string) bool {
	switch kind {
	case models.KindPhoto, models.KindComment, models.KindMessage, models.KindReaction:
		return true
	}
	return false
}

// toAPIEntry конвертирует запись хранилища в wire формат
func toAPIEntry(entry *models.Entry) api.Entry {
	return api.Entry{
		CreatedAt:  entry.CreatedAt,
		ID:         entry.ID,
		ParentID:   entry.ParentID,
		Kind:       entry.Kind,
		AuthorID:   entry.AuthorID,
		AuthorName: entry.AuthorName,
		Content:    entry.Content,
		MediaURL:   entry.MediaURL,
		ClientRef:  entry.ClientRef,
	}
}
