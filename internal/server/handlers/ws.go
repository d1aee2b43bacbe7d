package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gratilog/internal/server/realtime"
	"github.com/iudanet/gratilog/internal/server/storage"
)

// WSHandler обрабатывает подписку на push-канал изменений
type WSHandler struct {
	logger   *slog.Logger
	storage  FeedStorage
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewWSHandler создает новый handler push-канала
func NewWSHandler(logger *slog.Logger, feedStorage FeedStorage, hub *realtime.Hub) *WSHandler {
	return &WSHandler{
		logger:  logger,
		storage: feedStorage,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Subscribe обрабатывает GET /api/v1/ws?topic={parentID}
// Подписка проверяет членство в пространстве топика, затем
// соединение переводится в WebSocket и регистрируется в hub.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(h.logger, w, "topic query parameter is required", http.StatusBadRequest)
		return
	}

	if err := h.checkAccess(ctx, topic, userID); err != nil {
		var status int
		switch {
		case errors.Is(err, storage.ErrSpaceNotFound), errors.Is(err, storage.ErrEntryNotFound):
			status = http.StatusNotFound
		case errors.Is(err, errNotMember):
			status = http.StatusForbidden
		default:
			h.logger.ErrorContext(ctx, "failed to check topic access", slog.Any("error", err))
			status = http.StatusInternalServerError
		}
		writeError(h.logger, w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет HTTP ответ об ошибке
		h.logger.WarnContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	realtime.NewClient(h.hub, conn, topic, userID).Start()
}

var errNotMember = errors.New("not a member of the space")

// checkAccess проверяет право пользователя на подписку на топик
func (h *WSHandler) checkAccess(ctx context.Context, topic, userID string) error {
	spaceID := topic
	if id, ok := strings.CutSuffix(topic, "/chat"); ok {
		spaceID = id
	} else if _, err := h.storage.GetSpace(ctx, topic); err != nil {
		if !errors.Is(err, storage.ErrSpaceNotFound) {
			return err
		}
		// Топик комментариев: parent — фотография
		photo, err := h.storage.GetEntry(ctx, topic)
		if err != nil {
			return err
		}
		spaceID = photo.ParentID
	}

	space, err := h.storage.GetSpace(ctx, spaceID)
	if err != nil {
		return err
	}
	if space.OwnerID == userID {
		return nil
	}

	member, err := h.storage.IsMember(ctx, spaceID, userID)
	if err != nil {
		return err
	}
	if !member {
		return errNotMember
	}
	return nil
}
