// Package realtime реализует клиентскую подписку на push-канал изменений.
// Подписка привязана к одному топику; события конвертируются в вызовы
// reconciler коллекции (ApplyRemoteInsert / ApplyRemoteDelete).
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	clientapi "github.com/iudanet/gratilog/internal/client/api"
	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/pkg/api"
)

const (
	dialTimeout  = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler принимает события изменений одного топика
type Handler interface {
	// ApplyRemoteInsert применяет авторитетную запись
	ApplyRemoteInsert(entry *models.Entry)

	// ApplyRemoteDelete применяет авторитетное удаление
	ApplyRemoteDelete(id string)
}

// Subscriber представляет активную подписку на топик
type Subscriber struct {
	logger  *slog.Logger
	conn    *websocket.Conn
	topic   string
	handler Handler

	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe открывает подписку на топик и запускает цикл чтения.
// serverURL — базовый http(s) адрес сервера; accessToken уходит
// в Authorization header рукопожатия.
func Subscribe(ctx context.Context, logger *slog.Logger, serverURL, accessToken, topic string, handler Handler) (*Subscriber, error) {
	wsURL, err := websocketURL(serverURL, topic)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if accessToken != "" {
		header.Set("Authorization", "Bearer "+accessToken)
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}

	sub := &Subscriber{
		logger:  logger,
		conn:    conn,
		topic:   topic,
		handler: handler,
		done:    make(chan struct{}),
	}

	go sub.readLoop()
	go sub.pingLoop()

	return sub, nil
}

// Done возвращает канал, закрываемый при завершении подписки
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe завершает подписку. Повторные вызовы безопасны.
func (s *Subscriber) Unsubscribe() {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
		close(s.done)
	})
}

// readLoop читает события до закрытия соединения
func (s *Subscriber) readLoop() {
	defer s.Unsubscribe()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event api.ChangeEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("subscription closed unexpectedly",
					slog.String("topic", s.topic),
					slog.Any("error", err))
			}
			return
		}

		s.dispatch(&event)
	}
}

// dispatch передает событие обработчику коллекции
func (s *Subscriber) dispatch(event *api.ChangeEvent) {
	switch event.Type {
	case api.ChangeInsert:
		if event.Entry == nil {
			s.logger.Warn("insert event without entry", slog.String("topic", s.topic))
			return
		}
		s.handler.ApplyRemoteInsert(clientapi.EntryFromWire(event.Entry))
	case api.ChangeDelete:
		if event.ID == "" {
			s.logger.Warn("delete event without id", slog.String("topic", s.topic))
			return
		}
		s.handler.ApplyRemoteDelete(event.ID)
	default:
		s.logger.Warn("unknown change event type",
			slog.String("type", event.Type),
			slog.String("topic", s.topic))
	}
}

// pingLoop поддерживает соединение живым
func (s *Subscriber) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(time.Second)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// websocketURL строит адрес push-канала из базового адреса сервера
func websocketURL(serverURL, topic string) (string, error) {
	if topic == "" {
		return "", errors.New("topic is required")
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/ws"
	u.RawQuery = url.Values{"topic": {topic}}.Encode()
	return u.String(), nil
}
