// Package realtime реализует push-канал изменений поверх WebSocket.
// Клиенты подписываются на топик (коллекцию ленты), сервер рассылает
// insert/delete события всем подписчикам после авторитетной записи.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/gratilog/pkg/api"
)

// Hub поддерживает активные WebSocket подключения по топикам
type Hub struct {
	logger *slog.Logger

	// Подписки: topic -> множество клиентов
	mu     sync.RWMutex
	topics map[string]map[*Client]bool

	// Каналы управления клиентами
	register   chan *Client
	unregister chan *Client

	// Канал рассылки событий
	broadcast chan *api.ChangeEvent

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		logger:     logger,
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *api.ChangeEvent, 1024),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run запускает главный цикл hub. Блокирует до Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("hub shutting down")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Stop останавливает hub и закрывает все подключения
func (h *Hub) Stop() {
	h.cancel()
}

// Broadcast рассылает событие всем подписчикам топика.
// Не блокирует обработчик HTTP запроса: при переполненном канале
// событие отбрасывается, клиенты восстановятся повторной загрузкой.
func (h *Hub) Broadcast(event api.ChangeEvent) {
	select {
	case h.broadcast <- &event:
	case <-time.After(time.Second):
		h.logger.Warn("broadcast channel full, event dropped",
			slog.String("topic", event.Topic),
			slog.String("type", event.Type))
	}
}

// registerClient добавляет клиента в подписки топика
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[client.topic] == nil {
		h.topics[client.topic] = make(map[*Client]bool)
	}
	h.topics[client.topic][client] = true

	h.logger.Info("client subscribed",
		slog.String("topic", client.topic),
		slog.String("user_id", client.userID),
		slog.Int("topic_subscribers", len(h.topics[client.topic])))
}

// unregisterClient удаляет клиента из подписок
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.topics[client.topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}

	h.logger.Info("client unsubscribed",
		slog.String("topic", client.topic),
		slog.String("user_id", client.userID),
		slog.Int("topic_subscribers", len(clients)))
}

// broadcastEvent отправляет событие всем подписчикам топика
func (h *Hub) broadcastEvent(event *api.ChangeEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.topics[event.Topic]))
	for client := range h.topics[event.Topic] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	// Сериализуем один раз для всех подписчиков
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal change event", slog.Any("error", err))
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// Канал клиента переполнен: закрываем медленное подключение
			h.logger.Warn("closing slow client",
				slog.String("topic", client.topic),
				slog.String("user_id", client.userID))
			go func(c *Client) {
				h.unregister <- c
				_ = c.conn.Close()
			}(client)
		}
	}
}

// closeAllClients закрывает все подключения при остановке
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, clients := range h.topics {
		for client := range clients {
			close(client.send)
			_ = client.conn.Close()
		}
		delete(h.topics, topic)
	}
}

// SubscriberCount возвращает число подписчиков топика
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
