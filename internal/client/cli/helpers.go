package cli

import (
	"context"
	"fmt"
	"time"

	clientapi "github.com/iudanet/gratilog/internal/client/api"
	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

// settleTimeout максимальное ожидание подтверждения авторитетной записи
const settleTimeout = 15 * time.Second

// newCollection создает reconciler коллекции для текущего пользователя
func (c *Cli) newCollection(parentID, kind string, order feed.Order, onChange func([]models.Entry)) *feed.Collection {
	return feed.NewCollection(feed.Config{
		ParentID:   parentID,
		Kind:       kind,
		NodeID:     c.nodeID,
		AuthorID:   c.session.UserID,
		AuthorName: c.session.DisplayName,
		Order:      order,
		Backend:    clientapi.NewFeedBackend(c.apiClient),
		Notifier: feed.NotifierFunc(func(n feed.Notification) {
			if n.Err != nil {
				c.io.Printf("✗ %s: %v\n", n.Message, n.Err)
			}
		}),
		Logger:   c.logger,
		OnChange: onChange,
	})
}

// waitSettled ждет завершения всех pending операций коллекции
func (c *Cli) waitSettled(ctx context.Context, col *feed.Collection) error {
	deadline := time.NewTimer(settleTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if col.PendingCount() == 0 {
				return nil
			}
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for server confirmation")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// cacheSnapshot сохраняет подтвержденные записи снимка в offline кэш
func (c *Cli) cacheSnapshot(ctx context.Context, topic string, snap []models.Entry) {
	confirmed := make([]*models.Entry, 0, len(snap))
	for i := range snap {
		if snap[i].IsPending() {
			continue
		}
		confirmed = append(confirmed, snap[i].Clone())
	}
	if err := c.store.SaveEntries(ctx, topic, confirmed); err != nil {
		c.logger.Warn("failed to cache entries", "topic", topic, "error", err)
	}
}
