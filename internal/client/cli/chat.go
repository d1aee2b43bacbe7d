package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/iudanet/gratilog/internal/client/realtime"
	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

func (c *Cli) runChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog chat <space-id>")
	}
	spaceID := args[0]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	topic := models.ChatTopic(spaceID)
	printer := &chatPrinter{cli: c, seen: make(map[string]bool)}

	col := c.newCollection(topic, models.KindMessage, feed.OrderAsc, printer.onChange)
	defer col.Close()

	if err := col.Load(ctx); err != nil {
		return fmt.Errorf("failed to load chat: %w", err)
	}

	sub, err := realtime.Subscribe(ctx, c.logger, c.serverURL, c.session.AccessToken, topic, col)
	if err != nil {
		return fmt.Errorf("failed to subscribe to chat: %w", err)
	}
	defer sub.Unsubscribe()

	c.io.Println("=== Group Chat ===")
	c.io.Println("Type a message and press Enter. Type /quit to leave.")
	c.io.Println()
	printer.onChange(col.Snapshot())

	for {
		select {
		case <-sub.Done():
			c.io.Println("Connection closed.")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := c.io.ReadInput("")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "/quit" {
			return nil
		}
		if line == "" {
			continue
		}

		if _, err := col.SubmitCreate(ctx, line, ""); err != nil {
			c.io.Printf("✗ %v\n", err)
		}
	}
}

// chatPrinter печатает новые сообщения чата по мере их появления.
// Ключом служит client_ref, чтобы echo подтвержденного сообщения
// не печаталось второй раз после замены pending записи.
type chatPrinter struct {
	cli  *Cli
	mu   sync.Mutex
	seen map[string]bool
}

func (p *chatPrinter) onChange(entries []models.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range entries {
		e := &entries[i]
		key := e.ClientRef
		if key == "" {
			key = e.ID
		}
		if p.seen[key] {
			continue
		}
		p.seen[key] = true
		p.cli.io.Printf("[%s] %s: %s\n", e.CreatedAt.Format("15:04"), e.AuthorName, e.Content)
	}
}
