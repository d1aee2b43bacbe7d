package cli

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

func (c *Cli) runFeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog feed <space-id>")
	}
	spaceID := args[0]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	col := c.newCollection(spaceID, models.KindPhoto, feed.OrderDesc, nil)
	defer col.Close()

	if err := col.Load(ctx); err != nil {
		// offline: показываем кэшированную ленту
		cached, cacheErr := c.store.GetEntries(ctx, spaceID)
		if cacheErr != nil {
			return fmt.Errorf("failed to load feed: %w", err)
		}
		c.io.Println("(offline: showing cached feed)")
		entries := make([]models.Entry, 0, len(cached))
		for _, e := range cached {
			entries = append(entries, *e)
		}
		return c.printEntries(feedTemplate, entries)
	}

	snap := col.Snapshot()
	c.cacheSnapshot(ctx, spaceID, snap)

	return c.printEntries(feedTemplate, snap)
}

// printEntries выводит записи через шаблон
func (c *Cli) printEntries(text string, entries []models.Entry) error {
	tmpl, err := template.New("entries").Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl.Execute(c.io, entries)
}
