package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

func (c *Cli) runReact(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: gratilog react <photo-id> <emoji>")
	}
	photoID, emoji := args[0], args[1]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	col := c.newCollection(photoID, models.KindReaction, feed.OrderAsc, nil)
	defer col.Close()

	if _, err := col.SubmitCreate(ctx, emoji, ""); err != nil {
		return fmt.Errorf("failed to react: %w", err)
	}

	if err := c.waitSettled(ctx, col); err != nil {
		return err
	}

	if col.Len() == 0 {
		return errors.New("the server rejected the reaction")
	}

	c.io.Printf("✓ Reacted with %s\n", emoji)
	return nil
}
