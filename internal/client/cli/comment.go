package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

func (c *Cli) runComment(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog comment <photo-id> [text]")
	}
	photoID := args[0]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		input, err := c.io.ReadInput("Comment: ")
		if err != nil {
			return fmt.Errorf("failed to read comment: %w", err)
		}
		text = input
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("comment text is required")
	}

	col := c.newCollection(photoID, models.KindComment, feed.OrderAsc, nil)
	defer col.Close()

	if err := col.Load(ctx); err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}

	if _, err := col.SubmitCreate(ctx, text, ""); err != nil {
		return fmt.Errorf("failed to comment: %w", err)
	}

	if err := c.waitSettled(ctx, col); err != nil {
		return err
	}

	c.io.Println("✓ Comment added.")
	c.io.Println()
	return c.printEntries(commentsTemplate, col.Snapshot())
}
