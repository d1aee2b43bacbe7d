package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/gratilog/internal/feed"
	"github.com/iudanet/gratilog/internal/models"
)

func (c *Cli) runPost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog post <space-id>")
	}
	spaceID := args[0]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	c.io.Println("=== New Photo Entry ===")
	c.io.Println()

	mediaURL, err := c.io.ReadInput("Photo URL: ")
	if err != nil {
		return fmt.Errorf("failed to read photo url: %w", err)
	}

	caption, err := c.io.ReadInput("What are you grateful for? ")
	if err != nil {
		return fmt.Errorf("failed to read caption: %w", err)
	}

	if strings.TrimSpace(caption) == "" && strings.TrimSpace(mediaURL) == "" {
		return errors.New("an entry needs a caption or a photo")
	}

	col := c.newCollection(spaceID, models.KindPhoto, feed.OrderDesc, nil)
	defer col.Close()

	if _, err := col.SubmitCreate(ctx, caption, mediaURL); err != nil {
		return fmt.Errorf("failed to post entry: %w", err)
	}

	c.io.Println()
	c.io.Println("Posting...")

	if err := c.waitSettled(ctx, col); err != nil {
		return err
	}

	snap := col.Snapshot()
	if len(snap) == 0 {
		return errors.New("the server rejected the entry")
	}

	c.io.Println("✓ Posted!")
	c.io.Printf("ID: %s\n", snap[0].ID)
	return nil
}
