package cli

import (
	"context"
	"errors"
	"fmt"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog delete <entry-id>")
	}
	entryID := args[0]

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	if err := c.apiClient.DeleteEntry(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	c.io.Println("✓ Entry deleted.")
	return nil
}
