package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/gratilog/internal/client/storage"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	isAuth, err := c.authService.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !isAuth {
		c.io.Println("Status: Not authenticated")
		c.io.Println()
		c.io.Println("Run 'gratilog login' to authenticate.")
		return nil
	}

	session, err := c.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Username: %s\n", session.Username)
	if session.DisplayName != "" {
		c.io.Printf("Display name: %s\n", session.DisplayName)
	}
	c.io.Printf("Token expires: %s\n", session.ExpiresAt.Format(time.RFC3339))

	remaining := time.Until(session.ExpiresAt)
	if remaining > 0 {
		c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
	} else {
		c.io.Println("Access token has expired; it will be refreshed on the next command.")
	}

	// Показываем кэшированные пространства, если они есть
	spaces, err := c.store.GetSpaces(ctx)
	if err == nil {
		c.io.Println()
		c.io.Printf("Cached spaces: %d\n", len(spaces))
	} else if err != storage.ErrCacheMiss {
		c.logger.Warn("failed to read cached spaces", "error", err)
	}

	return nil
}
