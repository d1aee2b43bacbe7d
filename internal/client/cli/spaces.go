package cli

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	clientapi "github.com/iudanet/gratilog/internal/client/api"
	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/pkg/api"
)

func (c *Cli) runSpaces(ctx context.Context) error {
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	resp, err := c.apiClient.ListSpaces(ctx)
	if err != nil {
		// offline: показываем кэшированный список
		cached, cacheErr := c.store.GetSpaces(ctx)
		if cacheErr != nil {
			return fmt.Errorf("failed to list spaces: %w", err)
		}
		c.io.Println("(offline: showing cached spaces)")
		return c.printSpaces(cached)
	}

	spaces := make([]*models.Space, 0, len(resp.Spaces))
	for i := range resp.Spaces {
		spaces = append(spaces, clientapi.SpaceFromWire(&resp.Spaces[i]))
	}

	if err := c.store.SaveSpaces(ctx, spaces); err != nil {
		c.logger.Warn("failed to cache spaces", "error", err)
	}

	return c.printSpaces(spaces)
}

func (c *Cli) runSpace(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: gratilog space create <name> [--shared] | space join <id>")
	}

	if err := c.requireSession(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "create":
		return c.runSpaceCreate(ctx, args[1:])
	case "join":
		return c.runSpaceJoin(ctx, args[1:])
	default:
		return fmt.Errorf("unknown space subcommand: %s", args[0])
	}
}

func (c *Cli) runSpaceCreate(ctx context.Context, args []string) error {
	var name string
	kind := models.SpacePersonal
	for _, arg := range args {
		if arg == "--shared" {
			kind = models.SpaceShared
			continue
		}
		name = arg
	}
	if name == "" {
		return errors.New("space name is required")
	}

	space, err := c.apiClient.CreateSpace(ctx, api.CreateSpaceRequest{Name: name, Kind: kind})
	if err != nil {
		return fmt.Errorf("failed to create space: %w", err)
	}

	c.io.Println("✓ Space created!")
	c.io.Printf("ID:   %s\n", space.ID)
	c.io.Printf("Name: %s\n", space.Name)
	c.io.Printf("Kind: %s\n", space.Kind)
	if kind == models.SpaceShared {
		c.io.Println()
		c.io.Println("Share the ID with others so they can 'gratilog space join' it.")
	}

	return nil
}

func (c *Cli) runSpaceJoin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("space id is required")
	}

	if err := c.apiClient.JoinSpace(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to join space: %w", err)
	}

	c.io.Println("✓ Joined the space.")
	return nil
}

// printSpaces выводит список пространств через шаблон
func (c *Cli) printSpaces(spaces []*models.Space) error {
	tmpl, err := template.New("spaces").Parse(spacesListTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return tmpl.Execute(c.io, spaces)
}
