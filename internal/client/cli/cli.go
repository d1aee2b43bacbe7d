package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/iudanet/gratilog/internal/client/api"
	"github.com/iudanet/gratilog/internal/client/auth"
	"github.com/iudanet/gratilog/internal/client/iocli"
	"github.com/iudanet/gratilog/internal/client/storage"
)

// Store объединяет клиентские хранилища: сессию и offline кэш ленты
type Store interface {
	storage.SessionStorage
	storage.FeedCache
}

// Cli связывает команды с сервисами клиента
type Cli struct {
	io          iocli.IO
	logger      *slog.Logger
	serverURL   string
	apiClient   *api.Client
	authService *auth.Service
	store       Store
	nodeID      string

	// сессия текущего запуска, заполняется requireSession
	session *storage.SessionData
}

// New создает CLI поверх сервисов клиента
func New(io iocli.IO, logger *slog.Logger, serverURL string, apiClient *api.Client, authService *auth.Service, store Store) *Cli {
	return &Cli{
		io:          io,
		logger:      logger,
		serverURL:   serverURL,
		apiClient:   apiClient,
		authService: authService,
		store:       store,
		nodeID:      uuid.New().String(),
	}
}

// Run выполняет команду и завершает процесс при ошибке
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error
	switch command {
	case "register":
		err = c.runRegister(ctx)
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "spaces":
		err = c.runSpaces(ctx)
	case "space":
		err = c.runSpace(ctx, args)
	case "post":
		err = c.runPost(ctx, args)
	case "feed":
		err = c.runFeed(ctx, args)
	case "comment":
		err = c.runComment(ctx, args)
	case "react":
		err = c.runReact(ctx, args)
	case "delete":
		err = c.runDelete(ctx, args)
	case "chat":
		err = c.runChat(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// requireSession восстанавливает сессию и настраивает API клиент.
// Возвращает ошибку, если пользователь не авторизован.
func (c *Cli) requireSession(ctx context.Context) error {
	if c.session != nil {
		return nil
	}

	session, err := c.authService.Restore(ctx)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			return fmt.Errorf("not authenticated. Please run 'gratilog login' first")
		}
		return fmt.Errorf("failed to restore session: %w", err)
	}

	c.session = session
	return nil
}

// PrintUsage печатает справку по командам
func PrintUsage() {
	fmt.Print(usageTemplate)
}
