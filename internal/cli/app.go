package cli

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/avolkovs/tallybook/internal/config"
	"github.com/avolkovs/tallybook/internal/logging"
	"github.com/avolkovs/tallybook/internal/sheet"
	"github.com/avolkovs/tallybook/internal/store"
	"github.com/avolkovs/tallybook/internal/sync"
	"github.com/avolkovs/tallybook/internal/token"
)

// App wires the store, the remote gateway, the token provider and the sync
// orchestrator behind the REPL.
type App struct {
	config *config.Config
	store  *store.Store
	tokens token.Provider
	orch   *sync.Orchestrator
	reader *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)

	tokens := token.NewHTTPProvider(cfg.AuthURL, nil, func(ctx context.Context) (string, error) {
		return GetSecret("Enter service access key", os.Stdout)
	}, nil)

	gw := sheet.NewHTTPGateway(cfg.ServiceBaseURL, nil, tokens, logger)

	orch := sync.New(st, gw, tokens, sync.Options{
		DocumentName:  cfg.DocumentName,
		DebounceDelay: cfg.DebounceDelay,
		Logger:        logger,
	})

	a := &App{config: cfg, store: st, tokens: tokens, orch: orch, reader: reader}

	orch.SetOnStatus(func(s sync.Status) {
		if s.State == sync.StateError {
			log.Printf("sync: %s", s.Message)
		}
	})

	return a, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.orch.Close()
	if err := a.store.Close(); err != nil {
		log.Printf("error closing database: %v", err)
	}
}
