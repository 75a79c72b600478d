package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/cache"
	"github.com/stahnma/gh-orgstars/internal/config"
	ghub "github.com/stahnma/gh-orgstars/internal/github"
	"github.com/stahnma/gh-orgstars/internal/live"
	"github.com/stahnma/gh-orgstars/internal/logger"
	"github.com/stahnma/gh-orgstars/internal/secrets"
	"github.com/stahnma/gh-orgstars/internal/service"
	"go.uber.org/zap"
)

// App holds shared application state.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    secrets.Store
	Engine   *live.Engine
	Service  *service.Service
	GitSHA   string
	GitDirty string
}

// NewApp creates a new App from the given configuration.
func NewApp(cfg config.Config, gitSHA, gitDirty string) (*App, error) {
	l := logger.New(cfg.DebugMode)

	store, err := secrets.Open(secrets.Options{
		Backend: cfg.SecretsBackend,
		Path:    cfg.SecretsFile,
		Token:   cfg.GitHubToken,
	})
	if err != nil {
		return nil, fmt.Errorf("opening secret store: %w", err)
	}

	client, err := ghub.NewClient(
		ghub.WithBaseURL(cfg.BaseURL),
		ghub.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}

	engine := live.NewEngine(live.WithLogger(l.Named("live")))
	svc := service.New(client, engine, store,
		service.WithLogger(l.Named("service")),
		service.WithDetailCache(cache.New(cfg.DetailCacheTTL)),
		service.WithFallbackToken(cfg.GitHubToken),
	)

	return &App{
		Config:   cfg,
		Logger:   l,
		Store:    store,
		Engine:   engine,
		Service:  svc,
		GitSHA:   gitSHA,
		GitDirty: gitDirty,
	}, nil
}

// Close stops every live feed and releases the secret store.
func (a *App) Close() error {
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if c, ok := a.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// organization returns the first argument, or the configured default.
func (a *App) organization(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.Config.Organization
}

// NewRootCommand creates the root cobra command with all subcommands.
func (a *App) NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   os.Args[0],
		Short: "Browse the repositories of a GitHub organization with live star counts.",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(a.newReposCommand())
	rootCmd.AddCommand(a.newShowCommand())
	rootCmd.AddCommand(a.newStarsCommand())
	rootCmd.AddCommand(a.newWatchCommand())
	rootCmd.AddCommand(a.newExportCommand())
	rootCmd.AddCommand(a.newTokenCommand())
	rootCmd.AddCommand(a.newVersionCommand())

	return rootCmd
}
