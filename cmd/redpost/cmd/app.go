package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmcleod/redpost/accounts"
	"github.com/jmcleod/redpost/client"
	"github.com/jmcleod/redpost/config"
	"github.com/jmcleod/redpost/publish"
	"github.com/jmcleod/redpost/session"
	"github.com/jmcleod/redpost/sign"
	bboltstorage "github.com/jmcleod/redpost/storage/bbolt"
)

// app bundles the wired components the commands share.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	sessions *session.FileStore
	client   *client.Client
	workflow *publish.Workflow
	history  *publish.HistoryFile
	tasks    *publish.TaskFile
}

// buildApp loads the config and wires the session store, signature oracle,
// API client, and publish workflow.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger := newLogger()

	sessions, err := session.NewFileStore(cfg.DataDir, session.WithCookieDomain(cfg.Platform.CookieDomain))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	oracle := sign.NewOracle(
		sign.WithMaxAttempts(cfg.Oracle.MaxAttempts),
		sign.WithSettleDelay(cfg.Oracle.SettleDelay),
		sign.WithOrigin(cfg.Platform.Origin, cfg.Platform.CookieDomain),
		sign.WithLogger(logger),
	)

	c := client.New(oracle, sessions,
		client.WithBaseURL(cfg.Platform.BaseURL),
		client.WithLogger(logger),
	)

	history := publish.NewHistoryFile(cfg.HistoryPath())
	workflow := publish.NewWorkflow(c, history,
		publish.WithCooldown(cfg.Publish.Cooldown),
		publish.WithWorkflowLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		client:   c,
		workflow: workflow,
		history:  history,
		tasks:    publish.NewTaskFile(cfg.TaskPath()),
	}, nil
}

// openRegistry opens the sealed account registry, creating the master key on
// first use.
func (a *app) openRegistry() (*accounts.Store, *bboltstorage.Store, error) {
	key, err := accounts.LoadOrCreateMasterKey(a.cfg.MasterKeyPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load master key: %w", err)
	}

	repo, err := bboltstorage.NewRepositoryFromFile(a.cfg.AccountDBPath(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open account storage: %w", err)
	}

	store, err := accounts.NewStore(repo, key)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	return store, repo, nil
}
