package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"learnspace/config"
	"learnspace/db"
	"learnspace/live"
	"learnspace/logging"
	"learnspace/notify"
	"learnspace/rdx"
	"learnspace/requests"
	"learnspace/store"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the wiring shared by every command.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.Store
	redis    *redis.Client
	hub      *live.Hub
	events   live.Publisher
	notifier *notify.Dispatcher
	emailjs  *notify.EmailJS
	requests *requests.Service
	closers  []func()
}

var app *App

func main() {
	rootCmd := &cobra.Command{
		Use:   "learnspace",
		Short: "LearnSpace room booking service",
		Long:  `Room and hall booking requests for faculty and organisers, with admin approval.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(requestsCmd())
	rootCmd.AddCommand(usersCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		app.Close()
		os.Exit(1)
	}
}

// initApp loads config, builds the logger and opens the store.
func initApp(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app = &App{cfg: cfg, logger: logger}
	app.closers = append(app.closers, func() { _ = logger.Sync() })

	if cfg.Redis.Addr != "" {
		conn, err := rdx.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable", zap.Error(err))
		} else {
			app.redis = conn
			app.closers = append(app.closers, func() { _ = conn.Close() })
		}
	}

	s, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	app.store = s

	app.hub = live.NewHub(logger)
	app.events = app.hub
	if app.redis != nil {
		app.events = live.NewRedisRelay(app.redis, app.hub, logger)
	}

	app.emailjs = notify.NewEmailJS(notify.Credentials{
		ServiceID:  cfg.Email.ServiceID,
		TemplateID: cfg.Email.TemplateID,
		PublicKey:  cfg.Email.PublicKey,
	}, cfg.Email.Endpoint, &http.Client{Timeout: cfg.Email.Timeout})
	if !cfg.EmailConfigured() {
		logger.Warn("EmailJS not configured; notifications will be skipped")
	}
	app.notifier = notify.NewDispatcher(app.emailjs, logger, cfg.Email.Timeout)
	app.closers = append(app.closers, app.notifier.Wait)

	engine := requests.NewEngine(app.store, app.events, logger)
	app.requests = requests.NewService(app.store, engine, app.notifier, app.events, logger)
	return nil
}

// openStore builds the configured backend. Remote backends sit in front of
// the JSON file store when fallback is enabled, and an unreachable remote
// degrades to the file store alone.
func (a *App) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.cfg
	file, err := store.NewFile(cfg.Store.DataDir)
	if err != nil {
		return nil, err
	}

	var remote store.Store
	switch cfg.Store.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "file":
		return file, nil
	case "mongo":
		client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return a.degrade(file, err)
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		remote = store.NewMongo(db.Collections(client, cfg.Mongo.Database))
	case "redis":
		if a.redis == nil {
			return a.degrade(file, fmt.Errorf("redis at %q is unreachable", cfg.Redis.Addr))
		}
		remote = store.NewRedis(a.redis)
	case "postgres":
		pool, err := db.ConnectPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return a.degrade(file, err)
		}
		a.closers = append(a.closers, pool.Close)
		pg, err := store.NewPostgres(ctx, pool)
		if err != nil {
			return a.degrade(file, err)
		}
		remote = pg
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	a.logger.Info("store ready", zap.String("backend", cfg.Store.Backend), zap.Bool("fallback", cfg.Store.Fallback))
	if cfg.Store.Fallback {
		return store.NewFallback(remote, file, a.logger), nil
	}
	return remote, nil
}

func (a *App) degrade(file store.Store, cause error) (store.Store, error) {
	if !a.cfg.Store.Fallback {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Backend, cause)
	}
	a.logger.Warn("store backend unavailable, using JSON files",
		zap.String("backend", a.cfg.Store.Backend), zap.String("dir", a.cfg.Store.DataDir), zap.Error(cause))
	return file, nil
}

// Close runs the closers in reverse: pending emails first, the logger last.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
