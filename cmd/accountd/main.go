package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	account "github.com/nightcatsama/go-account"
	"github.com/nightcatsama/go-account/config"
	"github.com/nightcatsama/go-account/mailer"
	"github.com/nightcatsama/go-account/metrics"
	"github.com/nightcatsama/go-account/persistence"
	"github.com/nightcatsama/go-account/storage/bunstore"
	"github.com/nightcatsama/go-account/storage/redis"
	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	logger    account.Logger
	db        *bun.DB
	repo      account.RepositoryManager
	metrics   *metrics.Metrics
	notifier  *account.AsyncNotifier
	lifecycle *account.Lifecycle
	storage   fiber.Storage
	sessions  *account.SessionStore
	srv       router.Server[*fiber.App]
}

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg.Redacted()))
		fmt.Println("============")
	}

	app := &App{
		config: cfg,
		logger: account.NewLogger(os.Stderr, cfg.LogLevel),
	}

	ctx := context.Background()

	steps := []func(context.Context, *App) error{
		WithPersistence,
		WithLifecycle,
		WithSessions,
		WithHTTPServer,
	}
	for _, step := range steps {
		if err := step(ctx, app); err != nil {
			app.logger.Error("startup: %v", err)
			app.Close()
			os.Exit(1)
		}
	}

	go func() {
		app.logger.Info("listening on %s", cfg.ListenAddr())
		if err := app.srv.Serve(cfg.ListenAddr()); err != nil {
			app.logger.Error("server: %v", err)
		}
	}()

	WaitExitSignal()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Warn("shutdown: %v", err)
	}
	app.Close()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := persistence.Open(ctx, persistence.Config{
		Driver: app.config.Database.Driver,
		DSN:    app.config.Database.DSN,
	})
	if err != nil {
		return err
	}
	app.db = db

	applied, err := persistence.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) > 0 {
		app.logger.Info("applied migrations %v", applied)
	}

	app.repo = account.NewRepositoryManager(db)
	return app.repo.Validate()
}

func WithLifecycle(_ context.Context, app *App) error {
	app.metrics = metrics.New(metrics.DefaultNamespace)

	sink := account.MultiActivitySink{
		account.LoggingActivitySink{Logger: app.logger},
		app.metrics,
	}

	var delivery account.Notifier
	if app.config.Mail.Host != "" {
		m, err := mailer.New(mailer.Config{
			Host:      app.config.Mail.Host,
			Port:      app.config.Mail.Port,
			Username:  app.config.Mail.Auth.User,
			Password:  app.config.Mail.Auth.Pass,
			From:      app.config.Mail.From,
			SiteName:  app.config.GetSiteName(),
			PublicURL: app.config.GetPublicURL(),
		})
		if err != nil {
			return err
		}
		delivery = m
	} else {
		app.logger.Warn("mail host not configured, activation emails are not delivered")
		delivery = account.NotifierFunc(func(_ context.Context, to, _, acc string) error {
			app.logger.Info("activation email skipped account=%s to=%s", acc, to)
			return nil
		})
	}

	app.notifier = account.NewAsyncNotifier(delivery,
		account.WithNotifierLogger(app.logger),
		account.WithNotifierActivitySink(sink),
	)

	app.lifecycle = account.NewLifecycle(app.config, app.repo,
		account.WithNotifier(app.notifier),
		account.WithActivitySink(sink),
		account.WithLogger(app.logger),
	)
	return nil
}

func WithSessions(_ context.Context, app *App) error {
	if addr := app.config.Redis.Addr; addr != "" {
		store, err := redis.New(redis.Config{
			Addr:     addr,
			Password: app.config.Redis.Password,
			DB:       app.config.Redis.DB,
		})
		if err != nil {
			return err
		}
		app.storage = store
		app.logger.Info("sessions stored in redis at %s", addr)
	} else {
		app.storage = bunstore.New(app.db)
		app.logger.Info("sessions stored in the %s database", app.config.Database.Driver)
	}

	app.sessions = account.NewSessionStore(account.SessionStoreConfig{
		CookieName:   app.config.GetSessionKey(),
		Expiration:   time.Duration(app.config.GetTokenExpiration()) * time.Hour,
		CookieSecure: app.config.Session.Secure,
		Secret:       app.config.GetSessionSecret(),
		Storage:      app.storage,
	})
	return nil
}

func WithHTTPServer(_ context.Context, app *App) error {
	app.srv = router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		f := router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:               app.config.GetSiteName(),
			DisableStartupMessage: !app.config.Debug,
			ReadTimeout:           15 * time.Second,
			WriteTimeout:          15 * time.Second,
		}))
		f.Use(app.metrics.Middleware())
		f.Get("/metrics", app.metrics.Handler())
		return f
	})

	controller := account.NewHTTPController(app.lifecycle, app.sessions,
		account.WithControllerLogger(app.logger),
		account.WithControllerDebug(app.config.Debug),
	)
	account.RegisterAccountRoutes(app.srv.Router().Group("/api"), controller)

	return nil
}

// Close waits for pending emails and releases resources
func (app *App) Close() {
	if app.notifier != nil {
		app.notifier.Wait()
	}
	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.Warn("close session storage: %v", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn("close database: %v", err)
		}
	}
}

func WaitExitSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}
