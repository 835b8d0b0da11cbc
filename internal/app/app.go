// Package app builds the client from its configuration: logger, HTTP
// transport, credential store, SDK client and the services on top.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/profilesync/internal/auth"
	"github.com/aussiebroadwan/profilesync/internal/credstore"
	"github.com/aussiebroadwan/profilesync/internal/credstore/drivers/memory"
	"github.com/aussiebroadwan/profilesync/internal/credstore/drivers/sqlite"
	"github.com/aussiebroadwan/profilesync/internal/profile"
	"github.com/aussiebroadwan/profilesync/pkg/cryptox"
	"github.com/aussiebroadwan/profilesync/pkg/httpx"
	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
	"github.com/aussiebroadwan/profilesync/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application holds the wired client.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  credstore.Store
	client *profilesdk.SDKClient
	auth   *auth.Service
}

// Option customizes New.
type Option func(*options)

type options struct {
	logWriter io.Writer
	transport http.RoundTripper
}

// WithLogWriter sends logs to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithTransport replaces http.DefaultTransport as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New creates an Application with all dependencies initialized.
func New(cfg Config, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "profilectl",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Writer:  o.logWriter,
		}),
	}

	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	app.store = store

	app.client = profilesdk.NewSDKClient(cfg.APIOrigin())
	app.client.HTTPClient = &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: app.transport(o.transport),
	}

	app.auth = &auth.Service{
		Client: app.client,
		Store:  app.store,
		Logger: app.logger,
	}

	app.logger.Debug("client initialized", "api", cfg.APIOrigin(), "store", cfg.Store.Driver)
	return app, nil
}

// Close releases the credential store.
func (app *Application) Close() error {
	return app.store.Close()
}

func (app *Application) Config() Config         { return app.cfg }
func (app *Application) Logger() *slog.Logger   { return app.logger }
func (app *Application) Auth() *auth.Service    { return app.auth }
func (app *Application) Store() credstore.Store { return app.store }

// Context returns ctx carrying the application logger.
func (app *Application) Context(ctx context.Context) context.Context {
	return slogx.WithContext(ctx, app.logger)
}

// ProfileGateway builds a fresh profile view: an empty draft, a status that
// reports changes to onStatus, and a gateway over the stored session.
func (app *Application) ProfileGateway(onStatus func(string)) *profile.Gateway {
	status := profile.NewStatus(
		profile.WithDelay(app.cfg.Status.Delay),
		profile.WithOnChange(onStatus),
	)
	return profile.NewGateway(app.auth.Session(), profile.NewHolder(), status, app.logger)
}

// Resolver resolves picture references against the configured API.
func (app *Application) Resolver() profile.Resolver {
	return profile.Resolver{Origin: app.cfg.APIOrigin()}
}

// transport logs each request, then applies the client side rate limit.
func (app *Application) transport(base http.RoundTripper) http.RoundTripper {
	wrappers := []httpx.Wrapper{
		func(rt http.RoundTripper) http.RoundTripper { return slogx.NewTransport(rt, app.logger) },
	}

	limit := httpx.RateLimitConfig{
		RequestsPerWindow: app.cfg.API.RateLimit,
		Window:            time.Second,
		Burst:             app.cfg.API.Burst,
	}
	if limit.Enabled() {
		wrappers = append(wrappers, func(rt http.RoundTripper) http.RoundTripper {
			return httpx.NewRateLimitTransport(rt, limit)
		})
	}

	return httpx.Chain(base, wrappers...)
}

// openStore opens the configured credential store, applying migrations for
// sqlite.
func (app *Application) openStore() (credstore.Store, error) {
	switch app.cfg.Store.Driver {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
	default:
		return nil, fmt.Errorf("unknown store driver %q", app.cfg.Store.Driver)
	}

	if err := os.MkdirAll(filepath.Dir(app.cfg.Store.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	key, err := cryptox.LoadMasterKey(app.cfg.Store.MasterKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}

	sealer, err := cryptox.NewSealer(key)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", app.cfg.Store.Path)
	db, err := sqlite.NewStore(dsn, sealer)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply credential store migrations: %w", err)
	}

	app.logger.Debug("credential store ready", "path", app.cfg.Store.Path)
	return db, nil
}
