package bootstrap

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"guka/app/internal/data/database"
	"guka/app/internal/data/migrations"
	datapassage "guka/app/internal/data/passage"
	domainpassage "guka/app/internal/domain/passage"
	"guka/app/internal/platform/config"
	presentationhttp "guka/app/internal/presentation/http"
)

// StoreOptions configures OpenStore.
type StoreOptions struct {
	DBPath   string
	CacheTTL time.Duration
	Logger   *logrus.Logger
}

// Store bundles an open, migrated database and the passage repository reading from it.
type Store struct {
	Database   *gorm.DB
	Repository domainpassage.Repository
}

// Ping checks that the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.Database)
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return database.Close(s.Database)
}

// OpenStore opens the database, applies migrations and builds the passage repository. A positive
// CacheTTL wraps the repository with the read cache.
func OpenStore(ctx context.Context, opts StoreOptions) (*Store, error) {
	db, err := database.Open(database.Options{Path: opts.DBPath, Logger: opts.Logger})
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (*Store, error) {
		if closeErr := database.Close(db); closeErr != nil && opts.Logger != nil {
			opts.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return nil, wrapper
	}

	if err := migrations.MigratePassages(ctx, db, opts.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running passage migrations"))
	}

	repo, err := datapassage.NewRepository(db, opts.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating passage repository"))
	}

	store := &Store{Database: db, Repository: repo}

	if opts.CacheTTL > 0 {
		cached, err := datapassage.NewCachedRepository(repo, opts.CacheTTL)
		if err != nil {
			return closeOnError(eris.Wrap(err, "creating passage cache"))
		}
		store.Repository = cached
	}

	return store, nil
}

// Dependencies carries the ambient services shared by every component.
type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

// Result holds the constructed application components.
type Result struct {
	PassageService domainpassage.Service
	HTTPServer     *presentationhttp.Server
	Store          *Store
	Cleanup        func() error
}

// Build composes the catalog layers for the HTTP server.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	store, err := OpenStore(ctx, StoreOptions{
		DBPath:   deps.Config.DBPath,
		CacheTTL: deps.Config.CacheTTL,
		Logger:   deps.Logger,
	})
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := store.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	service, err := domainpassage.NewService(store.Repository, deps.Logger, deps.SentryHub)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating passage service"))
	}

	httpServer, err := presentationhttp.NewServer(presentationhttp.Options{
		PassageService: service,
		HealthCheck:    store.Ping,
		Logger:         deps.Logger,
		SentryHub:      deps.SentryHub,
		RateLimiter: presentationhttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimit.Burst,
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return store.Close()
	}

	return Result{
		PassageService: service,
		HTTPServer:     httpServer,
		Store:          store,
		Cleanup:        cleanup,
	}, nil
}
