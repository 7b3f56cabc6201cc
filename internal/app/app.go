// Package app wires configuration, logging, metrics, the repository and the
// engine into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/config"
	"github.com/gofhir/terminology/engine"
	"github.com/gofhir/terminology/pkg/logger"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/store/cached"
	"github.com/gofhir/terminology/store/fixture"
	"github.com/gofhir/terminology/store/memory"
	"github.com/gofhir/terminology/store/sqlstore"
)

// App is a configured terminology service.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *tx.Metrics
	Repo    service.Repository
	Engine  *engine.Engine

	sql *sqlstore.Store
}

// New builds an App from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log, err := logger.NewZap(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: tx.NewMetrics(cfg.Metrics.Namespace),
	}

	repo, err := a.openRepository(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.Cache.Enabled {
		repo = cached.New(repo, cached.Config{
			Size:       cfg.Cache.Size,
			TTL:        cfg.Cache.TTL,
			ShardCount: cfg.Cache.ShardCount,
		}, a.Metrics)
	}
	a.Repo = repo
	a.Engine = engine.New(repo, cfg.EngineOptions(a.Metrics)...)

	log.Info("terminology service ready",
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Int("page_size", cfg.Engine.PageSize),
		zap.Int("workers", cfg.Engine.Workers),
	)
	return a, nil
}

func (a *App) openRepository(ctx context.Context) (service.Repository, error) {
	db := a.Config.Database

	var ds *fixture.Dataset
	if db.Fixture != "" {
		var err error
		if ds, err = fixture.ReadFile(db.Fixture); err != nil {
			return nil, err
		}
	}

	if db.Driver == "memory" {
		s := memory.New()
		if ds != nil {
			stats := s.Load(ds)
			a.Logger.Info("fixture loaded",
				zap.String("path", db.Fixture),
				zap.Int64("sources", stats.SourcesLoaded),
				zap.Int64("concepts", stats.ConceptsLoaded),
				zap.Int64("collections", stats.CollectionsLoaded),
			)
		}
		return s, nil
	}

	s, err := sqlstore.Open(db.Driver, db.DSN)
	if err != nil {
		return nil, err
	}
	a.sql = s
	if err := s.CreateSchema(ctx); err != nil {
		return nil, err
	}
	if ds != nil {
		if _, err := s.Import(ctx, ds); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SQL returns the SQL store, or nil for the in-memory backend.
func (a *App) SQL() *sqlstore.Store {
	return a.sql
}

// Run executes one operation under a fresh request id and logs its outcome.
func (a *App) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	log := a.Logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("operation", op),
	)
	start := time.Now()
	err := fn(ctx)

	fields := []zap.Field{
		zap.String("outcome", tx.Outcome(err)),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case err == nil:
		log.Debug("operation completed", fields...)
	case tx.IsBadRequest(err) || tx.IsNotFound(err):
		log.Info("operation rejected", append(fields, zap.Int("status", tx.StatusCode(err)), zap.Error(err))...)
	default:
		log.Error("operation failed", append(fields, zap.Error(err))...)
	}
	return err
}

// Close releases the database and flushes the logger.
func (a *App) Close() error {
	var err error
	if a.sql != nil {
		if cerr := a.sql.Close(); cerr != nil {
			err = fmt.Errorf("close database: %w", cerr)
		}
	}
	_ = a.Logger.Sync()
	return err
}
