package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/config"
	"github.com/gofhir/terminology/engine"
	"github.com/gofhir/terminology/pkg/logger"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/store/cached"
	"github.com/gofhir/terminology/store/memory"
)

// newForTest builds an App over repo logging to w.
func newForTest(repo service.Repository, w io.Writer, opts ...tx.Option) *App {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	m := tx.NewMetrics(cfg.Metrics.Namespace)
	return &App{
		Config:  cfg,
		Logger:  logger.New(w, logger.LevelDebug),
		Metrics: m,
		Repo:    repo,
		Engine:  engine.New(repo, append([]tx.Option{tx.WithMetrics(m)}, opts...)...),
	}
}

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.Database.Fixture = filepath.Join("..", "..", "testdata", "ocl.json")
	cfg.Log.Level = "error"
	return cfg
}

func TestNew_Memory(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.SQL())
	assert.IsType(t, &memory.Store{}, a.Repo)

	res, err := a.Engine.Lookup(context.Background(), engine.LookupRequest{
		System: "http://ocl.org/CodeSystem/CIEL",
		Code:   "1226",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anaemia", res.Display)
}

func TestNew_Cached(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.Enabled = true

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.IsType(t, &cached.Repository{}, a.Repo)
	res, err := a.Engine.Expand(context.Background(), engine.ExpandRequest{URL: "http://ocl.org/ValueSet/vitals"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

func TestNew_SQLite(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "tx.db") + "?_foreign_keys=on"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, a.SQL())

	res, err := a.Engine.ValidateCode(context.Background(), engine.ValidateCodeRequest{
		URL:     "http://ocl.org/CodeSystem/CIEL",
		Code:    "5089",
		Display: "Weight (kg)",
	})
	require.NoError(t, err)
	assert.True(t, res.Result)
	assert.NoError(t, a.Close())
}

func TestNew_Errors(t *testing.T) {
	cfg := memoryConfig()
	cfg.Log.Level = "loud"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Database.Fixture = filepath.Join("testdata", "missing.json")
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.Database.Driver = "oracle"
	cfg.Database.DSN = "x"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRun_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	a := newForTest(memory.New(), &buf)
	ctx := context.Background()

	require.NoError(t, a.Run(ctx, tx.OpLookup, func(context.Context) error { return nil }))
	assert.Contains(t, buf.String(), "operation completed")
	assert.Contains(t, buf.String(), "request_id")

	buf.Reset()
	err := a.Run(ctx, tx.OpLookup, func(context.Context) error { return tx.NotFound("no such code") })
	assert.True(t, tx.IsNotFound(err))
	assert.Contains(t, buf.String(), "operation rejected")
	assert.Contains(t, buf.String(), "404")

	buf.Reset()
	boom := errors.New("boom")
	err = a.Run(ctx, tx.OpExpand, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "operation failed")
}

func TestRun_PassesEngine(t *testing.T) {
	var buf bytes.Buffer
	a := newForTest(memory.New(), &buf, tx.WithDefaultPageSize(5))
	assert.Equal(t, 5, a.Engine.Options().DefaultPageSize)
	assert.Same(t, a.Metrics, a.Engine.Options().Metrics)
}
