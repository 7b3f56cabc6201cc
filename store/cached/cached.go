// Package cached decorates a repository with in-process caching.
//
// Version lookups are cached in a sharded TTL map and concept rows in a
// bounded LRU. Errors are never cached. The data behind a repository is
// assumed immutable for the lifetime of the cache; call Clear after an
// import.
package cached

import (
	"context"
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/cache"
	"github.com/gofhir/terminology/service"
)

// Cache kinds reported to metrics.
const (
	KindSource     = "source"
	KindCollection = "collection"
	KindConcept    = "concept"
)

// Config configures a cached repository.
type Config struct {
	// Size bounds the number of cached concept lookups.
	Size int

	// TTL bounds the age of every cached entry.
	TTL time.Duration

	// ShardCount is the number of shards of the version caches.
	ShardCount int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Size:       10000,
		TTL:        cache.DefaultTTL,
		ShardCount: cache.DefaultShardCount,
	}
}

// Repository wraps a service.Repository with caching.
type Repository struct {
	inner       service.Repository
	sources     *versionFinder[*tx.Source]
	collections *versionFinder[*tx.Collection]
	concepts    *cache.Cache[conceptKey, []tx.ConceptsSource]
	metrics     *tx.Metrics
}

type conceptKey struct {
	sourceID int64
	code     string
	all      bool
}

// New wraps inner. metrics may be nil.
func New(inner service.Repository, cfg Config, metrics *tx.Metrics) *Repository {
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	shardCfg := cache.ShardedConfig{ShardCount: cfg.ShardCount, TTL: cfg.TTL}

	return &Repository{
		inner:       inner,
		sources:     newVersionFinder(inner.Sources(), KindSource, shardCfg, metrics),
		collections: newVersionFinder(inner.Collections(), KindCollection, shardCfg, metrics),
		concepts:    cache.New[conceptKey, []tx.ConceptsSource](cfg.Size, cache.WithTTL(cfg.TTL)),
		metrics:     metrics,
	}
}

// Inner returns the wrapped repository.
func (r *Repository) Inner() service.Repository {
	return r.inner
}

// Sources implements service.Repository.
func (r *Repository) Sources() service.VersionFinder[*tx.Source] {
	return r.sources
}

// Collections implements service.Repository.
func (r *Repository) Collections() service.VersionFinder[*tx.Collection] {
	return r.collections
}

// FindConceptVersions implements service.ConceptFinder with caching.
func (r *Repository) FindConceptVersions(ctx context.Context, sourceID int64, code string) ([]tx.ConceptsSource, error) {
	key := conceptKey{sourceID: sourceID, code: code}
	if rows, ok := r.concepts.Get(key); ok {
		r.metrics.RecordCacheHit(KindConcept)
		return rows, nil
	}
	r.metrics.RecordCacheMiss(KindConcept)

	rows, err := r.inner.FindConceptVersions(ctx, sourceID, code)
	if err != nil {
		return nil, err
	}
	r.concepts.Set(key, rows)
	return rows, nil
}

// FindConceptsSources implements service.ConceptFinder. Only full listings
// are cached.
func (r *Repository) FindConceptsSources(ctx context.Context, sourceID int64, codes []string) ([]tx.ConceptsSource, error) {
	if len(codes) > 0 {
		return r.inner.FindConceptsSources(ctx, sourceID, codes)
	}

	key := conceptKey{sourceID: sourceID, all: true}
	if rows, ok := r.concepts.Get(key); ok {
		r.metrics.RecordCacheHit(KindConcept)
		return rows, nil
	}
	r.metrics.RecordCacheMiss(KindConcept)

	rows, err := r.inner.FindConceptsSources(ctx, sourceID, nil)
	if err != nil {
		return nil, err
	}
	r.concepts.Set(key, rows)
	return rows, nil
}

// Clear drops every cached entry.
func (r *Repository) Clear() {
	r.sources.clear()
	r.collections.clear()
	r.concepts.Clear()
}

// Stats returns the concept cache statistics.
func (r *Repository) Stats() cache.Stats {
	return r.concepts.Stats()
}

// versionFinder caches a service.VersionFinder.
type versionFinder[T service.Versioned] struct {
	inner   service.VersionFinder[T]
	kind    string
	rows    *cache.Sharded[found[T]]
	all     *cache.Sharded[[]T]
	metrics *tx.Metrics
}

type found[T any] struct {
	row T
	ok  bool
}

func newVersionFinder[T service.Versioned](inner service.VersionFinder[T], kind string, cfg cache.ShardedConfig, metrics *tx.Metrics) *versionFinder[T] {
	return &versionFinder[T]{
		inner:   inner,
		kind:    kind,
		rows:    cache.NewSharded[found[T]](cfg),
		all:     cache.NewSharded[[]T](cfg),
		metrics: metrics,
	}
}

func queryKey(op string, q service.Query, extra string) string {
	owner := ""
	if q.Owner != nil {
		owner = q.Owner.String()
	}
	return cache.Key(op, owner, q.Mnemonic, q.URL, extra)
}

func (f *versionFinder[T]) FindVersion(ctx context.Context, q service.Query, version string) (T, bool, error) {
	return f.lookup(queryKey("version", q, version), func() (T, bool, error) {
		return f.inner.FindVersion(ctx, q, version)
	})
}

func (f *versionFinder[T]) FindLatestReleased(ctx context.Context, q service.Query) (T, bool, error) {
	return f.lookup(queryKey("latest", q, ""), func() (T, bool, error) {
		return f.inner.FindLatestReleased(ctx, q)
	})
}

func (f *versionFinder[T]) FindAllVersions(ctx context.Context, q service.Query) ([]T, error) {
	key := queryKey("all", q, "")
	if rows, ok := f.all.Get(key); ok {
		f.metrics.RecordCacheHit(f.kind)
		return rows, nil
	}
	f.metrics.RecordCacheMiss(f.kind)

	rows, err := f.inner.FindAllVersions(ctx, q)
	if err != nil {
		return nil, err
	}
	f.all.Set(key, rows)
	return rows, nil
}

func (f *versionFinder[T]) lookup(key string, load func() (T, bool, error)) (T, bool, error) {
	if hit, ok := f.rows.Get(key); ok {
		f.metrics.RecordCacheHit(f.kind)
		return hit.row, hit.ok, nil
	}
	f.metrics.RecordCacheMiss(f.kind)

	row, ok, err := load()
	if err != nil {
		var zero T
		return zero, false, err
	}
	f.rows.Set(key, found[T]{row: row, ok: ok})
	return row, ok, nil
}

func (f *versionFinder[T]) clear() {
	f.rows.Clear()
	f.all.Clear()
}

// Verify interface compliance
var _ service.Repository = (*Repository)(nil)
