// Package sqlstore implements the terminology repository on a SQL database
// through bun. SQLite and PostgreSQL are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/service"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is a service.Repository backed by a bun database.
type Store struct {
	db          *bun.DB
	sources     *finder[sourceRecord, *tx.Source]
	collections *finder[collectionRecord, *tx.Collection]
}

// Open connects to dsn with driver ("sqlite3" or "postgres").
func Open(driver, dsn string) (*Store, error) {
	var dialect schema.Dialect
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite":
		driver, dialect = DriverSQLite, sqlitedialect.New()
	case DriverPostgres, "pg", "postgresql":
		driver, dialect = DriverPostgres, pgdialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// In-memory databases live per connection.
		sqlDB.SetMaxOpenConns(1)
	}
	return New(bun.NewDB(sqlDB, dialect)), nil
}

// New creates a store over an open bun database.
func New(db *bun.DB) *Store {
	return &Store{
		db: db,
		sources: &finder[sourceRecord, *tx.Source]{
			db:      db,
			convert: (*sourceRecord).toDomain,
		},
		collections: &finder[collectionRecord, *tx.Collection]{
			db: db,
			relate: func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Relation("References", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.OrderExpr("?TableAlias.id ASC")
				})
			},
			convert: (*collectionRecord).toDomain,
		},
	}
}

// DB returns the underlying database.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the tables and indexes if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, model := range models() {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("sqlstore: create table: %w", err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*sourceRecord)(nil), "sources_lookup_idx", []string{"mnemonic", "owner_type", "owner_id", "version"}},
		{(*sourceRecord)(nil), "sources_url_idx", []string{"canonical_url", "version"}},
		{(*collectionRecord)(nil), "collections_lookup_idx", []string{"mnemonic", "owner_type", "owner_id", "version"}},
		{(*collectionRecord)(nil), "collections_url_idx", []string{"canonical_url", "version"}},
		{(*referenceRecord)(nil), "collections_references_collection_idx", []string{"collection_id"}},
		{(*conceptRecord)(nil), "concepts_mnemonic_idx", []string{"mnemonic"}},
		{(*localizedTextRecord)(nil), "localized_texts_concept_idx", []string{"concept_id"}},
		{(*conceptsSourceRecord)(nil), "concepts_sources_source_idx", []string{"source_id", "concept_id"}},
	}
	for _, idx := range indexes {
		_, err := s.db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("sqlstore: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// Sources implements service.Repository.
func (s *Store) Sources() service.VersionFinder[*tx.Source] {
	return s.sources
}

// Collections implements service.Repository.
func (s *Store) Collections() service.VersionFinder[*tx.Collection] {
	return s.collections
}

// FindConceptVersions implements service.ConceptFinder.
func (s *Store) FindConceptVersions(ctx context.Context, sourceID int64, code string) ([]tx.ConceptsSource, error) {
	return s.FindConceptsSources(ctx, sourceID, []string{code})
}

// FindConceptsSources implements service.ConceptFinder.
func (s *Store) FindConceptsSources(ctx context.Context, sourceID int64, codes []string) ([]tx.ConceptsSource, error) {
	var links []conceptsSourceRecord
	q := s.db.NewSelect().
		Model(&links).
		Join("JOIN concepts AS c ON c.id = cs.concept_id").
		Where("cs.source_id = ?", sourceID).
		OrderExpr("cs.id ASC")
	if len(codes) > 0 {
		q = q.Where("c.mnemonic IN (?)", bun.In(codes))
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: select concepts_sources: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(links))
	seen := make(map[int64]bool, len(links))
	for _, l := range links {
		if !seen[l.ConceptID] {
			seen[l.ConceptID] = true
			ids = append(ids, l.ConceptID)
		}
	}
	concepts, err := s.loadConcepts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]tx.ConceptsSource, 0, len(links))
	for _, l := range links {
		out = append(out, tx.ConceptsSource{ID: l.ID, SourceID: l.SourceID, Concept: concepts[l.ConceptID]})
	}
	return out, nil
}

// loadConcepts loads concepts with their names and descriptions, keyed by ID.
func (s *Store) loadConcepts(ctx context.Context, ids []int64) (map[int64]*tx.Concept, error) {
	var rows []conceptRecord
	if err := s.db.NewSelect().Model(&rows).Where("c.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("sqlstore: select concepts: %w", err)
	}

	out := make(map[int64]*tx.Concept, len(rows))
	for _, r := range rows {
		out[r.ID] = &tx.Concept{
			ID:           r.ID,
			Mnemonic:     r.Mnemonic,
			ConceptClass: r.ConceptClass,
			Datatype:     r.Datatype,
			Active:       r.IsActive,
		}
	}

	var texts []localizedTextRecord
	err := s.db.NewSelect().
		Model(&texts).
		Where("lt.concept_id IN (?)", bun.In(ids)).
		OrderExpr("lt.concept_id ASC, lt.position ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: select localized_texts: %w", err)
	}
	for i := range texts {
		c, ok := out[texts[i].ConceptID]
		if !ok {
			continue
		}
		if texts[i].Kind == kindDescription {
			c.Descriptions = append(c.Descriptions, texts[i].toDomain())
		} else {
			c.Names = append(c.Names, texts[i].toDomain())
		}
	}
	return out, nil
}

// finder implements service.VersionFinder over one table. R is the record
// type and T the domain row it converts to.
type finder[R any, T service.Versioned] struct {
	db      *bun.DB
	relate  func(*bun.SelectQuery) *bun.SelectQuery
	convert func(*R) T
}

// selectQuery applies q to a select over dest. It returns false when q
// names neither a mnemonic nor a URL.
func (f *finder[R, T]) selectQuery(dest any, q service.Query) (*bun.SelectQuery, bool) {
	if q.Mnemonic == "" && q.URL == "" {
		return nil, false
	}
	sel := f.db.NewSelect().Model(dest)
	if f.relate != nil {
		sel = f.relate(sel)
	}
	if q.Owner != nil {
		sel = sel.Where("?TableAlias.owner_type = ?", string(q.Owner.Kind)).
			Where("?TableAlias.owner_id = ?", q.Owner.ID)
	}
	if q.Mnemonic != "" {
		sel = sel.Where("?TableAlias.mnemonic = ?", q.Mnemonic)
	}
	if q.URL != "" {
		sel = sel.Where("?TableAlias.canonical_url = ?", q.URL)
	}
	return sel, true
}

func (f *finder[R, T]) FindVersion(ctx context.Context, q service.Query, version string) (T, bool, error) {
	var (
		zero T
		rec  R
	)
	sel, ok := f.selectQuery(&rec, q)
	if !ok {
		return zero, false, nil
	}
	err := sel.Where("?TableAlias.version = ?", version).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("sqlstore: find version: %w", err)
	}
	return f.convert(&rec), true, nil
}

func (f *finder[R, T]) FindLatestReleased(ctx context.Context, q service.Query) (T, bool, error) {
	var (
		zero T
		rec  R
	)
	sel, ok := f.selectQuery(&rec, q)
	if !ok {
		return zero, false, nil
	}
	err := sel.Where("?TableAlias.released = ?", true).
		OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("sqlstore: find latest released: %w", err)
	}
	return f.convert(&rec), true, nil
}

func (f *finder[R, T]) FindAllVersions(ctx context.Context, q service.Query) ([]T, error) {
	var recs []R
	sel, ok := f.selectQuery(&recs, q)
	if !ok {
		return nil, nil
	}
	err := sel.OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlstore: find versions: %w", err)
	}
	out := make([]T, 0, len(recs))
	for i := range recs {
		out = append(out, f.convert(&recs[i]))
	}
	return out, nil
}

// Verify interface compliance
var _ service.Repository = (*Store)(nil)
