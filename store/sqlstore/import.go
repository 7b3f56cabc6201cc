package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.uber.org/zap"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/pkg/logger"
	"github.com/gofhir/terminology/store/fixture"
)

// Import writes ds in a single transaction. Concepts that carry an ID keep
// it, so source versions listing the same ID share one concept row; other
// concepts are numbered after the highest ID already stored.
func (s *Store) Import(ctx context.Context, ds *fixture.Dataset) (fixture.LoadStats, error) {
	start := time.Now()
	var stats fixture.LoadStats

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, db bun.Tx) error {
		imp := &importer{db: db, stored: make(map[int64]bool)}
		if err := imp.init(ctx); err != nil {
			return err
		}

		for _, fs := range ds.Sources {
			src, err := imp.source(ctx, fs.Model())
			if err != nil {
				return err
			}
			stats.SourcesLoaded++
			for _, fc := range fs.Concepts {
				if err := imp.concept(ctx, src.ID, fc.Model()); err != nil {
					return err
				}
				stats.ConceptsLoaded++
			}
		}
		for _, fc := range ds.Collections {
			if err := imp.collection(ctx, fc.Model()); err != nil {
				return err
			}
			stats.CollectionsLoaded++
		}
		return imp.syncSequence(ctx)
	})
	if err != nil {
		return fixture.LoadStats{}, fmt.Errorf("sqlstore: import: %w", err)
	}

	logger.Info("dataset imported",
		zap.Int64("sources", stats.SourcesLoaded),
		zap.Int64("concepts", stats.ConceptsLoaded),
		zap.Int64("collections", stats.CollectionsLoaded),
		zap.Duration("duration", time.Since(start)),
	)
	return stats, nil
}

type importer struct {
	db     bun.Tx
	nextID int64
	stored map[int64]bool
}

func (imp *importer) init(ctx context.Context) error {
	var maxID int64
	err := imp.db.NewSelect().
		Model((*conceptRecord)(nil)).
		ColumnExpr("COALESCE(MAX(?TableAlias.id), 0)").
		Scan(ctx, &maxID)
	if err != nil {
		return fmt.Errorf("read max concept id: %w", err)
	}
	imp.nextID = maxID
	return nil
}

func (imp *importer) source(ctx context.Context, src *tx.Source) (*sourceRecord, error) {
	rec := newSourceRecord(src)
	if _, err := imp.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert source %s/%s: %w", src.Mnemonic, src.Version, err)
	}
	return rec, nil
}

func (imp *importer) concept(ctx context.Context, sourceID int64, c *tx.Concept) error {
	if c.ID == 0 {
		imp.nextID++
		c.ID = imp.nextID
	} else if c.ID > imp.nextID {
		imp.nextID = c.ID
	}

	if !imp.stored[c.ID] {
		exists, err := imp.db.NewSelect().Model((*conceptRecord)(nil)).Where("?TableAlias.id = ?", c.ID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check concept %d: %w", c.ID, err)
		}
		if !exists {
			if err := imp.insertConcept(ctx, c); err != nil {
				return err
			}
		}
		imp.stored[c.ID] = true
	}

	link := &conceptsSourceRecord{ConceptID: c.ID, SourceID: sourceID}
	if _, err := imp.db.NewInsert().Model(link).Exec(ctx); err != nil {
		return fmt.Errorf("link concept %s: %w", c.Mnemonic, err)
	}
	return nil
}

func (imp *importer) insertConcept(ctx context.Context, c *tx.Concept) error {
	rec := &conceptRecord{
		ID:           c.ID,
		Mnemonic:     c.Mnemonic,
		ConceptClass: c.ConceptClass,
		Datatype:     c.Datatype,
		IsActive:     c.Active,
	}
	if _, err := imp.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("insert concept %s: %w", c.Mnemonic, err)
	}

	texts := make([]localizedTextRecord, 0, len(c.Names)+len(c.Descriptions))
	texts = appendTexts(texts, c.ID, kindName, c.Names)
	texts = appendTexts(texts, c.ID, kindDescription, c.Descriptions)
	if len(texts) == 0 {
		return nil
	}
	if _, err := imp.db.NewInsert().Model(&texts).Exec(ctx); err != nil {
		return fmt.Errorf("insert texts of concept %s: %w", c.Mnemonic, err)
	}
	return nil
}

func appendTexts(dst []localizedTextRecord, conceptID int64, kind string, texts []tx.LocalizedText) []localizedTextRecord {
	for i, t := range texts {
		dst = append(dst, localizedTextRecord{
			ConceptID:       conceptID,
			Kind:            kind,
			Position:        i,
			Name:            t.Name,
			Locale:          t.Locale,
			LocalePreferred: t.LocalePreferred,
			Type:            t.Type,
		})
	}
	return dst
}

func (imp *importer) collection(ctx context.Context, col *tx.Collection) error {
	rec := newCollectionRecord(col)
	if _, err := imp.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return fmt.Errorf("insert collection %s/%s: %w", col.Mnemonic, col.Version, err)
	}
	if len(col.References) == 0 {
		return nil
	}

	refs := make([]referenceRecord, len(col.References))
	for i, ref := range col.References {
		refs[i] = referenceRecord{CollectionID: rec.ID, Expression: ref.Expression}
	}
	if _, err := imp.db.NewInsert().Model(&refs).Exec(ctx); err != nil {
		return fmt.Errorf("insert references of %s/%s: %w", col.Mnemonic, col.Version, err)
	}
	return nil
}

// syncSequence moves the PostgreSQL concept sequence past the IDs written
// explicitly.
func (imp *importer) syncSequence(ctx context.Context) error {
	if imp.db.Dialect().Name() != dialect.PG || imp.nextID == 0 {
		return nil
	}
	_, err := imp.db.NewRaw("SELECT setval(pg_get_serial_sequence('concepts', 'id'), ?)", imp.nextID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("sync concept sequence: %w", err)
	}
	return nil
}
