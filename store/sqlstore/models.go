package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	tx "github.com/gofhir/terminology"
)

// Localized text kinds.
const (
	kindName        = "name"
	kindDescription = "description"
)

type sourceRecord struct {
	bun.BaseModel `bun:"table:sources,alias:s"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Mnemonic      string    `bun:"mnemonic,notnull"`
	CanonicalURL  string    `bun:"canonical_url"`
	Version       string    `bun:"version,notnull"`
	Name          string    `bun:"name"`
	FullName      string    `bun:"full_name"`
	Description   string    `bun:"description"`
	DefaultLocale string    `bun:"default_locale"`
	OwnerType     string    `bun:"owner_type,notnull"`
	OwnerID       string    `bun:"owner_id,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
	Retired       bool      `bun:"retired,notnull"`
	Released      bool      `bun:"released,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

func newSourceRecord(s *tx.Source) *sourceRecord {
	return &sourceRecord{
		Mnemonic:      s.Mnemonic,
		CanonicalURL:  s.CanonicalURL,
		Version:       s.Version,
		Name:          s.Name,
		FullName:      s.FullName,
		Description:   s.Description,
		DefaultLocale: s.DefaultLocale,
		OwnerType:     string(s.Owner.Kind),
		OwnerID:       s.Owner.ID,
		IsActive:      s.Active,
		Retired:       s.Retired,
		Released:      s.Released,
		CreatedAt:     s.CreatedAt.UTC(),
	}
}

func (r *sourceRecord) toDomain() *tx.Source {
	return &tx.Source{
		ID:            r.ID,
		Mnemonic:      r.Mnemonic,
		CanonicalURL:  r.CanonicalURL,
		Version:       r.Version,
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   r.Description,
		DefaultLocale: r.DefaultLocale,
		Owner:         tx.Owner{Kind: tx.OwnerKind(r.OwnerType), ID: r.OwnerID},
		Active:        r.IsActive,
		Retired:       r.Retired,
		Released:      r.Released,
		CreatedAt:     r.CreatedAt,
	}
}

type collectionRecord struct {
	bun.BaseModel `bun:"table:collections,alias:col"`

	ID            int64     `bun:"id,pk,autoincrement"`
	Mnemonic      string    `bun:"mnemonic,notnull"`
	CanonicalURL  string    `bun:"canonical_url"`
	Version       string    `bun:"version,notnull"`
	Name          string    `bun:"name"`
	FullName      string    `bun:"full_name"`
	Description   string    `bun:"description"`
	DefaultLocale string    `bun:"default_locale"`
	OwnerType     string    `bun:"owner_type,notnull"`
	OwnerID       string    `bun:"owner_id,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
	Retired       bool      `bun:"retired,notnull"`
	Released      bool      `bun:"released,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`

	References []*referenceRecord `bun:"rel:has-many,join:id=collection_id"`
}

func newCollectionRecord(c *tx.Collection) *collectionRecord {
	return &collectionRecord{
		Mnemonic:      c.Mnemonic,
		CanonicalURL:  c.CanonicalURL,
		Version:       c.Version,
		Name:          c.Name,
		FullName:      c.FullName,
		Description:   c.Description,
		DefaultLocale: c.DefaultLocale,
		OwnerType:     string(c.Owner.Kind),
		OwnerID:       c.Owner.ID,
		IsActive:      c.Active,
		Retired:       c.Retired,
		Released:      c.Released,
		CreatedAt:     c.CreatedAt.UTC(),
	}
}

func (r *collectionRecord) toDomain() *tx.Collection {
	c := &tx.Collection{
		ID:            r.ID,
		Mnemonic:      r.Mnemonic,
		CanonicalURL:  r.CanonicalURL,
		Version:       r.Version,
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   r.Description,
		DefaultLocale: r.DefaultLocale,
		Owner:         tx.Owner{Kind: tx.OwnerKind(r.OwnerType), ID: r.OwnerID},
		Active:        r.IsActive,
		Retired:       r.Retired,
		Released:      r.Released,
		CreatedAt:     r.CreatedAt,
	}
	for _, ref := range r.References {
		c.References = append(c.References, tx.CollectionsReference{ID: ref.ID, Expression: ref.Expression})
	}
	return c
}

type referenceRecord struct {
	bun.BaseModel `bun:"table:collections_references,alias:cr"`

	ID           int64  `bun:"id,pk,autoincrement"`
	CollectionID int64  `bun:"collection_id,notnull"`
	Expression   string `bun:"expression,notnull"`
}

type conceptRecord struct {
	bun.BaseModel `bun:"table:concepts,alias:c"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Mnemonic     string `bun:"mnemonic,notnull"`
	ConceptClass string `bun:"concept_class"`
	Datatype     string `bun:"datatype"`
	IsActive     bool   `bun:"is_active,notnull"`
}

type localizedTextRecord struct {
	bun.BaseModel `bun:"table:localized_texts,alias:lt"`

	ID              int64  `bun:"id,pk,autoincrement"`
	ConceptID       int64  `bun:"concept_id,notnull"`
	Kind            string `bun:"kind,notnull"`
	Position        int    `bun:"position,notnull"`
	Name            string `bun:"name,notnull"`
	Locale          string `bun:"locale"`
	LocalePreferred bool   `bun:"locale_preferred,notnull"`
	Type            string `bun:"type"`
}

func (r *localizedTextRecord) toDomain() tx.LocalizedText {
	return tx.LocalizedText{
		ID:              r.ID,
		Name:            r.Name,
		Locale:          r.Locale,
		LocalePreferred: r.LocalePreferred,
		Type:            r.Type,
	}
}

type conceptsSourceRecord struct {
	bun.BaseModel `bun:"table:concepts_sources,alias:cs"`

	ID        int64 `bun:"id,pk,autoincrement"`
	ConceptID int64 `bun:"concept_id,notnull"`
	SourceID  int64 `bun:"source_id,notnull"`
}

// models lists every table in creation order.
func models() []any {
	return []any{
		(*sourceRecord)(nil),
		(*collectionRecord)(nil),
		(*referenceRecord)(nil),
		(*conceptRecord)(nil),
		(*localizedTextRecord)(nil),
		(*conceptsSourceRecord)(nil),
	}
}
