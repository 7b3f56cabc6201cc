// Package service defines the read-only repository contracts the engine
// consumes. Implementations live under store/.
package service

import (
	"context"
	"time"

	tx "github.com/gofhir/terminology"
)

// Query selects the rows of one source or collection across its versions.
// Exactly one of Mnemonic or URL is expected; Owner is optional.
type Query struct {
	Owner    *tx.Owner
	Mnemonic string
	URL      string
}

// Matches reports whether a row with the given owner, mnemonic and
// canonical URL satisfies q.
func (q Query) Matches(owner tx.Owner, mnemonic, url string) bool {
	if q.Owner != nil && *q.Owner != owner {
		return false
	}
	if q.Mnemonic != "" && q.Mnemonic != mnemonic {
		return false
	}
	if q.URL != "" && q.URL != url {
		return false
	}
	return q.Mnemonic != "" || q.URL != ""
}

// String renders q for messages, e.g. "org:OCL/CIEL".
func (q Query) String() string {
	name := q.Mnemonic
	if name == "" {
		name = q.URL
	}
	if q.Owner != nil {
		return q.Owner.String() + "/" + name
	}
	return name
}

// Versioned is a row that belongs to a version series.
type Versioned interface {
	VersionTag() string
	Created() time.Time
}

// --- Small Interfaces ---

// VersionFinder finds versions of a source or collection.
type VersionFinder[T Versioned] interface {
	// FindVersion returns the row with exactly the given version.
	FindVersion(ctx context.Context, q Query, version string) (T, bool, error)

	// FindLatestReleased returns the most recently created released row.
	FindLatestReleased(ctx context.Context, q Query) (T, bool, error)

	// FindAllVersions returns every row of q in any order, HEAD included.
	FindAllVersions(ctx context.Context, q Query) ([]T, error)
}

// ConceptFinder finds concept association rows within a source version.
type ConceptFinder interface {
	// FindConceptVersions returns every association row of code in the source.
	FindConceptVersions(ctx context.Context, sourceID int64, code string) ([]tx.ConceptsSource, error)

	// FindConceptsSources returns the association rows of the source whose
	// concept mnemonic is in codes, or all rows when codes is empty.
	FindConceptsSources(ctx context.Context, sourceID int64, codes []string) ([]tx.ConceptsSource, error)
}

// Repository combines the finders the engine needs.
type Repository interface {
	Sources() VersionFinder[*tx.Source]
	Collections() VersionFinder[*tx.Collection]
	ConceptFinder
}
