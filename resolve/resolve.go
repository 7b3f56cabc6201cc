// Package resolve selects a source or collection version for a request.
//
// Precedence, each step falling through only on an empty result:
//
//  1. an exact version
//  2. "*": every version except HEAD, oldest first
//  3. no version: the most recently created released version
//
// A HEAD row is only returned when HEAD was asked for by name.
package resolve

import (
	"context"
	"fmt"
	"sort"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/reference"
	"github.com/gofhir/terminology/service"
)

// Resolver resolves versions of one kind of row.
type Resolver[T service.Versioned] struct {
	finder service.VersionFinder[T]
	kind   string
}

// New creates a resolver over finder. kind names the rows in error
// messages, e.g. "source".
func New[T service.Versioned](finder service.VersionFinder[T], kind string) *Resolver[T] {
	return &Resolver[T]{finder: finder, kind: kind}
}

// Sources creates a source resolver over repo.
func Sources(repo service.Repository) *Resolver[*tx.Source] {
	return New(repo.Sources(), "source")
}

// Collections creates a collection resolver over repo.
func Collections(repo service.Repository) *Resolver[*tx.Collection] {
	return New(repo.Collections(), "collection")
}

// Resolve returns the single row selected by version. For "*" it returns
// the most recently created non-HEAD version.
func (r *Resolver[T]) Resolve(ctx context.Context, q service.Query, version string) (T, error) {
	var zero T

	switch version {
	case tx.VersionAll:
		all, err := r.ResolveAll(ctx, q)
		if err != nil {
			return zero, err
		}
		return all[len(all)-1], nil

	case "":
		row, found, err := r.finder.FindLatestReleased(ctx, q)
		if err != nil {
			return zero, fmt.Errorf("find latest released %s %s: %w", r.kind, q, err)
		}
		if !found || tx.IsHead(row.VersionTag()) {
			return zero, tx.NotFound("%s %s has no released version", r.kind, q)
		}
		return row, nil

	default:
		return r.Exact(ctx, q, version)
	}
}

// Exact returns the row with exactly the given version.
func (r *Resolver[T]) Exact(ctx context.Context, q service.Query, version string) (T, error) {
	var zero T
	row, found, err := r.finder.FindVersion(ctx, q, version)
	if err != nil {
		return zero, fmt.Errorf("find %s %s version %q: %w", r.kind, q, version, err)
	}
	if !found || (tx.IsHead(row.VersionTag()) && !tx.IsHead(version)) {
		return zero, tx.NotFound("%s %s version %q not found", r.kind, q, version)
	}
	return row, nil
}

// ResolveAll returns every version except HEAD ordered by creation time,
// oldest first.
func (r *Resolver[T]) ResolveAll(ctx context.Context, q service.Query) ([]T, error) {
	rows, err := r.finder.FindAllVersions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find versions of %s %s: %w", r.kind, q, err)
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if !tx.IsHead(row.VersionTag()) {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return nil, tx.NotFound("%s %s has no versions", r.kind, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created().Before(out[j].Created())
	})
	return out, nil
}

// HeadOrLatest returns the HEAD row, or the most recently created released
// row when no HEAD exists.
func (r *Resolver[T]) HeadOrLatest(ctx context.Context, q service.Query) (T, error) {
	var zero T
	row, found, err := r.finder.FindVersion(ctx, q, tx.VersionHead)
	if err != nil {
		return zero, fmt.Errorf("find %s %s version %q: %w", r.kind, q, tx.VersionHead, err)
	}
	if found {
		return row, nil
	}
	return r.Resolve(ctx, q, "")
}

// ReferenceSource resolves the source a reference expression points to:
// its embedded version when present, otherwise HEAD or the latest release.
func ReferenceSource(ctx context.Context, sources *Resolver[*tx.Source], ref reference.Reference) (*tx.Source, error) {
	owner := ref.Owner
	q := service.Query{Owner: &owner, Mnemonic: ref.Source}
	if ref.HasVersion() {
		return sources.Exact(ctx, q, ref.Version)
	}
	return sources.HeadOrLatest(ctx, q)
}
