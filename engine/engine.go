// Package engine implements the terminology operations: $lookup,
// $validate-code (CodeSystem and ValueSet) and $expand.
//
// The engine is read-only and holds no mutable state. Every call queries the
// repository afresh; caching, if wanted, is a repository decorator.
package engine

import (
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/resolve"
	"github.com/gofhir/terminology/service"
)

// Engine answers terminology operations over a repository.
type Engine struct {
	repo        service.Repository
	sources     *resolve.Resolver[*tx.Source]
	collections *resolve.Resolver[*tx.Collection]
	options     *tx.Options
}

// New creates an Engine over repo with the given options.
func New(repo service.Repository, opts ...tx.Option) *Engine {
	return &Engine{
		repo:        repo,
		sources:     resolve.Sources(repo),
		collections: resolve.Collections(repo),
		options:     tx.Apply(opts...),
	}
}

// Options returns the engine options.
func (e *Engine) Options() *tx.Options {
	return e.options
}

// Sources returns the source resolver.
func (e *Engine) Sources() *resolve.Resolver[*tx.Source] {
	return e.sources
}

// Collections returns the collection resolver.
func (e *Engine) Collections() *resolve.Resolver[*tx.Collection] {
	return e.collections
}

func sourceQuery(owner *tx.Owner, url, id string) service.Query {
	return service.Query{Owner: owner, URL: url, Mnemonic: id}
}

// observe records the outcome of an operation started at start.
func (e *Engine) observe(op string, start time.Time, err *error) {
	e.options.Metrics.RecordOperation(op, time.Since(start), *err)
}
