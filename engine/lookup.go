package engine

import (
	"context"
	"fmt"
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/concept"
	"github.com/gofhir/terminology/display"
	"github.com/gofhir/terminology/internal/validate"
)

// Lookup resolves the requested source and looks up a code in it.
func (e *Engine) Lookup(ctx context.Context, req LookupRequest) (res *tx.LookupResult, err error) {
	defer e.observe(tx.OpLookup, time.Now(), &err)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	src, err := e.sources.Resolve(ctx, sourceQuery(req.Owner, req.System, req.ID), req.Version)
	if err != nil {
		return nil, err
	}
	return e.LookupConcept(ctx, src, req.Code, req.DisplayLanguage)
}

// LookupConcept looks up code in src. It fails with not-found when the
// source has no row for code.
func (e *Engine) LookupConcept(ctx context.Context, src *tx.Source, code, displayLanguage string) (*tx.LookupResult, error) {
	current, err := e.currentConcept(ctx, src, code)
	if err != nil {
		return nil, err
	}

	names := current.Concept.Names
	res := &tx.LookupResult{
		Name:         src.Name,
		Version:      src.Version,
		Designations: display.Designations(names, displayLanguage),
	}
	if d, ok := display.Resolve(names, displayLanguage, src.DefaultLocale); ok {
		res.Display = d
	}
	return res, nil
}

// currentConcept returns the current row of code in src, or not-found.
func (e *Engine) currentConcept(ctx context.Context, src *tx.Source, code string) (tx.ConceptsSource, error) {
	rows, err := e.repo.FindConceptVersions(ctx, src.ID, code)
	if err != nil {
		return tx.ConceptsSource{}, fmt.Errorf("find concept %q in %s/%s: %w", code, src.Mnemonic, src.Version, err)
	}
	current, ok := concept.Current(rows)
	if !ok {
		return tx.ConceptsSource{}, tx.NotFound("concept %q not found in %s version %q", code, src.Mnemonic, src.Version)
	}
	return current, nil
}
