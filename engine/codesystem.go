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

// CodeSystem resolves the requested source version and lists its concepts.
func (e *Engine) CodeSystem(ctx context.Context, req CodeSystemRequest) (res *tx.CodeSystemResult, err error) {
	defer e.observe(tx.OpCodeSystemConcepts, time.Now(), &err)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	src, err := e.sources.Resolve(ctx, sourceQuery(req.Owner, req.URL, req.ID), req.Version)
	if err != nil {
		return nil, err
	}
	return e.CodeSystemConcepts(ctx, src)
}

// CodeSystemConcepts returns the current concept of every mnemonic in src,
// ordered by mnemonic.
func (e *Engine) CodeSystemConcepts(ctx context.Context, src *tx.Source) (*tx.CodeSystemResult, error) {
	rows, err := e.repo.FindConceptsSources(ctx, src.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("list concepts of %s/%s: %w", src.Mnemonic, src.Version, err)
	}

	current := concept.CurrentByMnemonic(rows)
	res := &tx.CodeSystemResult{
		Source:   src,
		Count:    concept.CountDistinct(rows),
		Concepts: make([]tx.CodeSystemConcept, 0, len(current)),
	}
	for _, row := range current {
		res.Concepts = append(res.Concepts, codeSystemConcept(src, row.Concept))
	}
	return res, nil
}

func codeSystemConcept(src *tx.Source, c *tx.Concept) tx.CodeSystemConcept {
	out := tx.CodeSystemConcept{
		Code:         c.Mnemonic,
		Designations: display.Designations(c.Names, ""),
	}
	out.Display, _ = display.Resolve(c.Names, "", src.DefaultLocale)
	out.Definition, _ = display.Definition(c.Descriptions, src.DefaultLocale)

	if c.ConceptClass != "" {
		out.Properties = append(out.Properties, tx.ConceptProperty{Code: tx.PropertyConceptClass, Value: c.ConceptClass})
	}
	if c.Datatype != "" {
		out.Properties = append(out.Properties, tx.ConceptProperty{Code: tx.PropertyDatatype, Value: c.Datatype})
	}
	inactive := !c.Active
	out.Properties = append(out.Properties, tx.ConceptProperty{Code: tx.PropertyInactive, Bool: &inactive})
	return out
}
