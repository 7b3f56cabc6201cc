package fhirconv

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofhir/fhir/r4"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/display"
	"github.com/gofhir/terminology/store/fixture"
)

// SourceOptions describes the source version a CodeSystem is imported as.
type SourceOptions struct {
	Owner     tx.Owner
	Mnemonic  string // defaults to the CodeSystem id, then its name
	Version   string // defaults to the CodeSystem version, then HEAD
	Released  bool
	CreatedAt time.Time
}

// ReadCodeSystem decodes a CodeSystem resource.
func ReadCodeSystem(r io.Reader) (*r4.CodeSystem, error) {
	var cs r4.CodeSystem
	if err := json.NewDecoder(r).Decode(&cs); err != nil {
		return nil, fmt.Errorf("decode CodeSystem: %w", err)
	}
	return &cs, nil
}

// FromCodeSystem converts cs into a dataset source. Nested concepts are
// flattened; designations become names and the definition a description.
func FromCodeSystem(cs *r4.CodeSystem, opts SourceOptions) (fixture.Source, error) {
	if cs == nil || cs.Url == nil {
		return fixture.Source{}, tx.BadRequest("codesystem is nil or has no URL")
	}
	if opts.Owner.IsZero() {
		return fixture.Source{}, tx.BadRequest("codesystem %s: owner is required", *cs.Url)
	}

	mnemonic := firstNonEmpty(opts.Mnemonic, deref(cs.Id), deref(cs.Name))
	if mnemonic == "" {
		return fixture.Source{}, tx.BadRequest("codesystem %s: no mnemonic, id or name", *cs.Url)
	}

	src := fixture.Source{
		Owner:         opts.Owner.String(),
		Mnemonic:      mnemonic,
		Version:       firstNonEmpty(opts.Version, deref(cs.Version), tx.VersionHead),
		CanonicalURL:  *cs.Url,
		Name:          firstNonEmpty(deref(cs.Name), mnemonic),
		FullName:      deref(cs.Title),
		Description:   deref(cs.Description),
		DefaultLocale: deref(cs.Language),
		Released:      opts.Released,
		CreatedAt:     opts.CreatedAt,
	}
	appendConcepts(&src, cs.Concept, src.DefaultLocale)
	return src, nil
}

func appendConcepts(src *fixture.Source, concepts []r4.CodeSystemConcept, locale string) {
	for i := range concepts {
		c := &concepts[i]
		if c.Code == nil {
			continue
		}

		fc := fixture.Concept{Mnemonic: *c.Code}
		if c.Display != nil {
			fc.Names = append(fc.Names, tx.LocalizedText{Name: *c.Display, Locale: locale, LocalePreferred: true})
		}
		for _, d := range c.Designation {
			if d.Value == nil {
				continue
			}
			name := tx.LocalizedText{Name: *d.Value, Locale: deref(d.Language)}
			if d.Use != nil {
				name.Type = deref(d.Use.Code)
			}
			fc.Names = append(fc.Names, name)
		}
		if c.Definition != nil {
			fc.Descriptions = append(fc.Descriptions, tx.LocalizedText{Name: *c.Definition, Locale: locale, Type: display.DefinitionType})
		}
		for _, p := range c.Property {
			switch deref(p.Code) {
			case tx.PropertyConceptClass:
				fc.ConceptClass = firstNonEmpty(deref(p.ValueCode), deref(p.ValueString))
			case tx.PropertyDatatype:
				fc.Datatype = firstNonEmpty(deref(p.ValueCode), deref(p.ValueString))
			case tx.PropertyInactive:
				fc.Retired = p.ValueBoolean != nil && *p.ValueBoolean
			}
		}
		src.Concepts = append(src.Concepts, fc)

		// Recurse into nested concepts
		appendConcepts(src, c.Concept, locale)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
