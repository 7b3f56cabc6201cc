// Package fhirconv converts terminology results to and from FHIR R4
// resources.
package fhirconv

import (
	"github.com/gofhir/fhir/r4"

	tx "github.com/gofhir/terminology"
)

// Parameter names of the operation outputs.
const (
	ParamName        = "name"
	ParamVersion     = "version"
	ParamDisplay     = "display"
	ParamDesignation = "designation"
	ParamLanguage    = "language"
	ParamUse         = "use"
	ParamValue       = "value"
	ParamResult      = "result"
	ParamMessage     = "message"
)

func ptr[T any](v T) *T {
	return &v
}

// optional returns nil for an empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringParam(name, value string) r4.ParametersParameter {
	return r4.ParametersParameter{Name: ptr(name), ValueString: ptr(value)}
}

// LookupParameters renders a $lookup result. Empty version and display are
// omitted.
func LookupParameters(res *tx.LookupResult) *r4.Parameters {
	params := &r4.Parameters{}
	params.Parameter = append(params.Parameter, stringParam(ParamName, res.Name))
	if res.Version != "" {
		params.Parameter = append(params.Parameter, stringParam(ParamVersion, res.Version))
	}
	if res.Display != "" {
		params.Parameter = append(params.Parameter, stringParam(ParamDisplay, res.Display))
	}

	for _, d := range res.Designations {
		p := r4.ParametersParameter{Name: ptr(ParamDesignation)}
		if d.Language != "" {
			p.Part = append(p.Part, r4.ParametersParameter{Name: ptr(ParamLanguage), ValueCode: ptr(d.Language)})
		}
		if d.Use != "" {
			p.Part = append(p.Part, r4.ParametersParameter{Name: ptr(ParamUse), ValueCoding: &r4.Coding{Code: ptr(d.Use)}})
		}
		if d.Value != "" {
			p.Part = append(p.Part, stringParam(ParamValue, d.Value))
		}
		params.Parameter = append(params.Parameter, p)
	}
	return params
}

// ValidateCodeParameters renders a $validate-code result.
func ValidateCodeParameters(res *tx.ValidateCodeResult) *r4.Parameters {
	params := &r4.Parameters{
		Parameter: []r4.ParametersParameter{
			{Name: ptr(ParamResult), ValueBoolean: ptr(res.Result)},
		},
	}
	if res.Message != "" {
		params.Parameter = append(params.Parameter, stringParam(ParamMessage, res.Message))
	}
	return params
}

// ValueSet renders an expansion page of col.
func ValueSet(col *tx.Collection, res *tx.ExpansionResult) *r4.ValueSet {
	vs := &r4.ValueSet{
		Id:      optional(col.Mnemonic),
		Url:     optional(col.CanonicalURL),
		Version: optional(col.Version),
		Name:    optional(col.Name),
		Title:   optional(col.FullName),
		Expansion: &r4.ValueSetExpansion{
			Contains: make([]r4.ValueSetExpansionContains, 0, len(res.Entries)),
		},
	}
	for _, en := range res.Entries {
		vs.Expansion.Contains = append(vs.Expansion.Contains, r4.ValueSetExpansionContains{
			System:  optional(en.System),
			Version: optional(en.Version),
			Code:    ptr(en.Code),
			Display: optional(en.Display),
		})
	}
	return vs
}

// CodeSystem renders a source version with its concepts.
func CodeSystem(res *tx.CodeSystemResult) *r4.CodeSystem {
	src := res.Source
	cs := &r4.CodeSystem{
		Id:          optional(src.Mnemonic),
		Url:         optional(src.CanonicalURL),
		Version:     optional(src.Version),
		Name:        optional(src.Name),
		Title:       optional(src.FullName),
		Description: optional(src.Description),
		Language:    optional(src.DefaultLocale),
		Count:       ptr(uint32(res.Count)), //nolint:gosec // concept counts are non-negative
		Concept:     make([]r4.CodeSystemConcept, 0, len(res.Concepts)),
	}

	for _, c := range res.Concepts {
		concept := r4.CodeSystemConcept{
			Code:       ptr(c.Code),
			Display:    optional(c.Display),
			Definition: optional(c.Definition),
		}
		for _, d := range c.Designations {
			des := r4.CodeSystemConceptDesignation{
				Language: optional(d.Language),
				Value:    ptr(d.Value),
			}
			if d.Use != "" {
				des.Use = &r4.Coding{Code: ptr(d.Use)}
			}
			concept.Designation = append(concept.Designation, des)
		}
		for _, p := range c.Properties {
			prop := r4.CodeSystemConceptProperty{Code: ptr(p.Code)}
			if p.Bool != nil {
				prop.ValueBoolean = ptr(*p.Bool)
			} else {
				prop.ValueString = ptr(p.Value)
			}
			concept.Property = append(concept.Property, prop)
		}
		cs.Concept = append(cs.Concept, concept)
	}
	return cs
}
