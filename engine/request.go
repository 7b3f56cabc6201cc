package engine

import (
	tx "github.com/gofhir/terminology"
)

// LookupRequest holds the parameters of CodeSystem $lookup.
// The code system is named by canonical URL (System) or mnemonic (ID).
type LookupRequest struct {
	System          string    `param:"system" validate:"required_without=ID"`
	ID              string    `param:"id"`
	Code            string    `param:"code" validate:"required"`
	Version         string    `param:"version"`
	DisplayLanguage string    `param:"displayLanguage"`
	Owner           *tx.Owner `param:"owner"`
}

// ValidateCodeRequest holds the parameters of CodeSystem $validate-code.
type ValidateCodeRequest struct {
	URL             string    `param:"url" validate:"required_without=ID"`
	ID              string    `param:"id"`
	Code            string    `param:"code" validate:"required"`
	Version         string    `param:"version"`
	Display         string    `param:"display"`
	DisplayLanguage string    `param:"displayLanguage"`
	Owner           *tx.Owner `param:"owner"`
}

// Coding is a code with its system, as sent in the coding parameter.
type Coding struct {
	System  string `param:"system"`
	Version string `param:"version"`
	Code    string `param:"code" validate:"required"`
	Display string `param:"display"`
}

// ValueSetValidateCodeRequest holds the parameters of ValueSet
// $validate-code. Exactly one of Code or Coding must be given.
type ValueSetValidateCodeRequest struct {
	URL             string    `param:"url" validate:"required"`
	Version         string    `param:"valueSetVersion"`
	System          string    `param:"system" validate:"required"`
	SystemVersion   string    `param:"systemVersion"`
	Code            string    `param:"code" validate:"required_without=Coding,excluded_with=Coding"`
	Coding          *Coding   `param:"coding"`
	Display         string    `param:"display"`
	DisplayLanguage string    `param:"displayLanguage"`
	Owner           *tx.Owner `param:"owner"`
}

// ExpandRequest holds the parameters of ValueSet $expand.
// The value set is named by canonical URL or mnemonic (ID).
type ExpandRequest struct {
	URL           string    `param:"url" validate:"required_without=ID"`
	ID            string    `param:"id"`
	Version       string    `param:"valueSetVersion"`
	SystemVersion string    `param:"system-version"`
	Offset        int       `param:"offset"`
	Count         *int      `param:"count" validate:"omitempty,gte=0"`
	Owner         *tx.Owner `param:"owner"`
}

// CodeSystemRequest names one source version.
type CodeSystemRequest struct {
	URL     string    `param:"url" validate:"required_without=ID"`
	ID      string    `param:"id"`
	Version string    `param:"version"`
	Owner   *tx.Owner `param:"owner"`
}

// ExpandParams controls one expansion.
type ExpandParams struct {
	// SystemVersion is an optional "url|version" pinning every entry to one
	// source version.
	SystemVersion string

	// Offset is the index of the first returned entry. Negative means 0.
	Offset int

	// Count is the window size. Nil means Options.DefaultPageSize.
	Count *int

	// Owner restricts the SystemVersion source lookup. Nil means any owner.
	Owner *tx.Owner
}
