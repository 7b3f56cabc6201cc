package engine

import (
	"context"
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/display"
	"github.com/gofhir/terminology/internal/validate"
	"github.com/gofhir/terminology/reference"
	"github.com/gofhir/terminology/service"
)

// ValidateCode implements CodeSystem $validate-code.
func (e *Engine) ValidateCode(ctx context.Context, req ValidateCodeRequest) (res *tx.ValidateCodeResult, err error) {
	defer e.observe(tx.OpValidateCode, time.Now(), &err)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	src, err := e.sources.Resolve(ctx, sourceQuery(req.Owner, req.URL, req.ID), req.Version)
	if err != nil {
		return nil, err
	}
	return e.ValidateConcept(ctx, src, req.Code, req.Display, req.DisplayLanguage)
}

// ValidateConcept checks that code exists in src and, when displayText is
// given, that one of its names matches it. A missing concept is a false
// result, not an error.
func (e *Engine) ValidateConcept(ctx context.Context, src *tx.Source, code, displayText, displayLanguage string) (*tx.ValidateCodeResult, error) {
	current, err := e.currentConcept(ctx, src, code)
	if tx.IsNotFound(err) {
		return &tx.ValidateCodeResult{Result: false}, nil
	}
	if err != nil {
		return nil, err
	}

	if displayText == "" {
		return &tx.ValidateCodeResult{Result: true}, nil
	}
	if !display.Match(current.Concept.Names, displayText, displayLanguage) {
		return &tx.ValidateCodeResult{Result: false, Message: tx.MessageInvalidDisplay}, nil
	}
	return &tx.ValidateCodeResult{Result: true}, nil
}

// ValidateValueSetCode implements ValueSet $validate-code. Every parameter
// check runs before any resolution.
func (e *Engine) ValidateValueSetCode(ctx context.Context, req ValueSetValidateCodeRequest) (res *tx.ValidateCodeResult, err error) {
	defer e.observe(tx.OpValidateValueSet, time.Now(), &err)

	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	if req.Coding != nil && req.Coding.System != "" && req.Coding.System != req.System {
		return nil, tx.BadRequest("coding system %q does not match system %q", req.Coding.System, req.System)
	}

	code, displayText, systemVersion := req.Code, req.Display, req.SystemVersion
	if req.Coding != nil {
		code = req.Coding.Code
		if req.Coding.Display != "" {
			displayText = req.Coding.Display
		}
		if systemVersion == "" {
			systemVersion = req.Coding.Version
		}
	}

	col, err := e.collections.Resolve(ctx, service.Query{Owner: req.Owner, URL: req.URL}, req.Version)
	if err != nil {
		return nil, err
	}
	src, err := e.sources.Resolve(ctx, service.Query{Owner: req.Owner, URL: req.System}, systemVersion)
	if err != nil {
		return nil, err
	}

	if !isMember(col, src, code, systemVersion != "") {
		return &tx.ValidateCodeResult{Result: false}, nil
	}
	return e.ValidateConcept(ctx, src, code, displayText, req.DisplayLanguage)
}

// isMember reports whether some reference of col names code in src. A
// reference matches when it carries the source's version, or carries no
// version and no system version was requested.
func isMember(col *tx.Collection, src *tx.Source, code string, pinned bool) bool {
	for _, ref := range reference.ParseAll(reference.Expressions(col.References)) {
		if ref.Owner != src.Owner || ref.Source != src.Mnemonic || ref.Code != code {
			continue
		}
		if ref.Version == src.Version || (!ref.HasVersion() && !pinned) {
			return true
		}
	}
	return false
}
