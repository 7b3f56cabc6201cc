// Package terminology resolves OCL terminology content into the answers of
// the FHIR terminology operations: $lookup, $validate-code and $expand.
//
// Code systems are stored as sources and value sets as collections. Both are
// versioned and owned by an organization or a user. The engine turns raw
// repository rows (sources, concepts, localized text, collections and their
// reference expressions) into plain result records that a transport layer
// can hand to a FHIR serializer.
//
// # Quick Start
//
//	import (
//	    tx "github.com/gofhir/terminology"
//	    "github.com/gofhir/terminology/engine"
//	    "github.com/gofhir/terminology/store/memory"
//	)
//
//	repo := memory.New()
//	eng := engine.New(repo, tx.WithDefaultPageSize(50))
//
//	res, err := eng.Lookup(ctx, engine.LookupRequest{
//	    System: "http://example.org/fhir/CodeSystem/vitals",
//	    Code:   "1001",
//	})
//
// # Packages
//
//   - concept: selects the current row of a concept's history
//   - display: display fallback, designations and display matching
//   - reference: parses collection reference expressions
//   - resolve: owner and version resolution for sources and collections
//   - engine: the lookup, validate-code and expand operations
//   - store/memory, store/sqlstore, store/cached: repository implementations
//   - fhirconv: converts result records to R4 resources and CodeSystems to datasets
//   - stream: reads CodeSystems out of large Bundles
//
// # Versions
//
// A version string may be an exact version, the "*" wildcard (every version
// except HEAD) or empty (the most recently created released version). HEAD
// is the mutable working copy and is only returned when asked for by name.
//
// # Errors
//
// Failures carry a category from github.com/goliatone/go-errors. Use
// IsBadRequest and IsNotFound to tell them apart. A negative validation
// outcome is a normal ValidateCodeResult, not an error.
package terminology
