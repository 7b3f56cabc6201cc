// Package reference parses collection reference expressions.
//
// A reference expression names one member concept of a collection:
//
//	/orgs/OCL/sources/CIEL/v1.0/concepts/1001/123/
//	/users/test/sources/CIEL/concepts/1001/123/
//
// The version segment is optional. Parsing never fails loudly: a malformed
// expression yields false so an expansion can skip it and carry on.
package reference

import (
	"net/url"
	"strings"

	tx "github.com/gofhir/terminology"
)

const (
	keywordSources  = "sources"
	keywordConcepts = "concepts"

	segmentsUnversioned = 7
	segmentsVersioned   = 8
)

// Reference is a parsed reference expression.
type Reference struct {
	Owner     tx.Owner
	Source    string
	Version   string // empty when the expression carries no version
	Code      string
	ConceptID string
}

// HasVersion reports whether the expression embeds a source version.
func (r Reference) HasVersion() bool {
	return r.Version != ""
}

// String renders the canonical expression.
func (r Reference) String() string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(string(r.Owner.Kind))
	b.WriteString("s/")
	b.WriteString(url.PathEscape(r.Owner.ID))
	b.WriteString("/" + keywordSources + "/")
	b.WriteString(url.PathEscape(r.Source))
	b.WriteString("/")
	if r.Version != "" {
		b.WriteString(url.PathEscape(r.Version))
		b.WriteString("/")
	}
	b.WriteString(keywordConcepts + "/")
	b.WriteString(url.PathEscape(r.Code))
	b.WriteString("/")
	b.WriteString(url.PathEscape(r.ConceptID))
	b.WriteString("/")
	return b.String()
}

// Parse parses expr. It returns false for any malformed expression.
func Parse(expr string) (Reference, bool) {
	trimmed := strings.Trim(strings.TrimSpace(expr), "/")
	if trimmed == "" {
		return Reference{}, false
	}
	segs := strings.Split(trimmed, "/")

	var ref Reference
	switch len(segs) {
	case segmentsUnversioned:
	case segmentsVersioned:
		v, ok := unescape(segs[4])
		if !ok {
			return Reference{}, false
		}
		ref.Version = v
		segs = append(segs[:4:4], segs[5:]...)
	default:
		return Reference{}, false
	}

	// owner-kind, owner-id, sources, source, concepts, code, concept-id
	kind, ok := tx.OwnerKindFromSegment(segs[0])
	if !ok || segs[2] != keywordSources || segs[4] != keywordConcepts {
		return Reference{}, false
	}
	ref.Owner.Kind = kind

	for _, f := range []struct {
		dst *string
		raw string
	}{
		{&ref.Owner.ID, segs[1]},
		{&ref.Source, segs[3]},
		{&ref.Code, segs[5]},
		{&ref.ConceptID, segs[6]},
	} {
		v, ok := unescape(f.raw)
		if !ok {
			return Reference{}, false
		}
		*f.dst = v
	}
	return ref, true
}

// unescape decodes a path segment. Empty or badly escaped segments fail.
func unescape(seg string) (string, bool) {
	v, err := url.PathUnescape(seg)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// ParseAll parses every expression and keeps the well-formed ones in order.
func ParseAll(exprs []string) []Reference {
	out := make([]Reference, 0, len(exprs))
	for _, e := range exprs {
		if ref, ok := Parse(e); ok {
			out = append(out, ref)
		}
	}
	return out
}

// Expressions returns the expressions of refs.
func Expressions(refs []tx.CollectionsReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Expression
	}
	return out
}
