package terminology

import (
	"strings"
	"time"
)

// OwnerKind tells organizations and users apart.
type OwnerKind string

const (
	// OwnerOrg is an organization owner.
	OwnerOrg OwnerKind = "org"
	// OwnerUser is a user owner.
	OwnerUser OwnerKind = "user"
)

// Owner scopes sources and collections to an organization or a user.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

// OrgOwner returns an organization owner.
func OrgOwner(id string) Owner {
	return Owner{Kind: OwnerOrg, ID: id}
}

// UserOwner returns a user owner.
func UserOwner(id string) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

// ParseOwner parses the textual form "org:<id>" or "user:<id>".
func ParseOwner(s string) (Owner, error) {
	kind, id, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || id == "" {
		return Owner{}, BadRequest("invalid owner %q, expected org:<id> or user:<id>", s)
	}
	switch OwnerKind(kind) {
	case OwnerOrg, OwnerUser:
		return Owner{Kind: OwnerKind(kind), ID: id}, nil
	default:
		return Owner{}, BadRequest("invalid owner type %q, expected org or user", kind)
	}
}

// OwnerKindFromSegment maps a path segment ("orgs" or "users") to a kind.
func OwnerKindFromSegment(seg string) (OwnerKind, bool) {
	switch seg {
	case "orgs":
		return OwnerOrg, true
	case "users":
		return OwnerUser, true
	default:
		return "", false
	}
}

// String returns the textual form, e.g. "org:OCL".
func (o Owner) String() string {
	if o.Kind == "" {
		return ""
	}
	return string(o.Kind) + ":" + o.ID
}

// PathSegment returns the path form, e.g. "orgs/OCL".
func (o Owner) PathSegment() string {
	return string(o.Kind) + "s/" + o.ID
}

// IsZero reports whether the owner is unset.
func (o Owner) IsZero() bool {
	return o.Kind == "" && o.ID == ""
}

// Source is one version of a code system.
type Source struct {
	ID            int64     `json:"id"`
	Mnemonic      string    `json:"mnemonic"`
	CanonicalURL  string    `json:"canonicalUrl,omitempty"`
	Version       string    `json:"version"`
	Name          string    `json:"name,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	Description   string    `json:"description,omitempty"`
	DefaultLocale string    `json:"defaultLocale,omitempty"`
	Owner         Owner     `json:"owner"`
	Active        bool      `json:"active"`
	Retired       bool      `json:"retired"`
	Released      bool      `json:"released"`
	CreatedAt     time.Time `json:"createdAt"`
}

// VersionTag returns the version string of the row.
func (s *Source) VersionTag() string { return s.Version }

// Created returns the creation time of the row.
func (s *Source) Created() time.Time { return s.CreatedAt }

// Collection is one version of a value set.
type Collection struct {
	ID            int64                  `json:"id"`
	Mnemonic      string                 `json:"mnemonic"`
	CanonicalURL  string                 `json:"canonicalUrl,omitempty"`
	Version       string                 `json:"version"`
	Name          string                 `json:"name,omitempty"`
	FullName      string                 `json:"fullName,omitempty"`
	Description   string                 `json:"description,omitempty"`
	DefaultLocale string                 `json:"defaultLocale,omitempty"`
	Owner         Owner                  `json:"owner"`
	Active        bool                   `json:"active"`
	Retired       bool                   `json:"retired"`
	Released      bool                   `json:"released"`
	CreatedAt     time.Time              `json:"createdAt"`
	References    []CollectionsReference `json:"references,omitempty"`
}

// VersionTag returns the version string of the row.
func (c *Collection) VersionTag() string { return c.Version }

// Created returns the creation time of the row.
func (c *Collection) Created() time.Time { return c.CreatedAt }

// CollectionsReference is a reference expression naming one member concept.
type CollectionsReference struct {
	ID         int64  `json:"id"`
	Expression string `json:"expression"`
}

// LocalizedText is a name or description in one locale.
type LocalizedText struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Locale          string `json:"locale,omitempty"`
	LocalePreferred bool   `json:"localePreferred"`
	Type            string `json:"type,omitempty"`
}

// Concept is one row of a concept's history.
type Concept struct {
	ID           int64           `json:"id"`
	Mnemonic     string          `json:"mnemonic"`
	ConceptClass string          `json:"conceptClass,omitempty"`
	Datatype     string          `json:"datatype,omitempty"`
	Active       bool            `json:"active"`
	Names        []LocalizedText `json:"names,omitempty"`
	Descriptions []LocalizedText `json:"descriptions,omitempty"`
}

// ConceptsSource links a concept row to a source.
type ConceptsSource struct {
	ID       int64    `json:"id"`
	SourceID int64    `json:"sourceId"`
	Concept  *Concept `json:"concept"`
}

// ConceptID returns the linked concept's identifier, or 0 if unset.
func (cs ConceptsSource) ConceptID() int64 {
	if cs.Concept == nil {
		return 0
	}
	return cs.Concept.ID
}

// Code returns the linked concept's mnemonic, or "" if unset.
func (cs ConceptsSource) Code() string {
	if cs.Concept == nil {
		return ""
	}
	return cs.Concept.Mnemonic
}
