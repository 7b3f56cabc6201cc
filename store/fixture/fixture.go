// Package fixture reads terminology datasets from JSON so they can be
// loaded into a store. A dataset lists source versions with their concepts
// and collection versions with their reference expressions.
//
//	{
//	  "sources": [{
//	    "owner": "org:OCL", "mnemonic": "CIEL", "version": "v1",
//	    "canonicalUrl": "http://ocl.org/CIEL", "released": true,
//	    "concepts": [{"mnemonic": "1001", "names": [{"name": "Anemia", "locale": "en"}]}]
//	  }],
//	  "collections": [{
//	    "owner": "org:OCL", "mnemonic": "vitals", "version": "v1",
//	    "references": ["/orgs/OCL/sources/CIEL/v1/concepts/1001/1/"]
//	  }]
//	}
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/internal/validate"
)

// Dataset is a set of sources and collections to load.
type Dataset struct {
	Sources     []Source     `json:"sources" validate:"dive"`
	Collections []Collection `json:"collections" validate:"dive"`
}

// Source is one source version and its concepts.
type Source struct {
	Owner         string    `json:"owner" validate:"required"`
	Mnemonic      string    `json:"mnemonic" validate:"required"`
	Version       string    `json:"version" validate:"required"`
	CanonicalURL  string    `json:"canonicalUrl"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Description   string    `json:"description"`
	DefaultLocale string    `json:"defaultLocale"`
	Retired       bool      `json:"retired"`
	Released      bool      `json:"released"`
	Inactive      bool      `json:"inactive"`
	CreatedAt     time.Time `json:"createdAt"`
	Concepts      []Concept `json:"concepts" validate:"dive"`
}

// Concept is one concept row. Rows sharing a mnemonic form its history;
// a zero ID is assigned by the store in insertion order.
type Concept struct {
	ID           int64              `json:"id"`
	Mnemonic     string             `json:"mnemonic" validate:"required"`
	ConceptClass string             `json:"conceptClass"`
	Datatype     string             `json:"datatype"`
	Retired      bool               `json:"retired"`
	Names        []tx.LocalizedText `json:"names"`
	Descriptions []tx.LocalizedText `json:"descriptions"`
}

// Collection is one collection version and its reference expressions.
type Collection struct {
	Owner         string    `json:"owner" validate:"required"`
	Mnemonic      string    `json:"mnemonic" validate:"required"`
	Version       string    `json:"version" validate:"required"`
	CanonicalURL  string    `json:"canonicalUrl"`
	Name          string    `json:"name"`
	FullName      string    `json:"fullName"`
	Description   string    `json:"description"`
	DefaultLocale string    `json:"defaultLocale"`
	Retired       bool      `json:"retired"`
	Released      bool      `json:"released"`
	Inactive      bool      `json:"inactive"`
	CreatedAt     time.Time `json:"createdAt"`
	References    []string  `json:"references"`
}

// LoadStats counts what a store loaded from a dataset.
type LoadStats struct {
	SourcesLoaded     int64 `json:"sources"`
	ConceptsLoaded    int64 `json:"concepts"`
	CollectionsLoaded int64 `json:"collections"`
}

// Read decodes and validates a dataset.
func Read(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := validate.Struct(&ds); err != nil {
		return nil, err
	}
	for _, s := range ds.Sources {
		if _, err := tx.ParseOwner(s.Owner); err != nil {
			return nil, err
		}
	}
	for _, c := range ds.Collections {
		if _, err := tx.ParseOwner(c.Owner); err != nil {
			return nil, err
		}
	}
	return &ds, nil
}

// ReadFile reads a dataset from path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Model returns the source row of s. Owners are validated by Read.
func (s Source) Model() *tx.Source {
	owner, _ := tx.ParseOwner(s.Owner)
	return &tx.Source{
		Mnemonic:      s.Mnemonic,
		CanonicalURL:  s.CanonicalURL,
		Version:       s.Version,
		Name:          s.Name,
		FullName:      s.FullName,
		Description:   s.Description,
		DefaultLocale: s.DefaultLocale,
		Owner:         owner,
		Active:        !s.Inactive,
		Retired:       s.Retired,
		Released:      s.Released,
		CreatedAt:     s.CreatedAt,
	}
}

// Model returns the concept row of c.
func (c Concept) Model() *tx.Concept {
	return &tx.Concept{
		ID:           c.ID,
		Mnemonic:     c.Mnemonic,
		ConceptClass: c.ConceptClass,
		Datatype:     c.Datatype,
		Active:       !c.Retired,
		Names:        c.Names,
		Descriptions: c.Descriptions,
	}
}

// Model returns the collection row of c, references included.
func (c Collection) Model() *tx.Collection {
	owner, _ := tx.ParseOwner(c.Owner)
	refs := make([]tx.CollectionsReference, len(c.References))
	for i, expr := range c.References {
		refs[i] = tx.CollectionsReference{Expression: expr}
	}
	return &tx.Collection{
		Mnemonic:      c.Mnemonic,
		CanonicalURL:  c.CanonicalURL,
		Version:       c.Version,
		Name:          c.Name,
		FullName:      c.FullName,
		Description:   c.Description,
		DefaultLocale: c.DefaultLocale,
		Owner:         owner,
		Active:        !c.Inactive,
		Retired:       c.Retired,
		Released:      c.Released,
		CreatedAt:     c.CreatedAt,
		References:    refs,
	}
}
