package terminology

// LookupResult is the outcome of a successful $lookup.
type LookupResult struct {
	// Name is the source name.
	Name string `json:"name"`

	// Version is the source version.
	Version string `json:"version,omitempty"`

	// Display is the resolved display, empty if the concept has no names.
	Display string `json:"display,omitempty"`

	// Designations lists the concept names, narrowed by display language.
	Designations []Designation `json:"designations,omitempty"`
}

// Designation is one localized name of a concept. Empty parts are omitted.
type Designation struct {
	Language string `json:"language,omitempty"`
	Use      string `json:"use,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Validation messages.
const (
	MessageInvalidDisplay = "Invalid display."
)

// ValidateCodeResult is the outcome of $validate-code.
// A false Result is a normal outcome, not an error.
type ValidateCodeResult struct {
	Result  bool   `json:"result"`
	Message string `json:"message,omitempty"`
}

// ExpansionResult is one page of a value set expansion.
type ExpansionResult struct {
	// Total is the size of the full expansion, independent of paging.
	Total int `json:"total"`

	// Offset is the index of the first returned entry.
	Offset int `json:"offset"`

	// Entries is the requested window.
	Entries []ExpansionEntry `json:"contains,omitempty"`

	// Collection is the expanded collection version, when resolved by Expand.
	Collection *Collection `json:"-"`
}

// ExpansionEntry is one concept of an expansion.
type ExpansionEntry struct {
	System  string `json:"system,omitempty"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`

	// Source is the mnemonic of the source the entry came from.
	Source string `json:"-"`
}

// ConceptProperty is a coded or boolean property of a code system concept.
type ConceptProperty struct {
	Code  string `json:"code"`
	Value string `json:"value,omitempty"`
	Bool  *bool  `json:"valueBoolean,omitempty"`
}

// Concept property codes.
const (
	PropertyConceptClass = "concept_class"
	PropertyDatatype     = "data_type"
	PropertyInactive     = "inactive"
)

// CodeSystemConcept is a current concept of a source as listed in a
// CodeSystem resource.
type CodeSystemConcept struct {
	Code         string            `json:"code"`
	Display      string            `json:"display,omitempty"`
	Definition   string            `json:"definition,omitempty"`
	Designations []Designation     `json:"designation,omitempty"`
	Properties   []ConceptProperty `json:"property,omitempty"`
}

// CodeSystemResult is a source version with its current concepts.
type CodeSystemResult struct {
	Source *Source `json:"source"`

	// Count is the number of distinct concept mnemonics in the source.
	Count int `json:"count"`

	Concepts []CodeSystemConcept `json:"concept,omitempty"`
}
