package terminology

import "strings"

// Version sentinels.
const (
	// VersionHead is the mutable working copy of a source or collection.
	VersionHead = "HEAD"
	// VersionAll selects every persisted version except HEAD.
	VersionAll = "*"
)

// IsHead reports whether v names the HEAD version.
func IsHead(v string) bool {
	return v == VersionHead
}

// SystemVersion is a canonical "url|version" pair.
type SystemVersion struct {
	URL     string
	Version string
}

// ParseSystemVersion parses "url|version". Both halves must be non-empty.
func ParseSystemVersion(s string) (SystemVersion, error) {
	url, version, ok := strings.Cut(s, "|")
	url = strings.TrimSpace(url)
	version = strings.TrimSpace(version)
	if !ok || url == "" || version == "" {
		return SystemVersion{}, BadRequest("invalid system-version %q, expected url|version", s)
	}
	return SystemVersion{URL: url, Version: version}, nil
}

// String returns the "url|version" form.
func (sv SystemVersion) String() string {
	return sv.URL + "|" + sv.Version
}
