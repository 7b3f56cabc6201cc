// Package concept selects the current row of a concept's history.
//
// A source keeps every revision of a concept as a separate association row
// sharing one mnemonic. The row whose concept identifier is numerically
// greatest is the current one.
package concept

import (
	"sort"

	tx "github.com/gofhir/terminology"
)

// Current returns the row with the greatest concept identifier.
// It returns false when rows is empty.
func Current(rows []tx.ConceptsSource) (tx.ConceptsSource, bool) {
	var (
		best  tx.ConceptsSource
		found bool
	)
	for _, row := range rows {
		if row.Concept == nil {
			continue
		}
		if !found || row.Concept.ID > best.Concept.ID {
			best = row
			found = true
		}
	}
	return best, found
}

// CurrentByMnemonic reduces rows spanning many mnemonics to one current row
// per mnemonic, ordered by mnemonic.
func CurrentByMnemonic(rows []tx.ConceptsSource) []tx.ConceptsSource {
	latest := make(map[string]tx.ConceptsSource, len(rows))
	for _, row := range rows {
		if row.Concept == nil {
			continue
		}
		code := row.Concept.Mnemonic
		if cur, ok := latest[code]; !ok || row.Concept.ID > cur.Concept.ID {
			latest[code] = row
		}
	}

	out := make([]tx.ConceptsSource, 0, len(latest))
	for _, row := range latest {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Concept.Mnemonic < out[j].Concept.Mnemonic
	})
	return out
}

// CountDistinct returns the number of distinct mnemonics in rows.
func CountDistinct(rows []tx.ConceptsSource) int {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Concept == nil {
			continue
		}
		seen[row.Concept.Mnemonic] = struct{}{}
	}
	return len(seen)
}
