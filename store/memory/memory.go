// Package memory implements service.Repository with in-memory storage.
// It is safe for concurrent use and is mainly used for tests, fixtures and
// small embedded deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/store/fixture"
)

// Store holds sources, collections and concept associations.
// Returned rows are shared with the store and must be treated as read-only.
type Store struct {
	mu          sync.RWMutex
	sources     []*tx.Source
	collections []*tx.Collection
	concepts    map[int64]*tx.Concept
	links       map[int64][]tx.ConceptsSource // source ID -> association rows

	nextSourceID     int64
	nextCollectionID int64
	nextConceptID    int64
	nextLinkID       int64
	nextRefID        int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		concepts: make(map[int64]*tx.Concept),
		links:    make(map[int64][]tx.ConceptsSource),
	}
}

// AddSource stores src, assigning an ID when it has none.
func (s *Store) AddSource(src *tx.Source) *tx.Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src.ID == 0 {
		s.nextSourceID++
		src.ID = s.nextSourceID
	} else if src.ID > s.nextSourceID {
		s.nextSourceID = src.ID
	}
	s.sources = append(s.sources, src)
	return src
}

// AddCollection stores col, assigning IDs to it and its references.
func (s *Store) AddCollection(col *tx.Collection) *tx.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col.ID == 0 {
		s.nextCollectionID++
		col.ID = s.nextCollectionID
	} else if col.ID > s.nextCollectionID {
		s.nextCollectionID = col.ID
	}
	for i := range col.References {
		if col.References[i].ID == 0 {
			s.nextRefID++
			col.References[i].ID = s.nextRefID
		}
	}
	s.collections = append(s.collections, col)
	return col
}

// AddConcept links c to the source. A concept without an ID gets the next
// one, so later rows of the same mnemonic become current. A concept whose ID
// is already stored is linked as-is, which lets source versions share rows.
func (s *Store) AddConcept(sourceID int64, c *tx.Concept) tx.ConceptsSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		s.nextConceptID++
		c.ID = s.nextConceptID
	} else if c.ID > s.nextConceptID {
		s.nextConceptID = c.ID
	}
	if existing, ok := s.concepts[c.ID]; ok {
		c = existing
	} else {
		s.concepts[c.ID] = c
	}

	s.nextLinkID++
	link := tx.ConceptsSource{ID: s.nextLinkID, SourceID: sourceID, Concept: c}
	s.links[sourceID] = append(s.links[sourceID], link)
	return link
}

// Load stores every source, concept and collection of ds.
func (s *Store) Load(ds *fixture.Dataset) fixture.LoadStats {
	var stats fixture.LoadStats
	for _, fs := range ds.Sources {
		src := s.AddSource(fs.Model())
		stats.SourcesLoaded++
		for _, fc := range fs.Concepts {
			s.AddConcept(src.ID, fc.Model())
			stats.ConceptsLoaded++
		}
	}
	for _, fc := range ds.Collections {
		s.AddCollection(fc.Model())
		stats.CollectionsLoaded++
	}
	return stats
}

// Sources implements service.Repository.
func (s *Store) Sources() service.VersionFinder[*tx.Source] {
	return &finder[*tx.Source]{
		mu: &s.mu,
		rows: func() []*tx.Source {
			return s.sources
		},
		matches: func(src *tx.Source, q service.Query) bool {
			return q.Matches(src.Owner, src.Mnemonic, src.CanonicalURL)
		},
		released: func(src *tx.Source) bool { return src.Released },
	}
}

// Collections implements service.Repository.
func (s *Store) Collections() service.VersionFinder[*tx.Collection] {
	return &finder[*tx.Collection]{
		mu: &s.mu,
		rows: func() []*tx.Collection {
			return s.collections
		},
		matches: func(col *tx.Collection, q service.Query) bool {
			return q.Matches(col.Owner, col.Mnemonic, col.CanonicalURL)
		},
		released: func(col *tx.Collection) bool { return col.Released },
	}
}

// FindConceptVersions implements service.ConceptFinder.
func (s *Store) FindConceptVersions(ctx context.Context, sourceID int64, code string) ([]tx.ConceptsSource, error) {
	return s.FindConceptsSources(ctx, sourceID, []string{code})
}

// FindConceptsSources implements service.ConceptFinder.
func (s *Store) FindConceptsSources(ctx context.Context, sourceID int64, codes []string) ([]tx.ConceptsSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		want[c] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []tx.ConceptsSource
	for _, link := range s.links[sourceID] {
		if _, ok := want[link.Concept.Mnemonic]; len(want) == 0 || ok {
			out = append(out, link)
		}
	}
	return out, nil
}

// finder implements service.VersionFinder over one slice of rows.
type finder[T service.Versioned] struct {
	mu       *sync.RWMutex
	rows     func() []T
	matches  func(T, service.Query) bool
	released func(T) bool
}

func (f *finder[T]) FindVersion(ctx context.Context, q service.Query, version string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, row := range f.rows() {
		if f.matches(row, q) && row.VersionTag() == version {
			return row, true, nil
		}
	}
	return zero, false, nil
}

func (f *finder[T]) FindLatestReleased(ctx context.Context, q service.Query) (T, bool, error) {
	var (
		zero  T
		best  T
		found bool
	)
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, row := range f.rows() {
		if !f.matches(row, q) || !f.released(row) {
			continue
		}
		if !found || row.Created().After(best.Created()) {
			best = row
			found = true
		}
	}
	return best, found, nil
}

func (f *finder[T]) FindAllVersions(ctx context.Context, q service.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []T
	for _, row := range f.rows() {
		if f.matches(row, q) {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Created().Before(out[j].Created())
	})
	return out, nil
}

// Verify interface compliance
var _ service.Repository = (*Store)(nil)
