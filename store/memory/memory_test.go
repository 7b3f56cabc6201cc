package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/store/fixture"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*Store, []*tx.Source) {
	t.Helper()
	s := New()
	ocl := tx.OrgOwner("OCL")
	srcs := []*tx.Source{
		s.AddSource(&tx.Source{Mnemonic: "CIEL", CanonicalURL: "http://ocl.org/CIEL", Version: "v1", Owner: ocl, Released: true, CreatedAt: epoch}),
		s.AddSource(&tx.Source{Mnemonic: "CIEL", CanonicalURL: "http://ocl.org/CIEL", Version: "v2", Owner: ocl, Released: true, CreatedAt: epoch.Add(time.Hour)}),
		s.AddSource(&tx.Source{Mnemonic: "CIEL", CanonicalURL: "http://ocl.org/CIEL", Version: "v3", Owner: ocl, CreatedAt: epoch.Add(2 * time.Hour)}),
		s.AddSource(&tx.Source{Mnemonic: "CIEL", CanonicalURL: "http://ocl.org/CIEL", Version: tx.VersionHead, Owner: ocl, CreatedAt: epoch.Add(-time.Hour)}),
	}
	return s, srcs
}

func TestStore_AssignsIDs(t *testing.T) {
	s, srcs := seed(t)
	for i, src := range srcs {
		assert.Equal(t, int64(i+1), src.ID)
	}

	c1 := s.AddConcept(srcs[0].ID, &tx.Concept{Mnemonic: "AD"})
	c2 := s.AddConcept(srcs[0].ID, &tx.Concept{Mnemonic: "AD"})
	assert.Less(t, c1.ConceptID(), c2.ConceptID())
	assert.NotEqual(t, c1.ID, c2.ID)

	col := s.AddCollection(&tx.Collection{Mnemonic: "vs", References: []tx.CollectionsReference{{Expression: "a"}, {Expression: "b"}}})
	assert.Equal(t, int64(1), col.ID)
	assert.Equal(t, int64(1), col.References[0].ID)
	assert.Equal(t, int64(2), col.References[1].ID)
}

func TestStore_SharedConceptRows(t *testing.T) {
	s, srcs := seed(t)
	a := s.AddConcept(srcs[0].ID, &tx.Concept{ID: 50, Mnemonic: "AD"})
	b := s.AddConcept(srcs[1].ID, &tx.Concept{ID: 50, Mnemonic: "AD", ConceptClass: "ignored"})

	assert.Same(t, a.Concept, b.Concept)
	next := s.AddConcept(srcs[1].ID, &tx.Concept{Mnemonic: "TM"})
	assert.Equal(t, int64(51), next.ConceptID())
}

func TestStore_Sources(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	ocl := tx.OrgOwner("OCL")
	q := service.Query{Owner: &ocl, Mnemonic: "CIEL"}

	t.Run("FindVersion", func(t *testing.T) {
		got, found, err := s.Sources().FindVersion(ctx, q, "v2")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "v2", got.Version)

		_, found, err = s.Sources().FindVersion(ctx, q, "v9")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("FindVersion by URL", func(t *testing.T) {
		got, found, err := s.Sources().FindVersion(ctx, service.Query{URL: "http://ocl.org/CIEL"}, "v1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "v1", got.Version)
	})

	t.Run("FindLatestReleased skips unreleased", func(t *testing.T) {
		got, found, err := s.Sources().FindLatestReleased(ctx, q)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "v2", got.Version)
	})

	t.Run("FindAllVersions ordered by creation", func(t *testing.T) {
		all, err := s.Sources().FindAllVersions(ctx, q)
		require.NoError(t, err)
		var versions []string
		for _, src := range all {
			versions = append(versions, src.Version)
		}
		assert.Equal(t, []string{tx.VersionHead, "v1", "v2", "v3"}, versions)
	})

	t.Run("owner mismatch", func(t *testing.T) {
		user := tx.UserOwner("test")
		_, found, err := s.Sources().FindVersion(ctx, service.Query{Owner: &user, Mnemonic: "CIEL"}, "v1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := s.Sources().FindVersion(cctx, q, "v1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_FindConceptsSources(t *testing.T) {
	s, srcs := seed(t)
	ctx := context.Background()
	s.AddConcept(srcs[0].ID, &tx.Concept{Mnemonic: "AD"})
	s.AddConcept(srcs[0].ID, &tx.Concept{Mnemonic: "AD"})
	s.AddConcept(srcs[0].ID, &tx.Concept{Mnemonic: "TM"})
	s.AddConcept(srcs[1].ID, &tx.Concept{Mnemonic: "AD"})

	rows, err := s.FindConceptVersions(ctx, srcs[0].ID, "AD")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.FindConceptsSources(ctx, srcs[0].ID, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = s.FindConceptsSources(ctx, srcs[0].ID, []string{"TM", "XX"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "TM", rows[0].Code())

	rows, err = s.FindConceptVersions(ctx, 999, "AD")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_Load(t *testing.T) {
	ds, err := fixture.Read(strings.NewReader(`{
	  "sources": [{"owner": "org:OCL", "mnemonic": "CIEL", "version": "v1", "released": true,
	    "concepts": [{"mnemonic": "1001"}, {"mnemonic": "1002"}]}],
	  "collections": [{"owner": "org:OCL", "mnemonic": "vs", "version": "v1",
	    "references": ["/orgs/OCL/sources/CIEL/v1/concepts/1001/1/"]}]
	}`))
	require.NoError(t, err)

	s := New()
	stats := s.Load(ds)
	assert.Equal(t, fixture.LoadStats{SourcesLoaded: 1, ConceptsLoaded: 2, CollectionsLoaded: 1}, stats)

	ctx := context.Background()
	col, found, err := s.Collections().FindLatestReleased(ctx, service.Query{Mnemonic: "vs"})
	require.NoError(t, err)
	assert.False(t, found, "collection is not released")
	assert.Nil(t, col)

	col, found, err = s.Collections().FindVersion(ctx, service.Query{Mnemonic: "vs"}, "v1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, col.References, 1)
}
