package sqlstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/engine"
	"github.com/gofhir/terminology/service"
	"github.com/gofhir/terminology/store/fixture"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:terminology-test-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	s, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateSchema(context.Background()))
	return s
}

func dataset() *fixture.Dataset {
	names := func(pairs ...string) []tx.LocalizedText {
		var out []tx.LocalizedText
		for i := 0; i+1 < len(pairs); i += 2 {
			out = append(out, tx.LocalizedText{Name: pairs[i], Locale: pairs[i+1], LocalePreferred: i == 0})
		}
		return out
	}
	return &fixture.Dataset{
		Sources: []fixture.Source{
			{
				Owner: "org:OCL", Mnemonic: "CS", Version: "v1", CanonicalURL: "http://ocl.org/cs",
				Name: "CS", DefaultLocale: "en", Released: true, CreatedAt: epoch,
				Concepts: []fixture.Concept{
					{ID: 1, Mnemonic: "AD", ConceptClass: "Diagnosis", Names: names("Adenoma", "en", "Adénome", "fr")},
					{ID: 2, Mnemonic: "TM", Retired: true, Names: names("Tumor", "en"),
						Descriptions: []tx.LocalizedText{{Name: "A growth", Locale: "en", Type: "Definition"}}},
				},
			},
			{
				Owner: "org:OCL", Mnemonic: "CS", Version: "v2", CanonicalURL: "http://ocl.org/cs",
				Name: "CS", DefaultLocale: "en", Released: true, CreatedAt: epoch.Add(time.Hour),
				Concepts: []fixture.Concept{
					{ID: 1, Mnemonic: "AD"},
					{ID: 2, Mnemonic: "TM"},
					{Mnemonic: "AD", ConceptClass: "Diagnosis", Names: names("Adenoma (revised)", "en")},
				},
			},
			{
				Owner: "org:OCL", Mnemonic: "CS", Version: tx.VersionHead, CanonicalURL: "http://ocl.org/cs",
				Name: "CS", DefaultLocale: "en", CreatedAt: epoch.Add(-time.Hour),
			},
		},
		Collections: []fixture.Collection{
			{
				Owner: "org:OCL", Mnemonic: "VS", Version: "v1", CanonicalURL: "http://ocl.org/vs",
				Released: true, CreatedAt: epoch,
				References: []string{
					"/orgs/OCL/sources/CS/v1/concepts/TM/2/",
					"/orgs/OCL/sources/CS/v2/concepts/AD/3/",
					"not a reference",
				},
			},
		},
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}

func TestCreateSchema_Idempotent(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.CreateSchema(context.Background()))
}

func TestImport(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	stats, err := s.Import(ctx, dataset())
	require.NoError(t, err)
	assert.Equal(t, fixture.LoadStats{SourcesLoaded: 3, ConceptsLoaded: 5, CollectionsLoaded: 1}, stats)

	count, err := s.DB().NewSelect().Model((*conceptRecord)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSources(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, dataset())
	require.NoError(t, err)

	ocl := tx.OrgOwner("OCL")
	byURL := service.Query{URL: "http://ocl.org/cs"}

	src, found, err := s.Sources().FindVersion(ctx, byURL, "v1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "CS", src.Mnemonic)
	assert.Equal(t, ocl, src.Owner)
	assert.True(t, src.Active)
	assert.True(t, src.CreatedAt.Equal(epoch))

	_, found, err = s.Sources().FindVersion(ctx, byURL, "v9")
	require.NoError(t, err)
	assert.False(t, found)

	latest, found, err := s.Sources().FindLatestReleased(ctx, service.Query{Owner: &ocl, Mnemonic: "CS"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", latest.Version)

	other := tx.UserOwner("OCL")
	_, found, err = s.Sources().FindLatestReleased(ctx, service.Query{Owner: &other, Mnemonic: "CS"})
	require.NoError(t, err)
	assert.False(t, found)

	all, err := s.Sources().FindAllVersions(ctx, byURL)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{tx.VersionHead, "v1", "v2"}, []string{all[0].Version, all[1].Version, all[2].Version})

	none, err := s.Sources().FindAllVersions(ctx, service.Query{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollections(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, dataset())
	require.NoError(t, err)

	col, found, err := s.Collections().FindLatestReleased(ctx, service.Query{URL: "http://ocl.org/vs"})
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, col.References, 3)
	assert.Equal(t, "/orgs/OCL/sources/CS/v1/concepts/TM/2/", col.References[0].Expression)
	assert.Equal(t, "not a reference", col.References[2].Expression)
}

func TestConcepts(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, dataset())
	require.NoError(t, err)

	v2, found, err := s.Sources().FindVersion(ctx, service.Query{Mnemonic: "CS"}, "v2")
	require.NoError(t, err)
	require.True(t, found)

	rows, err := s.FindConceptVersions(ctx, v2.ID, "AD")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ConceptID())
	assert.Equal(t, int64(3), rows[1].ConceptID())
	assert.Equal(t, "Adenoma (revised)", rows[1].Concept.Names[0].Name)

	first := rows[0].Concept
	require.Len(t, first.Names, 2)
	assert.Equal(t, "Adenoma", first.Names[0].Name)
	assert.True(t, first.Names[0].LocalePreferred)
	assert.Equal(t, "fr", first.Names[1].Locale)

	all, err := s.FindConceptsSources(ctx, v2.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tm, err := s.FindConceptsSources(ctx, v2.ID, []string{"TM"})
	require.NoError(t, err)
	require.Len(t, tm, 1)
	assert.False(t, tm[0].Concept.Active)
	assert.Equal(t, "A growth", tm[0].Concept.Descriptions[0].Name)

	missing, err := s.FindConceptVersions(ctx, v2.ID, "XX")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEngineOverSQL(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	_, err := s.Import(ctx, dataset())
	require.NoError(t, err)

	e := engine.New(s)

	res, err := e.Lookup(ctx, engine.LookupRequest{System: "http://ocl.org/cs", Code: "AD"})
	require.NoError(t, err)
	assert.Equal(t, "v2", res.Version)
	assert.Equal(t, "Adenoma (revised)", res.Display)

	exp, err := e.Expand(ctx, engine.ExpandRequest{URL: "http://ocl.org/vs"})
	require.NoError(t, err)
	assert.Equal(t, 2, exp.Total)
	require.Len(t, exp.Entries, 2)
	assert.Equal(t, "v1", exp.Entries[0].Version)
	assert.Equal(t, "TM", exp.Entries[0].Code)
	assert.Equal(t, "v2", exp.Entries[1].Version)
	assert.Equal(t, "AD", exp.Entries[1].Code)

	ok, err := e.ValidateValueSetCode(ctx, engine.ValueSetValidateCodeRequest{
		URL: "http://ocl.org/vs", System: "http://ocl.org/cs", SystemVersion: "v2", Code: "AD",
	})
	require.NoError(t, err)
	assert.True(t, ok.Result)
}
