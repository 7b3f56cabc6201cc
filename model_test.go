package terminology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOwner(t *testing.T) {
	tests := []struct {
		in      string
		want    Owner
		wantErr bool
	}{
		{in: "org:OCL", want: OrgOwner("OCL")},
		{in: "user:test", want: UserOwner("test")},
		{in: " org:CIEL ", want: OrgOwner("CIEL")},
		{in: "OCL", wantErr: true},
		{in: "org:", wantErr: true},
		{in: "team:OCL", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOwner(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsBadRequest(err), "ParseOwner(%q) error should be bad-request", tt.in)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwner_Forms(t *testing.T) {
	o := OrgOwner("OCL")
	assert.Equal(t, "org:OCL", o.String())
	assert.Equal(t, "orgs/OCL", o.PathSegment())

	u := UserOwner("test")
	assert.Equal(t, "user:test", u.String())
	assert.Equal(t, "users/test", u.PathSegment())

	assert.True(t, Owner{}.IsZero())
	assert.Equal(t, "", Owner{}.String())
}

func TestOwnerKindFromSegment(t *testing.T) {
	k, ok := OwnerKindFromSegment("orgs")
	assert.True(t, ok)
	assert.Equal(t, OwnerOrg, k)

	k, ok = OwnerKindFromSegment("users")
	assert.True(t, ok)
	assert.Equal(t, OwnerUser, k)

	_, ok = OwnerKindFromSegment("org")
	assert.False(t, ok)
}

func TestConceptsSource_Accessors(t *testing.T) {
	var empty ConceptsSource
	assert.Equal(t, int64(0), empty.ConceptID())
	assert.Equal(t, "", empty.Code())

	cs := ConceptsSource{Concept: &Concept{ID: 7, Mnemonic: "AD"}}
	assert.Equal(t, int64(7), cs.ConceptID())
	assert.Equal(t, "AD", cs.Code())
}

func TestParseSystemVersion(t *testing.T) {
	sv, err := ParseSystemVersion("http://fhir.org/CodeSystem/x|v1.0")
	require.NoError(t, err)
	assert.Equal(t, "http://fhir.org/CodeSystem/x", sv.URL)
	assert.Equal(t, "v1.0", sv.Version)
	assert.Equal(t, "http://fhir.org/CodeSystem/x|v1.0", sv.String())

	for _, in := range []string{"", "http://x", "http://x|", "|v1"} {
		_, err := ParseSystemVersion(in)
		assert.True(t, IsBadRequest(err), "ParseSystemVersion(%q) should fail bad-request", in)
	}
}
