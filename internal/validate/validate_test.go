package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tx "github.com/gofhir/terminology"
)

type request struct {
	Code   string `param:"code" validate:"required"`
	System string `json:"system" validate:"required_without=ID"`
	ID     string `param:"id"`
	Coding string `param:"coding" validate:"excluded_with=Code"`
	Count  int    `param:"count" validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(request{Code: "AD", System: "http://x"}))
	require.NoError(t, Struct(request{Code: "AD", ID: "CIEL"}))

	tests := []struct {
		name string
		req  request
		want string
	}{
		{"missing code", request{System: "http://x"}, `parameter "code" is required`},
		{"missing system and id", request{Code: "AD"}, `parameter "system" is required when "id" is absent`},
		{"code and coding", request{Code: "AD", ID: "x", Coding: "y"}, `parameter "coding" cannot be combined with "code"`},
		{"negative count", request{Code: "AD", ID: "x", Count: -1}, `parameter "count" must be >= 0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			require.Error(t, err)
			assert.True(t, tx.IsBadRequest(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
