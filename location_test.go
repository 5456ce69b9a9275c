package coerce_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
)

func TestLocation_String(t *testing.T) {
	cases := []struct {
		loc  coerce.Location
		want string
	}{
		{nil, ""},
		{coerce.Location{coerce.Key("a"), coerce.Key("b"), coerce.Index(0)}, "a.b[0]"},
		{coerce.Location{coerce.Index(2), coerce.Key("name")}, "[2].name"},
		{coerce.Location{coerce.Key("a.b"), coerce.Index(0)}, `["a.b"][0]`},
		{coerce.Location{coerce.Key("")}, `[""]`},
		{coerce.Location{coerce.Key("x"), coerce.Key("has space")}, `x["has space"]`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.loc.String())
	}
	assert.Equal(t, "[3]", coerce.Index(3).String())
}

func TestLocation_PointerAndYAMLPath(t *testing.T) {
	loc := coerce.Location{coerce.Key("a/b"), coerce.Key("m~n"), coerce.Index(1)}
	assert.Equal(t, "/a~1b/m~0n/1", loc.Pointer())
	assert.Equal(t, "/", coerce.Location(nil).Pointer())

	assert.Equal(t, "$.spec.items[0]", coerce.Location{coerce.Key("spec"), coerce.Key("items"), coerce.Index(0)}.YAMLPath())
	assert.Equal(t, "$", coerce.Location(nil).YAMLPath())
}

func TestLocation_PrependDoesNotAlias(t *testing.T) {
	inner := coerce.Location{coerce.Key("x")}
	outer := inner.Prepend(coerce.Key("root"), coerce.Index(4))
	assert.Equal(t, "root[4].x", outer.String())
	assert.Equal(t, "x", inner.String())

	appended := inner.Append(coerce.Index(0))
	assert.True(t, appended.Equal(coerce.Location{coerce.Key("x"), coerce.Index(0)}))
	assert.False(t, appended.Equal(inner))
}

func TestLocation_ExportRoundTrip(t *testing.T) {
	loc := coerce.Location{coerce.Key("items"), coerce.Index(3), coerce.Key("0")}
	exported := loc.Export()
	assert.Equal(t, []any{"items", 3, "0"}, exported)

	// After a JSON round trip indices arrive as float64 or json.Number.
	b, err := json.Marshal(exported)
	require.NoError(t, err)
	var decoded []any
	require.NoError(t, json.Unmarshal(b, &decoded))
	back, err := coerce.LocationFromExport(decoded)
	require.NoError(t, err)
	assert.True(t, back.Equal(loc), back.String())

	back, err = coerce.LocationFromExport([]any{"a", json.Number("2")})
	require.NoError(t, err)
	assert.Equal(t, "a[2]", back.String())

	_, err = coerce.LocationFromExport([]any{1.5})
	assert.Error(t, err)
	_, err = coerce.LocationFromExport([]any{true})
	assert.Error(t, err)
}
