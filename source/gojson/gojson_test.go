package gojson_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eng "github.com/reoring/coerce/internal/engine"
	"github.com/reoring/coerce/source/gojson"
)

func collect(t *testing.T, ts eng.TokenSource) ([]eng.Token, error) {
	t.Helper()
	var out []eng.Token
	for {
		tok, err := ts.NextToken()
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
		out = append(out, tok)
	}
}

func TestTokens(t *testing.T) {
	toks, err := collect(t, gojson.NewBytes([]byte(`{"a": [1, "s", true, null], "b": {"c": 1.5e3}}`)))
	require.NoError(t, err)
	kinds := make([]eng.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []eng.Kind{
		eng.KindBeginObject,
		eng.KindKey, eng.KindBeginArray, eng.KindNumber, eng.KindString, eng.KindBool, eng.KindNull, eng.KindEndArray,
		eng.KindKey, eng.KindBeginObject, eng.KindKey, eng.KindNumber, eng.KindEndObject,
		eng.KindEndObject,
	}, kinds)
	assert.Equal(t, "a", toks[1].String)
	assert.Equal(t, "1", toks[3].Number)
	assert.Equal(t, "s", toks[4].String)
	assert.Equal(t, "1.5e3", toks[11].Number)
}

func TestStringValuesAreNotKeys(t *testing.T) {
	toks, err := collect(t, gojson.NewBytes([]byte(`{"k": "v", "k2": "v2"}`)))
	require.NoError(t, err)
	require.Len(t, toks, 6)
	assert.Equal(t, eng.KindKey, toks[3].Kind)
	assert.Equal(t, eng.KindString, toks[4].Kind)
}

func TestScalarDocument(t *testing.T) {
	toks, err := collect(t, gojson.NewReader(strings.NewReader(` "only" `)))
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, eng.KindString, toks[0].Kind)
}

func TestTrailingData(t *testing.T) {
	_, err := collect(t, gojson.NewBytes([]byte(`{} {}`)))
	assert.True(t, errors.Is(err, gojson.ErrTrailingData), "got %v", err)
}

func TestTruncatedDocument(t *testing.T) {
	_, err := collect(t, gojson.NewBytes([]byte(`[1, 2`)))
	require.Error(t, err)
	assert.NotErrorIs(t, err, gojson.ErrTrailingData)
}

func TestLocationGrows(t *testing.T) {
	ts := gojson.NewBytes([]byte(`[1]`))
	assert.Equal(t, int64(0), ts.Location())
	_, err := ts.NextToken()
	require.NoError(t, err)
	assert.Greater(t, ts.Location(), int64(0))
}
