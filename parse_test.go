package coerce_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
)

func parseErr(t *testing.T, err error) *coerce.ParseError {
	t.Helper()
	var pe *coerce.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return pe
}

func dupOpt(s coerce.Severity, sink func(coerce.ParseIssue)) coerce.ParseOpt {
	return coerce.ParseOpt{Strictness: coerce.Strictness{OnDuplicateKey: s}, OnIssue: sink}
}

func TestParseJSON_Tree(t *testing.T) {
	v, err := coerce.ParseJSON([]byte(`{"b": [1, 2.5, "x", true, null], "a": {"n": 99999999999999999999}}`))
	require.NoError(t, err)
	require.Equal(t, coerce.KindObject, v.Kind())
	assert.Equal(t, "b", v.Members()[0].Key)

	b, _ := v.Member("b")
	kinds := []coerce.ValueKind{}
	for _, it := range b.Items() {
		kinds = append(kinds, it.Kind())
	}
	assert.Equal(t, []coerce.ValueKind{coerce.KindInt, coerce.KindFloat, coerce.KindString, coerce.KindBool, coerce.KindNull}, kinds)

	a, _ := v.Member("a")
	n, _ := a.Member("n")
	assert.Equal(t, coerce.KindFloat, n.Kind())

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), `{"b":`), string(out))
}

func TestParseJSON_DuplicateKeys(t *testing.T) {
	doc := []byte(`{"a": 1, "a": 2}`)

	v, err := coerce.ParseJSON(doc)
	require.NoError(t, err)
	got, _ := v.Member("a")
	assert.Equal(t, int64(2), got.Int())

	var issues []coerce.ParseIssue
	_, err = coerce.ParseJSON(doc, dupOpt(coerce.Warn, func(pi coerce.ParseIssue) { issues = append(issues, pi) }))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, coerce.ParseCodeDuplicateKey, issues[0].Code)
	assert.Equal(t, "/a", issues[0].Path)

	_, err = coerce.ParseJSON(doc, dupOpt(coerce.Error, nil))
	pe := parseErr(t, err)
	assert.Equal(t, coerce.ParseCodeDuplicateKey, pe.Code)
	assert.Equal(t, "/a", pe.Path)

	_, err = coerce.ParseJSON([]byte(`[{"a": 1, "a": 2}]`), dupOpt(coerce.Error, nil))
	assert.Equal(t, "/0/a", parseErr(t, err).Path)
	assert.Equal(t, "coerce: duplicate_key at /0/a: key 'a' duplicated", err.Error())
}

func TestParseJSON_Limits(t *testing.T) {
	_, err := coerce.ParseJSON([]byte(`[[1]]`), coerce.ParseOpt{MaxDepth: 1})
	pe := parseErr(t, err)
	assert.Equal(t, coerce.ParseCodeMaxDepth, pe.Code)
	assert.Equal(t, "/0", pe.Path)

	_, err = coerce.ParseJSON([]byte(`[[1]]`), coerce.ParseOpt{MaxDepth: 2})
	require.NoError(t, err)

	_, err = coerce.ParseJSON([]byte(`"0123456789"`), coerce.ParseOpt{MaxBytes: 4})
	assert.Equal(t, coerce.ParseCodeTruncated, parseErr(t, err).Code)

	_, err = coerce.ParseJSONReader(strings.NewReader(`"0123456789"`), coerce.ParseOpt{MaxBytes: 4})
	assert.Equal(t, coerce.ParseCodeTruncated, parseErr(t, err).Code)
}

func TestParseJSON_Malformed(t *testing.T) {
	for _, doc := range []string{``, `{"a":`, `{} []`} {
		_, err := coerce.ParseJSON([]byte(doc))
		pe := parseErr(t, err)
		assert.Equal(t, coerce.ParseCodeSyntax, pe.Code, doc)
	}
}

func TestParseJSONReader(t *testing.T) {
	v, err := coerce.ParseJSONReader(strings.NewReader(`  {"k": ["v"]}  `))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{"v"}}, v.Interface())
}

func TestSources(t *testing.T) {
	in, err := coerce.JSONBytes([]byte(`null`)).Input(coerce.ParseOpt{})
	require.NoError(t, err)
	assert.True(t, in.IsNone())

	in, err = coerce.YAMLBytes([]byte("a: 1\n")).Input(coerce.ParseOpt{})
	require.NoError(t, err)
	_, err = in.AsMapping(true)
	require.NoError(t, err)

	_, err = coerce.JSONReader(strings.NewReader(`{`)).Input(coerce.ParseOpt{})
	parseErr(t, err)

	assert.Equal(t, "native", coerce.NativeValue(1).Name())
	assert.Equal(t, "yaml", coerce.YAMLBytes(nil).Name())
}
