package coerce_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
)

func TestParseYAML_Scalars(t *testing.T) {
	v, err := coerce.ParseYAML([]byte(`
i: 12
f: 1.5
big: 99999999999999999999
b: yes
t: true
n: ~
d: 2024-01-02
raw: !!binary aGk=
s: "12"
`))
	require.NoError(t, err)
	want := map[string]coerce.ValueKind{
		"i": coerce.KindInt, "f": coerce.KindFloat, "big": coerce.KindFloat,
		"b": coerce.KindString, "t": coerce.KindBool, "n": coerce.KindNull,
		"d": coerce.KindString, "raw": coerce.KindString, "s": coerce.KindString,
	}
	for key, kind := range want {
		m, ok := v.Member(key)
		require.True(t, ok, key)
		assert.Equal(t, kind, m.Kind(), key)
	}
	d, _ := v.Member("d")
	assert.Equal(t, "2024-01-02", d.Str())
}

func TestParseYAML_MergeKeys(t *testing.T) {
	v, err := coerce.ParseYAML([]byte(`
base: &base {x: 1, y: 2}
extra: &extra {z: 3, x: 9}
obj:
  <<: [*base, *extra]
  y: 5
`))
	require.NoError(t, err)
	obj, _ := v.Member("obj")
	assert.Equal(t, map[string]any{"x": int64(1), "y": int64(5), "z": int64(3)}, obj.Interface())
}

func TestParseYAML_RecursiveAlias(t *testing.T) {
	_, err := coerce.ParseYAML([]byte("a: &x [1, *x]\n"))
	assert.Equal(t, coerce.ParseCodeSyntax, parseErr(t, err).Code)
}

// aliasBomb builds levels of anchors where each one lists the previous
// anchor ten times.
func aliasBomb(levels int) []byte {
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= levels; i++ {
		refs := strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*a%d, ", i-1), 10), ", ")
		fmt.Fprintf(&b, "a%d: &a%d [%s]\n", i, i, refs)
	}
	return []byte(b.String())
}

func TestParseYAML_ExcessiveAliasing(t *testing.T) {
	doc := aliasBomb(7)
	_, err := coerce.ParseYAML(doc, coerce.ParseOpt{MaxBytes: 1 << 20, MaxDepth: 64})
	pe := parseErr(t, err)
	assert.Equal(t, coerce.ParseCodeSyntax, pe.Code)
	assert.Contains(t, pe.Message, "excessive aliasing")

	// A couple of levels stays well inside the budget.
	v, err := coerce.ParseYAML(aliasBomb(1))
	require.NoError(t, err)
	a1, _ := v.Member("a1")
	assert.Equal(t, 10, a1.Len())
}

func TestParseYAML_DuplicateKeys(t *testing.T) {
	doc := []byte("a: 1\nb:\n  c: 1\n  c: 2\n")
	_, err := coerce.ParseYAML(doc, dupOpt(coerce.Error, nil))
	pe := parseErr(t, err)
	assert.Equal(t, coerce.ParseCodeDuplicateKey, pe.Code)
	assert.Equal(t, "/b/c", pe.Path)

	var issues []coerce.ParseIssue
	v, err := coerce.ParseYAML(doc, dupOpt(coerce.Warn, func(pi coerce.ParseIssue) { issues = append(issues, pi) }))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	b, _ := v.Member("b")
	c, _ := b.Member("c")
	assert.Equal(t, int64(2), c.Int())
}

func TestParseYAML_LimitsAndErrors(t *testing.T) {
	_, err := coerce.ParseYAML([]byte("a: [[1]]\n"), coerce.ParseOpt{MaxDepth: 2})
	pe := parseErr(t, err)
	assert.Equal(t, coerce.ParseCodeMaxDepth, pe.Code)
	assert.Equal(t, "/a/0", pe.Path)

	_, err = coerce.ParseYAML([]byte("a: b\n"), coerce.ParseOpt{MaxBytes: 2})
	assert.Equal(t, coerce.ParseCodeTruncated, parseErr(t, err).Code)

	_, err = coerce.ParseYAML([]byte("a: [1\n"))
	assert.Equal(t, coerce.ParseCodeSyntax, parseErr(t, err).Code)

	v, err := coerce.ParseYAML(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNone())
}
