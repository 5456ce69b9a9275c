package engine

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays tokens; each token advances Location by ten bytes.
type sliceSource struct {
	toks []Token
	pos  int
}

func (s *sliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.toks) {
		return Token{}, io.EOF
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

func (s *sliceSource) Location() int64 { return int64(s.pos * 10) }

func obj(members ...Token) []Token {
	out := []Token{{Kind: KindBeginObject}}
	out = append(out, members...)
	return append(out, Token{Kind: KindEndObject})
}

func key(k string) Token { return Token{Kind: KindKey, String: k} }
func num(n string) Token { return Token{Kind: KindNumber, Number: n} }

func drain(ts TokenSource) error {
	for {
		if _, err := ts.NextToken(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	inner := obj(key("x"), num("1"), key("x"), num("2"))
	toks := []Token{{Kind: KindBeginObject}, key("a"), num("1"), key("b")}
	toks = append(toks, inner...)
	toks = append(toks, Token{Kind: KindEndObject})

	require.NoError(t, drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{})))

	var seen []SimpleIssue
	sink := func(si SimpleIssue) { seen = append(seen, si) }
	require.NoError(t, drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{OnDuplicate: DupWarn, IssueSink: sink})))
	require.Len(t, seen, 1)
	assert.Equal(t, CodeDuplicateKey, seen[0].Code)
	assert.Equal(t, "/b/x", seen[0].Path)

	err := drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{OnDuplicate: DupError}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "/b/x", ie.Path)
	assert.Equal(t, "key 'x' duplicated", ie.Error())
}

func TestEnforce_SiblingObjectsHaveSeparateKeySets(t *testing.T) {
	toks := []Token{{Kind: KindBeginArray}}
	toks = append(toks, obj(key("a"), num("1"))...)
	toks = append(toks, obj(key("a"), num("2"))...)
	toks = append(toks, Token{Kind: KindEndArray})
	assert.NoError(t, drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{OnDuplicate: DupError})))
}

func TestEnforce_MaxDepth(t *testing.T) {
	toks := []Token{{Kind: KindBeginArray}, {Kind: KindBeginArray}, num("1"), {Kind: KindEndArray}, {Kind: KindEndArray}}
	require.NoError(t, drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{MaxDepth: 2})))

	err := drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{MaxDepth: 1}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, CodeMaxDepth, ie.Code)
	assert.Equal(t, "/0", ie.Path)
}

func TestEnforce_MaxBytes(t *testing.T) {
	toks := obj(key("a"), num("1"), key("b"), num("2"))
	err := drain(WrapWithEnforcement(&sliceSource{toks: toks}, EnforceOptions{MaxBytes: 25}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, CodeTruncated, ie.Code)
	assert.Equal(t, int64(30), ie.Offset)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "{", KindBeginObject.String())
	assert.Equal(t, "null", KindNull.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.True(t, KindNumber.IsScalar())
	assert.False(t, KindKey.IsScalar())
}
