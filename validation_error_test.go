package coerce_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/i18n"
)

func sampleError() *coerce.ValidationError {
	lines := coerce.LineErrors{
		coerce.NewLineError(coerce.NewKind(coerce.CodeIntParsing), coerce.JSONString("x")).WithOuter(coerce.Key("a")),
		coerce.NewLineError(coerce.NewKind(coerce.CodeTooShort, "min_length", 2), coerce.JSONArray()).
			WithOuter(coerce.Key("items"), coerce.Index(1)),
	}
	return coerce.NewValidationError("Model", lines)
}

func TestValidationError_Render(t *testing.T) {
	ve := sampleError()
	want := "2 validation errors for Model\n" +
		`a  Value must be a valid integer, unable to parse string as an integer [kind=int_parsing, input_value="x", input_type=string]` + "\n" +
		"items[1]  Input must have at least 2 items [kind=too_short, input_value=[], input_type=array]"
	assert.Equal(t, want, ve.Error())
	assert.Equal(t, 2, ve.ErrorCount())
	assert.Equal(t, "Model", ve.Title())

	one := coerce.NewValidationError("T", coerce.LineErrors{coerce.NewLineError(coerce.NewKind(coerce.CodeMissing), nil)})
	assert.Equal(t, "1 validation error for T\nField required [kind=missing, input_value=null]", one.Error())
}

func TestValidationError_TruncatesLongInput(t *testing.T) {
	long := strings.Repeat("a", 30) + strings.Repeat("b", 30)
	ve := coerce.NewValidationError("T", coerce.LineErrors{
		coerce.NewLineError(coerce.NewKind(coerce.CodeStrType), coerce.JSONString(long)),
	})
	repr := `"` + long + `"`
	want := repr[:25] + "..." + repr[len(repr)-24:]
	assert.Contains(t, ve.Error(), "input_value="+want+",")
}

func TestValidationError_Unwrap(t *testing.T) {
	var err error = sampleError()
	les, ok := coerce.AsLineErrors(err)
	require.True(t, ok)
	require.Len(t, les, 2)
	assert.Equal(t, coerce.CodeTooShort, les[1].Kind.Code)

	// Mutating the copy leaves the aggregate untouched.
	copied := sampleError().LineErrors()
	copied[0].Kind = coerce.NewKind(coerce.CodeMissing)
	assert.Equal(t, coerce.CodeIntParsing, sampleError().LineErrors()[0].Kind.Code)
}

func TestValidationError_JSONRoundTrip(t *testing.T) {
	ve := sampleError()
	b, err := json.Marshal(ve)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "Model", raw["title"])
	assert.Equal(t, float64(2), raw["error_count"])
	first := raw["errors"].([]any)[0].(map[string]any)
	assert.Equal(t, "int_parsing", first["kind"])
	assert.Equal(t, []any{"a"}, first["loc"])
	assert.NotContains(t, first, "context")

	var back coerce.ValidationError
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ve.Error(), back.Error())
	assert.Equal(t, ve.Errors()[1].Loc, back.Errors()[1].Loc)

	assert.Error(t, json.Unmarshal([]byte(`{"title":"T","error_count":3,"errors":[]}`), &back))
}

func TestValidationError_JSONRoundTripKeepsFloats(t *testing.T) {
	lines := coerce.LineErrors{
		coerce.NewLineError(coerce.NewKind(coerce.CodeStrType), coerce.JSONFloat(4.0)).WithOuter(coerce.Key("name")),
		coerce.NewLineError(coerce.NewKind(coerce.CodeGreaterThan, "gt", 2.5), coerce.JSONFloat(1.0)).WithOuter(coerce.Key("score")),
		coerce.NewLineError(coerce.NewKind(coerce.CodeTooShort, "min_length", 5), coerce.JSONArray(coerce.JSONFloat(2.0), coerce.JSONInt(3))),
	}
	ve := coerce.NewValidationError("Model", lines)
	require.Contains(t, ve.Error(), "input_value=4.0, input_type=float")
	require.Contains(t, ve.Error(), "input_value=[2.0, 3]")

	b, err := json.Marshal(ve)
	require.NoError(t, err)
	var back coerce.ValidationError
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ve.Error(), back.Error())
	assert.Equal(t, 4.0, back.Errors()[0].InputValue)
	assert.Equal(t, ve.Errors()[1].Message, back.Errors()[1].Message)
}

func TestFromRecords_RejectsUnknownKinds(t *testing.T) {
	_, err := coerce.FromRecords("T", []coerce.Record{{Kind: "no_such_kind"}})
	require.Error(t, err)
	assert.True(t, coerce.IsFatal(err))
	assert.ErrorIs(t, err, coerce.ErrInvariant)

	_, err = coerce.FromRecords("T", []coerce.Record{{Kind: "too_short", Loc: []any{"a"}}})
	assert.ErrorIs(t, err, coerce.ErrInvariant)

	ve, err := coerce.FromRecords("T", []coerce.Record{{Kind: "too_short", Context: map[string]any{"min_length": 3}}})
	require.NoError(t, err)
	assert.Equal(t, "Input must have at least 3 items", ve.LineErrors()[0].Message())
}

func TestNewKind_PanicsOnMissingContext(t *testing.T) {
	assert.Panics(t, func() { coerce.NewKind(coerce.CodeTooShort) })
	assert.Panics(t, func() { coerce.NewKind("bogus") })
	assert.NotPanics(t, func() { coerce.NewKind(coerce.CodeGreaterThan, "gt", 0) })
}

func TestEveryKnownCodeHasATemplate(t *testing.T) {
	codes := coerce.KnownCodes()
	require.NotEmpty(t, codes)
	for _, c := range codes {
		tmpl, ok := i18n.Template(string(c))
		if !ok {
			t.Fatalf("no message template for %s", c)
		}
		keys, _ := coerce.ContextKeys(c)
		assert.ElementsMatch(t, keys, i18n.Placeholders(tmpl), "placeholders of %s", c)
	}
}

func TestCollect(t *testing.T) {
	var dst coerce.LineErrors
	leaf := coerce.Fail(coerce.NewKind(coerce.CodeIntType), coerce.JSONNull())
	require.NoError(t, coerce.Collect(&dst, leaf, coerce.Key("a"), coerce.Index(0)))
	require.NoError(t, coerce.Collect(&dst, nil, coerce.Key("b")))
	require.Len(t, dst, 1)
	assert.Equal(t, "a[0]", dst[0].Location.String())

	fatal := coerce.Collect(&dst, coerce.Fatal(coerce.ErrRecursionLoop), coerce.Key("x"))
	assert.Equal(t, "coerce: recursion detected at x", fatal.Error())
	assert.Len(t, dst, 1)

	foreign := errors.New("boom")
	assert.Same(t, foreign, coerce.Collect(&dst, foreign))
	assert.NoError(t, coerce.Result(nil))
	assert.Error(t, coerce.Result(dst))
}

func TestFromError(t *testing.T) {
	assert.NoError(t, coerce.FromError("T", nil))

	err := coerce.FromError("T", coerce.Fail(coerce.NewKind(coerce.CodeMissing), nil))
	var ve *coerce.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "T", ve.Title())

	fatal := coerce.Fatal(coerce.ErrDepthExceeded)
	assert.Same(t, fatal, coerce.FromError("T", fatal))
}
