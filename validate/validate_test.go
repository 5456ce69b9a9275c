package validate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/validate"
)

var ctx = context.Background()

// failures unwraps a *coerce.ValidationError into "loc kind" pairs.
func failures(t *testing.T, err error) []string {
	t.Helper()
	var ve *coerce.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *coerce.ValidationError, got %T: %v", err, err)
	}
	out := make([]string, 0, ve.ErrorCount())
	for _, le := range ve.LineErrors() {
		out = append(out, le.Location.String()+" "+string(le.Kind.Code))
	}
	return out
}

func TestList_ReportsEveryFailure(t *testing.T) {
	v := validate.List[int64](validate.Int()).Min(3)
	_, err := validate.RunJSON(ctx, v, []byte(`[1, "x"]`))
	assert.Equal(t, []string{"[1] int_parsing", " too_short"}, failures(t, err))

	var ve *coerce.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "list[int]", ve.Title())
	too := ve.LineErrors()[1].Kind
	assert.Equal(t, 3, too.Context["min_length"])
	assert.Equal(t, coerce.Context{"min_length": 3}, too.Context)

	got, err := validate.RunJSON(ctx, v, []byte(`[1, "2", 3.0]`))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)

	_, err = validate.RunJSON(ctx, v, []byte(`[1, "2", 3]`), validate.WithStrict(true))
	assert.Equal(t, []string{"[1] int_type"}, failures(t, err))
}

func item() validate.Validator[map[string]any] {
	return validate.Record("Item").
		Field("id", validate.Erase[int64](validate.Int().Ge(1))).Required().
		Field("note", validate.Erase[string](validate.Str())).Default("none").
		Build()
}

func TestRecord_NestedLocations(t *testing.T) {
	user := validate.Record("User").
		Field("name", validate.Erase[string](validate.Str().Min(1))).Required().
		Field("items", validate.Erase[[]map[string]any](validate.List(item()))).Required().
		Extra(validate.ExtraForbid).
		Build()

	_, err := validate.RunJSON(ctx, user, []byte(`{"name": "", "items": [{"id": 1}, {"id": "x"}, {}], "extra": 1}`))
	assert.Equal(t, []string{
		"name string_too_short",
		"items[1].id int_parsing",
		"items[2].id missing",
		"extra extra_forbidden",
	}, failures(t, err))

	got, err := validate.RunJSON(ctx, user, []byte(`{"name": "a", "items": [{"id": 2, "skip": true}]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "a",
		"items": []map[string]any{{"id": int64(2), "note": "none"}},
	}, got)
}

func TestRecord_MissingUsesParentAsInput(t *testing.T) {
	_, err := validate.RunJSON(ctx, item(), []byte(`{"note": "n"}`))
	var ve *coerce.ValidationError
	require.ErrorAs(t, err, &ve)
	rec := ve.Errors()[0]
	assert.Equal(t, "missing", rec.Kind)
	assert.Equal(t, map[string]any{"note": "n"}, rec.InputValue)
	assert.Equal(t, "object", rec.InputType)
}

func TestRecord_ExtraAllowAndRefine(t *testing.T) {
	signup := validate.Record("Signup").
		Field("password", validate.Erase[string](validate.Str())).Required().
		Field("confirm", validate.Erase[string](validate.Str())).Required().
		Extra(validate.ExtraAllow).
		Refine("match", func(_ *validate.State, m map[string]any) error {
			if m["password"] != m["confirm"] {
				return coerce.LineErrors{
					coerce.NewLineError(coerce.NewKind(coerce.CodeLiteralError, "expected", "the password"), coerce.Native(m["confirm"])).
						WithOuter(coerce.Key("confirm")),
				}
			}
			return nil
		}).
		Build()

	got, err := validate.RunNative(ctx, signup, map[string]any{"password": "a", "confirm": "a", "x": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got["x"])

	_, err = validate.RunNative(ctx, signup, map[string]any{"password": "a", "confirm": "b"})
	assert.Equal(t, []string{"confirm literal_error"}, failures(t, err))

	// Refines are skipped while fields still fail.
	_, err = validate.RunNative(ctx, signup, map[string]any{"password": "a"})
	assert.Equal(t, []string{"confirm missing"}, failures(t, err))
}

func TestDict_KeyAndValueFailures(t *testing.T) {
	v := validate.Dict[string, int64](validate.Str().Min(2), validate.Int()).Max(1)
	_, err := validate.RunJSON(ctx, v, []byte(`{"a": "x", "bb": 2}`))
	var ve *coerce.ValidationError
	require.ErrorAs(t, err, &ve)
	recs := ve.Errors()
	require.Len(t, recs, 3)
	assert.Equal(t, []any{"a", "[key]"}, recs[0].Loc)
	assert.Equal(t, "string_too_short", recs[0].Kind)
	assert.Equal(t, []any{"a"}, recs[1].Loc)
	assert.Equal(t, "int_parsing", recs[1].Kind)
	assert.Equal(t, "too_long", recs[2].Kind)
}

func TestSetAndTuple(t *testing.T) {
	set := validate.Set[string](validate.Str()).Min(2)
	_, err := validate.RunJSON(ctx, set, []byte(`["a", "a"]`))
	assert.Equal(t, []string{" too_short"}, failures(t, err))
	got, err := validate.RunJSON(ctx, set, []byte(`["a", "b", "a"]`))
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, got)

	pair := validate.Tuple(validate.Erase[int64](validate.Int()), validate.Erase[string](validate.Str()))
	_, err = validate.RunJSON(ctx, pair, []byte(`[1]`))
	assert.Equal(t, []string{"[1] missing"}, failures(t, err))
	_, err = validate.RunJSON(ctx, pair, []byte(`[1, "a", 3]`))
	assert.Equal(t, []string{" too_long"}, failures(t, err))

	pair.Rest(validate.Erase[int64](validate.Int()))
	tup, err := validate.RunJSON(ctx, pair, []byte(`[1, "a", 3]`))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "a", int64(3)}, tup)
}

func TestUnion(t *testing.T) {
	v := validate.Union(validate.Erase[int64](validate.Int()), validate.Erase[string](validate.Str()))

	got, err := validate.RunJSON(ctx, v, []byte(`"5"`))
	require.NoError(t, err)
	assert.Equal(t, "5", got, "an exact string match wins over int coercion")

	got, err = validate.RunJSON(ctx, v, []byte(`5`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = validate.RunJSON(ctx, v, []byte(`true`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	_, err = validate.RunJSON(ctx, v, []byte(`[]`))
	assert.Equal(t, []string{"int int_type", "str str_type"}, failures(t, err))
}

func TestLiteralNullableAfter(t *testing.T) {
	lit := validate.Literal("a", 1)
	got, err := validate.RunJSON(ctx, lit, []byte(`1`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	_, err = validate.RunJSON(ctx, lit, []byte(`"1"`))
	assert.Equal(t, []string{" literal_error"}, failures(t, err))

	opt := validate.Nullable[int64](validate.Int())
	p, err := validate.RunJSON(ctx, opt, []byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, p)
	p, err = validate.RunJSON(ctx, opt, []byte(`7`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), *p)

	even := validate.After[int64](validate.Int(), "even", func(_ *validate.State, n int64) (int64, error) {
		if n%2 != 0 {
			return 0, coerce.Fail(coerce.NewKind(coerce.CodeMultipleOf, "multiple_of", 2), coerce.Native(n))
		}
		return n / 2, nil
	})
	half, err := validate.RunJSON(ctx, even, []byte(`8`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), half)
	_, err = validate.RunJSON(ctx, even, []byte(`3`))
	assert.Equal(t, []string{" multiple_of"}, failures(t, err))
	assert.Equal(t, "function-after[even, int]", even.Name())
}

func TestStrictOverride(t *testing.T) {
	lax := validate.Int().Strict(false)
	n, err := validate.RunJSON(ctx, lax, []byte(`"5"`), validate.WithStrict(true))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	strict := validate.Str().Strict(true)
	_, err = validate.RunJSON(ctx, strict, []byte(`5`))
	assert.Equal(t, []string{" str_type"}, failures(t, err))
}

func TestStringNormalization(t *testing.T) {
	v := validate.Str().Strip().Lower().Min(2).Pattern(`^[a-z]+$`)
	s, err := validate.RunJSON(ctx, v, []byte(`"  AbC "`))
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
	_, err = validate.RunJSON(ctx, v, []byte(`"a1"`))
	assert.Equal(t, []string{" string_pattern_mismatch"}, failures(t, err))
	assert.Panics(t, func() { validate.Str().Pattern("(") })
}

func TestTemporals(t *testing.T) {
	d, err := validate.RunJSON(ctx, validate.Date(), []byte(`"2024-01-02"`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", d.String())

	_, err = validate.RunJSON(ctx, validate.Date(), []byte(`"2024-01-02T00:00:00"`))
	assert.Equal(t, []string{" date_parsing"}, failures(t, err))
	d, err = validate.RunJSON(ctx, validate.Date().FromDatetime(), []byte(`"2024-01-02T00:00:00"`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", d.String())

	dt, err := validate.RunYAML(ctx, validate.Datetime(), []byte(`2024-01-02 03:04:05`))
	require.NoError(t, err)
	assert.Equal(t, 3, dt.Hour())

	td, err := validate.RunJSON(ctx, validate.Timedelta(), []byte(`"PT90M"`))
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", td.String())
}

func TestFatalErrorsAreNotAggregated(t *testing.T) {
	node := map[string]any{"value": 1}
	node["children"] = []any{node}

	var tree validate.Validator[map[string]any]
	tree = validate.Record("Node").
		Field("value", validate.Erase[int64](validate.Int())).Required().
		Field("children", validate.Erase[[]map[string]any](validate.List(validate.Lazy("Node", func() validate.Validator[map[string]any] { return tree })))).
		Build()

	_, err := validate.RunNative(ctx, tree, node)
	require.Error(t, err)
	var fe *coerce.FatalError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, coerce.ErrRecursionLoop)
	assert.Equal(t, "children[0]", fe.Location.String())
	var ve *coerce.ValidationError
	assert.False(t, errors.As(err, &ve))

	deep := []any{[]any{[]any{1}}}
	nested := validate.List[[]any](validate.List[any](validate.Any()))
	_, err = validate.RunNative(ctx, nested, deep, validate.WithMaxDepth(1))
	assert.ErrorIs(t, err, coerce.ErrDepthExceeded)
}

func TestWithTitle(t *testing.T) {
	_, err := validate.RunJSON(ctx, validate.Int(), []byte(`"x"`), validate.WithTitle("Port"))
	var ve *coerce.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Port", ve.Title())
}
