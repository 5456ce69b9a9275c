package validate_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
	"github.com/reoring/coerce/validate"
)

func TestRunBatch_KeepsOrder(t *testing.T) {
	v := validate.List[int64](validate.Int())
	srcs := []coerce.Source{
		coerce.JSONBytes([]byte(`[1, 2]`)),
		coerce.JSONBytes([]byte(`[1,`)),
		coerce.YAMLBytes([]byte("- 3\n- x\n")),
		coerce.NativeValue([]int{4}),
	}
	res := validate.RunBatch(ctx, v, srcs, validate.WithWorkers(2))
	require.Len(t, res, 4)

	assert.Equal(t, []int64{1, 2}, res[0].Value)
	var pe *coerce.ParseError
	assert.ErrorAs(t, res[1].Err, &pe)
	assert.Equal(t, []string{"[1] int_parsing"}, failures(t, res[2].Err))
	assert.Equal(t, []int64{4}, res[3].Value)
}

func TestRunBatch_Cancelled(t *testing.T) {
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	res := validate.RunBatch(cctx, validate.Int(), []coerce.Source{coerce.JSONBytes([]byte(`1`))})
	assert.ErrorIs(t, res[0].Err, context.Canceled)
}

func TestRunFrom_ParseOptions(t *testing.T) {
	opt := validate.WithParseOpt(coerce.ParseOpt{Strictness: coerce.Strictness{OnDuplicateKey: coerce.Error}})
	_, err := validate.RunJSON(ctx, validate.Any(), []byte(`{"a": 1, "a": 2}`), opt)
	var pe *coerce.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, coerce.ParseCodeDuplicateKey, pe.Code)
}

type directory struct{ taken map[string]bool }

func TestServices(t *testing.T) {
	v := validate.Record("Account").
		Field("user", validate.Erase[string](validate.Str())).Required().
		Refine("unique", func(st *validate.State, m map[string]any) error {
			dir, err := validate.RequireService[*directory](st)
			if err != nil {
				return err
			}
			if dir.taken[m["user"].(string)] {
				return coerce.Fail(coerce.NewKind(coerce.CodeLiteralError, "expected", "an unused name"), coerce.Native(m["user"]))
			}
			return nil
		}).
		Build()

	_, err := validate.RunJSON(ctx, v, []byte(`{"user": "root"}`))
	assert.ErrorIs(t, err, validate.ErrServiceUnavailable)

	sctx := validate.WithService(ctx, &directory{taken: map[string]bool{"root": true}})
	_, err = validate.RunJSON(sctx, v, []byte(`{"user": "root"}`))
	assert.Equal(t, []string{" literal_error"}, failures(t, err))
	_, err = validate.RunJSON(sctx, v, []byte(`{"user": "alice"}`))
	assert.NoError(t, err)

	_, ok := validate.Service[*directory](validate.NewState(sctx))
	assert.True(t, ok)
	_, ok = validate.Service[string](validate.NewState(sctx))
	assert.False(t, ok)
}

// compileProjection checks that the projection is a valid 2020-12 schema and
// returns it compiled.
func compileProjection(t *testing.T, s *js.Schema) *jsonschema.Schema {
	t.Helper()
	b, err := js.Marshal(s)
	require.NoError(t, err)
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	require.NoError(t, err)
	c := jsonschema.NewCompiler()
	require.NoError(t, c.AddResource("mem://projection.json", doc))
	compiled, err := c.Compile("mem://projection.json")
	require.NoError(t, err, string(b))
	return compiled
}

func instance(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(s)))
	require.NoError(t, err)
	return v
}

func TestJSONSchema_Projection(t *testing.T) {
	v := validate.Record("User").
		Field("name", validate.Erase[string](validate.Str().Min(1).Max(10))).Required().
		Field("age", validate.Erase[int64](validate.Int().Ge(0).Lt(150))).Required().
		Field("tags", validate.Erase[map[string]struct{}](validate.Set[string](validate.Str()))).Default([]any{}).
		Field("nick", validate.Optional(validate.Erase[string](validate.Str()))).
		Extra(validate.ExtraForbid).
		Build()

	s, err := validate.JSONSchema(v)
	require.NoError(t, err)
	assert.Equal(t, js.Draft, s.SchemaURI)
	assert.Equal(t, "User", s.Title)
	assert.Equal(t, []string{"name", "age"}, s.Required)

	compiled := compileProjection(t, s)
	assert.NoError(t, compiled.Validate(instance(t, `{"name": "a", "age": 3, "tags": ["x"], "nick": null}`)))
	assert.Error(t, compiled.Validate(instance(t, `{"name": "", "age": 3}`)))
	assert.Error(t, compiled.Validate(instance(t, `{"name": "a", "age": 3, "other": 1}`)))
	assert.Error(t, compiled.Validate(instance(t, `{"name": "a", "age": 150}`)))
}

func TestJSONSchema_RecursiveDefinitions(t *testing.T) {
	v, err := validate.FromSchema(map[string]any{
		"type":   "definitions",
		"schema": map[string]any{"type": "definition-ref", "schema_ref": "Node"},
		"definitions": []any{map[string]any{
			"ref":  "Node",
			"type": "typed-dict",
			"fields": []any{
				map[string]any{"name": "value", "schema": map[string]any{"type": "int"}},
				map[string]any{"name": "children", "schema": map[string]any{
					"type": "list", "items_schema": map[string]any{"type": "definition-ref", "schema_ref": "Node"},
				}},
			},
		}},
	})
	require.NoError(t, err)

	_, err = validate.RunJSON(ctx, v, []byte(`{"value": 1, "children": [{"value": "x", "children": []}]}`))
	assert.Equal(t, []string{"children[0].value int_parsing"}, failures(t, err))

	s, err := validate.JSONSchema(v)
	require.NoError(t, err)
	compiled := compileProjection(t, s)
	assert.NoError(t, compiled.Validate(instance(t, `{"value": 1, "children": [{"value": 2, "children": []}]}`)))
	assert.Error(t, compiled.Validate(instance(t, `{"value": 1, "children": [{"value": "x", "children": []}]}`)))
}

func TestJSONSchema_SharedDefinitionAnchorsOnce(t *testing.T) {
	ref := map[string]any{"type": "definition-ref", "schema_ref": "Item"}
	v, err := validate.FromSchema(map[string]any{
		"type": "definitions",
		"schema": map[string]any{"type": "typed-dict", "fields": []any{
			map[string]any{"name": "first", "schema": ref},
			map[string]any{"name": "second", "schema": ref},
		}},
		"definitions": []any{map[string]any{
			"ref":  "Item",
			"type": "typed-dict",
			"fields": []any{
				map[string]any{"name": "id", "schema": map[string]any{"type": "int"}},
				map[string]any{"name": "next", "required": false, "schema": map[string]any{"type": "nullable", "schema": ref}},
			},
		}},
	})
	require.NoError(t, err)

	s, err := validate.JSONSchema(v)
	require.NoError(t, err)
	b, err := js.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, []byte(`"$anchor"`)), string(b))

	compiled := compileProjection(t, s)
	assert.NoError(t, compiled.Validate(instance(t, `{"first": {"id": 1}, "second": {"id": 2, "next": {"id": 3}}}`)))
	assert.Error(t, compiled.Validate(instance(t, `{"first": {"id": 1}, "second": {"id": "x"}}`)))
}

func TestJSONSchema_ConcurrentProjectionsOfOneLazy(t *testing.T) {
	var node validate.Validator[map[string]any]
	node = validate.Lazy("Node", func() validate.Validator[map[string]any] {
		return validate.Record("Node").
			Field("value", validate.Erase[int64](validate.Int())).Required().
			Field("children", validate.Erase[[]map[string]any](validate.List[map[string]any](node))).
			Build()
	})

	p := pool.NewWithResults[*js.Schema]().WithErrors()
	for i := 0; i < 32; i++ {
		p.Go(func() (*js.Schema, error) { return validate.JSONSchema(node) })
	}
	schemas, err := p.Wait()
	require.NoError(t, err)
	require.Len(t, schemas, 32)
	for _, s := range schemas {
		assert.Equal(t, "Node", s.Anchor)
		assert.Empty(t, s.Ref)
		assert.Equal(t, "#Node", s.Properties["children"].Items.(*js.Schema).Ref)
	}
}

func TestJSONSchema_TupleAndUnion(t *testing.T) {
	v := validate.Union(
		validate.Erase[[]any](validate.Tuple(validate.Erase[int64](validate.Int()), validate.Literal("a", "b"))),
		validate.None(),
	)
	s, err := validate.JSONSchema(v)
	require.NoError(t, err)
	compiled := compileProjection(t, s)
	assert.NoError(t, compiled.Validate(instance(t, `[1, "a"]`)))
	assert.NoError(t, compiled.Validate(instance(t, `null`)))
	assert.Error(t, compiled.Validate(instance(t, `[1, "a", 2]`)))
	assert.Error(t, compiled.Validate(instance(t, `[1, "c"]`)))
}

func TestNewState(t *testing.T) {
	st := validate.NewState(nil, validate.WithStrict(true), validate.WithMaxDepth(3))
	assert.True(t, st.Strict)
	assert.Equal(t, 3, st.Guard.MaxDepth)
	assert.NotNil(t, st.Context)
	assert.False(t, errors.Is(st.Context.Err(), context.Canceled))
}
