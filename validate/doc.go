// Package validate is the schema layer built on coerce: typed validators for
// scalars, temporals and containers, composed with builders in the style of
// List(Int()).Min(2), and top-level entry points that turn a failed walk into
// one *coerce.ValidationError.
//
// Composite validators never stop at the first failing child. Every child
// failure is collected with its location (for example items[1].name) and the
// whole set is reported at once. Only fatal conditions (a reference cycle in
// native input, nesting beyond the depth limit) abort the walk; they reach the
// caller as *coerce.FatalError, never wrapped in an aggregate.
//
// Typical usage:
//
//	user := validate.Record("User").
//		Field("name", validate.Erase[string](validate.Str().Min(1))).Required().
//		Field("tags", validate.Erase[[]string](validate.List[string](validate.Str()))).
//		Build()
//	v, err := validate.RunJSON(ctx, user, data)
//
// Validators can also be built from core-schema mappings with FromSchema and
// projected into JSON Schema with JSONSchema.
package validate
