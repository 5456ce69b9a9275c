// Package coerce is the input side of a validation engine: it turns JSON
// trees, YAML documents, in-memory Go values and bare strings into typed
// values under strict or lax coercion rules, and records every failure as a
// located line error.
//
//   - A closed set of error kinds with message templates (kinds.go, i18n)
//   - Locations rendered as a.b[0] and exported as JSON-friendly lists
//   - One Input interface with per-representation rules (JSON, native, string)
//   - Recoverable LineErrors versus FatalError (recursion loop, depth limit)
//   - ValidationError aggregates with deterministic rendering and a
//     structured export that round-trips through FromRecords
//
// Design policy:
//   - Validators live in the validate package; this package holds the input
//     and error model they share.
//   - Collect, don't short-circuit: composite validators gather every child
//     failure with Collect and report them together.
//
// Typical usage:
//
//	tree, err := coerce.ParseJSON(data)
//	n, err := tree.AsInt(false)
//	lines, _ := coerce.AsLineErrors(err)
//	verr := coerce.NewValidationError("Model", lines)
package coerce
