package validate

import (
	"context"

	"github.com/reoring/coerce"
	js "github.com/reoring/coerce/jsonschema"
)

// Validator converts one Input into T. Failures are coerce.LineErrors located
// relative to in; a *coerce.FatalError aborts the whole call.
type Validator[T any] interface {
	Validate(st *State, in coerce.Input) (T, error)
	// Name is the short label used as the location of union branch errors.
	Name() string
	// JSONSchema projects the validator into a JSON Schema representation.
	JSONSchema(p *Projection) (*js.Schema, error)
}

// State is the per-call validation state: the coercion policy, the recursion
// guard and the caller's context. A State belongs to one call.
type State struct {
	Context context.Context
	Strict  bool
	Guard   coerce.RecursionGuard
}

// NewState returns a State configured by opts.
func NewState(ctx context.Context, opts ...Option) *State {
	if ctx == nil {
		ctx = context.Background()
	}
	c := buildConfig(opts)
	return &State{Context: ctx, Strict: c.strict, Guard: coerce.RecursionGuard{MaxDepth: c.maxDepth}}
}

// strict resolves a per-validator override against the call-wide policy.
func (st *State) strict(override *bool) bool {
	if override != nil {
		return *override
	}
	return st.Strict
}

// descend runs fn inside the recursion guard for container in.
func descend[T any](st *State, in coerce.Input, fn func() (T, error)) (T, error) {
	if err := st.Guard.Enter(in); err != nil {
		var zero T
		return zero, err
	}
	defer st.Guard.Leave(in)
	return fn()
}

// Option configures a validation call.
type Option func(*config)

type config struct {
	strict   bool
	maxDepth int
	parse    coerce.ParseOpt
	title    string
	workers  int
}

// WithStrict selects strict coercion for the whole call.
func WithStrict(strict bool) Option { return func(c *config) { c.strict = strict } }

// WithMaxDepth bounds container nesting during the walk (default
// coerce.DefaultMaxDepth).
func WithMaxDepth(n int) Option { return func(c *config) { c.maxDepth = n } }

// WithParseOpt sets the document parse options used by Run for document
// sources.
func WithParseOpt(opt coerce.ParseOpt) Option { return func(c *config) { c.parse = opt } }

// WithTitle overrides the title of the aggregate error (default: the root
// validator's name).
func WithTitle(title string) Option { return func(c *config) { c.title = title } }

// WithWorkers bounds RunBatch parallelism (default: GOMAXPROCS).
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

func buildConfig(opts []Option) config {
	var c config
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

func boolPtr(b bool) *bool { return &b }
