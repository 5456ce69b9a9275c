package validate

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/reoring/coerce"
)

// Run validates in with v as one top-level call. Recoverable failures are
// returned as a single *coerce.ValidationError titled after v (or
// WithTitle); a fatal condition is returned as the *coerce.FatalError itself.
func Run[T any](ctx context.Context, v Validator[T], in coerce.Input, opts ...Option) (T, error) {
	c := buildConfig(opts)
	return run(ctx, v, in, c)
}

func run[T any](ctx context.Context, v Validator[T], in coerce.Input, c config) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st := &State{Context: ctx, Strict: c.strict, Guard: coerce.RecursionGuard{MaxDepth: c.maxDepth}}
	x, err := v.Validate(st, in)
	if err != nil {
		var zero T
		title := c.title
		if title == "" {
			title = v.Name()
		}
		return zero, coerce.FromError(title, err)
	}
	return x, nil
}

// RunFrom obtains the input from src (parsing documents with the options
// given by WithParseOpt) and validates it. A document that cannot be parsed
// yields its *coerce.ParseError.
func RunFrom[T any](ctx context.Context, v Validator[T], src coerce.Source, opts ...Option) (T, error) {
	c := buildConfig(opts)
	in, err := src.Input(c.parse)
	if err != nil {
		var zero T
		return zero, err
	}
	return run(ctx, v, in, c)
}

// RunJSON validates one JSON document.
func RunJSON[T any](ctx context.Context, v Validator[T], data []byte, opts ...Option) (T, error) {
	return RunFrom(ctx, v, coerce.JSONBytes(data), opts...)
}

// RunYAML validates one YAML document.
func RunYAML[T any](ctx context.Context, v Validator[T], data []byte, opts ...Option) (T, error) {
	return RunFrom(ctx, v, coerce.YAMLBytes(data), opts...)
}

// RunNative validates an in-memory Go value.
func RunNative[T any](ctx context.Context, v Validator[T], x any, opts ...Option) (T, error) {
	return Run(ctx, v, coerce.Native(x), opts...)
}

// BatchResult is the outcome of one source in RunBatch.
type BatchResult[T any] struct {
	Value T
	Err   error
}

// RunBatch validates every source with v using a bounded worker pool
// (WithWorkers). Results keep the order of srcs. Sources not started before
// ctx is cancelled report ctx.Err().
func RunBatch[T any](ctx context.Context, v Validator[T], srcs []coerce.Source, opts ...Option) []BatchResult[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	c := buildConfig(opts)
	workers := c.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]BatchResult[T], len(srcs))
	p := pool.New().WithMaxGoroutines(workers)
	for i, src := range srcs {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			in, err := src.Input(c.parse)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Value, results[i].Err = run(ctx, v, in, c)
		})
	}
	p.Wait()
	return results
}
