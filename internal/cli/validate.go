package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reoring/coerce"
	"github.com/reoring/coerce/internal/console"
	"github.com/reoring/coerce/validate"
	"github.com/reoring/coerce/yamlloc"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrInvalid is returned by Run when at least one document failed.
var ErrInvalid = errors.New("validation failed")

// ValidateOptions configures a validate run.
type ValidateOptions struct {
	Schema  validate.Validator[any]
	Config  Config
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	// Stdin is read for the path "-".
	Stdin io.Reader
}

// ErrorReport is one validation error with the position it resolved to.
type ErrorReport struct {
	coerce.Record `yaml:",inline"`
	Line          int  `json:"line,omitempty" yaml:"line,omitempty"`
	Column        int  `json:"column,omitempty" yaml:"column,omitempty"`
	Exact         bool `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// FileReport is the outcome for one document.
type FileReport struct {
	File       string        `json:"file" yaml:"file"`
	Valid      bool          `json:"valid" yaml:"valid"`
	Title      string        `json:"title,omitempty" yaml:"title,omitempty"`
	Value      any           `json:"value,omitempty" yaml:"value,omitempty"`
	ErrorCount int           `json:"error_count,omitempty" yaml:"error_count,omitempty"`
	Errors     []ErrorReport `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings   []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Failure describes why the document could not be validated at all.
	Failure string `json:"failure,omitempty" yaml:"failure,omitempty"`

	src []byte
}

// document is a coerce.Source over one file that keeps its own parse
// warnings, so batch workers never share a sink.
type document struct {
	path    string
	data    []byte
	readErr error
	issues  []coerce.ParseIssue
}

func (d *document) Name() string { return d.path }

func (d *document) Input(opt coerce.ParseOpt) (coerce.Input, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	opt.OnIssue = func(is coerce.ParseIssue) { d.issues = append(d.issues, is) }
	if strings.EqualFold(filepath.Ext(d.path), ".json") {
		return coerce.JSONBytes(d.data).Input(opt)
	}
	return coerce.YAMLBytes(d.data).Input(opt)
}

func readDocument(path string, stdin io.Reader) *document {
	d := &document{path: path}
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		d.data, d.readErr = io.ReadAll(stdin)
	} else {
		d.data, d.readErr = os.ReadFile(path)
	}
	if d.readErr != nil {
		d.readErr = fmt.Errorf("failed to read: %w", d.readErr)
	}
	return d
}

// Validate checks every path against opts.Schema in parallel and returns one
// report per path, in order.
func Validate(ctx context.Context, paths []string, opts ValidateOptions) []FileReport {
	logf := newLogf(opts.Stderr, opts.Verbose)
	docs := make([]*document, len(paths))
	srcs := make([]coerce.Source, len(paths))
	for i, p := range paths {
		docs[i] = readDocument(p, opts.Stdin)
		srcs[i] = docs[i]
	}
	cfg := opts.Config
	vopts := []validate.Option{
		validate.WithStrict(cfg.Strict),
		validate.WithParseOpt(cfg.ParseOpt()),
		validate.WithWorkers(cfg.Workers),
	}
	if cfg.MaxDepth > 0 {
		vopts = append(vopts, validate.WithMaxDepth(cfg.MaxDepth))
	}
	logf("validating %d document(s) with %s (strict=%t, workers=%d)", len(paths), opts.Schema.Name(), cfg.Strict, cfg.Workers)

	results := validate.RunBatch(ctx, opts.Schema, srcs, vopts...)
	reports := make([]FileReport, len(paths))
	for i, res := range results {
		reports[i] = buildReport(docs[i], res, logf)
	}
	return reports
}

func buildReport(d *document, res validate.BatchResult[any], logf func(string, ...any)) FileReport {
	r := FileReport{File: d.path, src: d.data}
	for _, is := range d.issues {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s at %s: %s", is.Code, is.Path, is.Message))
	}
	if res.Err == nil {
		r.Valid = true
		r.Value = plain(res.Value)
		return r
	}
	var verr *coerce.ValidationError
	if !errors.As(res.Err, &verr) {
		r.Failure = res.Err.Error()
		return r
	}
	r.Title = verr.Title()
	r.ErrorCount = verr.ErrorCount()
	recs := verr.Errors()
	r.Errors = make([]ErrorReport, len(recs))
	for i, rec := range recs {
		r.Errors[i] = ErrorReport{Record: rec}
	}
	anns, err := yamlloc.Annotate(d.data, verr)
	if err != nil {
		logf("%s: positions unavailable: %v", d.path, err)
		return r
	}
	for i, a := range anns {
		r.Errors[i].Line = a.Position.Line
		r.Errors[i].Column = a.Position.Column
		r.Errors[i].Exact = a.Exact
	}
	return r
}

// Failed counts the reports that are not valid.
func Failed(reports []FileReport) int {
	n := 0
	for _, r := range reports {
		if !r.Valid {
			n++
		}
	}
	return n
}

func newLogf(w io.Writer, verbose bool) func(string, ...any) {
	return func(format string, a ...any) {
		if verbose && w != nil {
			fmt.Fprintln(w, console.FormatVerboseMessage(fmt.Sprintf(format, a...)))
		}
	}
}
