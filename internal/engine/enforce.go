package engine

import (
	"strconv"
	"strings"
)

// Enforcement wrapper for TokenSource to apply duplicate key handling,
// max depth checks, and max bytes truncation in a streaming fashion.

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// Issue codes reported by the enforcement wrapper.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeMaxDepth     = "max_depth"
	CodeTruncated    = "truncated"
)

// SimpleIssue is a minimal issue representation used by internal helpers.
// Path is an RFC 6901 JSON Pointer ("/" for the root).
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
	Offset  int64
}

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink is an optional callback receiving every finding, including
	// warn-level duplicates that do not stop the stream.
	IssueSink func(SimpleIssue)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type dupFrame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []dupFrame
	depth int
}

func (e *enforcingTokenSource) fail(si SimpleIssue) (Token, error) {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
	return Token{}, IssueError{si}
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	path := e.currentPathForToken(tok)
	npath := normalizeIssuePath(path)

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := dupFrame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f = dupFrame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path}
		}
		e.stack = append(e.stack, f)
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return e.fail(SimpleIssue{Code: CodeMaxDepth, Path: npath, Message: "max depth exceeded", Offset: tok.Offset})
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		if e.depth > 0 {
			e.depth--
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if e.opt.OnDuplicate != DupIgnore {
					if _, ok := top.keys[tok.String]; ok {
						si := SimpleIssue{Code: CodeDuplicateKey, Path: npath, Message: "key '" + tok.String + "' duplicated", Offset: tok.Offset}
						if e.opt.OnDuplicate == DupError {
							return e.fail(si)
						}
						if e.opt.IssueSink != nil {
							e.opt.IssueSink(si)
						}
					}
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	case KindString, KindNumber, KindBool, KindNull:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return e.fail(SimpleIssue{Code: CodeTruncated, Path: npath, Message: "max bytes exceeded", Offset: off})
		}
	}

	return tok, nil
}

// valueDone flips the enclosing object back to expecting a key.
func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingTokenSource) currentPathForToken(tok Token) string {
	if len(e.stack) == 0 {
		if tok.Kind == KindKey {
			return joinJSONPointer("", tok.String)
		}
		return ""
	}

	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		top.pendingKey = tok.String
		return joinJSONPointer(top.path, tok.String)
	case KindBeginObject, KindBeginArray, KindString, KindNumber, KindBool, KindNull:
		if top.kind == kindArray {
			p := joinJSONPointer(top.path, strconv.Itoa(top.nextIndex))
			top.nextIndex++
			return p
		}
		if top.pendingKey != "" || !top.expectingKey {
			return joinJSONPointer(top.path, top.pendingKey)
		}
	}
	return top.path
}

func normalizeIssuePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeJSONPointerToken(s string) string {
	return jsonPointerEscaper.Replace(s)
}

func joinJSONPointer(base, token string) string {
	if base == "" {
		return "/" + escapeJSONPointerToken(token)
	}
	return base + "/" + escapeJSONPointerToken(token)
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
