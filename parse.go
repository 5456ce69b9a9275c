package coerce

import (
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/coerce/internal/engine"
	"github.com/reoring/coerce/source/gojson"
)

// Parse error codes.
const (
	ParseCodeSyntax       = "parse_error"
	ParseCodeDuplicateKey = eng.CodeDuplicateKey
	ParseCodeMaxDepth     = eng.CodeMaxDepth
	ParseCodeTruncated    = eng.CodeTruncated
)

// ParseError reports a document that could not be turned into a tree. It is
// not a validation failure: no input exists yet to validate.
type ParseError struct {
	Code    string
	Path    string // JSON Pointer of the offending token ("/" for the root).
	Offset  int64  // Approximate byte offset (-1 when unknown).
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("coerce: %s at %s: %s", e.Code, e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ParseJSON parses a single JSON document into a tree.
func ParseJSON(b []byte, opts ...ParseOpt) (*JSONValue, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(b)) > opt.MaxBytes {
		return nil, &ParseError{Code: ParseCodeTruncated, Path: "/", Offset: opt.MaxBytes, Message: "max bytes exceeded"}
	}
	return parseTokens(gojson.NewBytes(b), opt)
}

// ParseJSONReader parses a single JSON document read from r. When MaxBytes is
// set, at most MaxBytes+1 bytes are read.
func ParseJSONReader(r io.Reader, opts ...ParseOpt) (*JSONValue, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 {
		data, err := io.ReadAll(io.LimitReader(r, opt.MaxBytes+1))
		if err != nil {
			return nil, &ParseError{Code: ParseCodeSyntax, Path: "/", Offset: -1, Message: err.Error(), Cause: err}
		}
		return ParseJSON(data, opt)
	}
	return parseTokens(gojson.NewReader(r), opt)
}

func parseTokens(src eng.TokenSource, opt ParseOpt) (*JSONValue, error) {
	enforced := eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink: func(si eng.SimpleIssue) {
			if opt.OnIssue != nil && si.Code == eng.CodeDuplicateKey && opt.Strictness.OnDuplicateKey == Warn {
				opt.OnIssue(ParseIssue{Code: si.Code, Path: si.Path, Message: si.Message})
			}
		},
	})
	tok, err := enforced.NextToken()
	if err != nil {
		return nil, toParseError(err)
	}
	v, err := decodeTree(enforced, tok)
	if err != nil {
		return nil, toParseError(err)
	}
	if _, err := enforced.NextToken(); err != io.EOF {
		if err == nil {
			err = gojson.ErrTrailingData
		}
		return nil, toParseError(err)
	}
	return v, nil
}

func decodeTree(src eng.TokenSource, tok eng.Token) (*JSONValue, error) {
	switch tok.Kind {
	case eng.KindBeginObject:
		var members []JSONMember
		for {
			kt, err := src.NextToken()
			if err != nil {
				return nil, err
			}
			if kt.Kind == eng.KindEndObject {
				return JSONObject(members...), nil
			}
			if kt.Kind != eng.KindKey {
				return nil, io.ErrUnexpectedEOF
			}
			vt, err := src.NextToken()
			if err != nil {
				return nil, err
			}
			v, err := decodeTree(src, vt)
			if err != nil {
				return nil, err
			}
			members = append(members, JSONMember{Key: kt.String, Value: v})
		}
	case eng.KindBeginArray:
		items := []*JSONValue{}
		for {
			it, err := src.NextToken()
			if err != nil {
				return nil, err
			}
			if it.Kind == eng.KindEndArray {
				return &JSONValue{kind: KindArray, items: items}, nil
			}
			v, err := decodeTree(src, it)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	case eng.KindString:
		return JSONString(tok.String), nil
	case eng.KindNumber:
		return numberValue(tok.Number)
	case eng.KindBool:
		return JSONBool(tok.Bool), nil
	case eng.KindNull:
		return JSONNull(), nil
	}
	return nil, io.ErrUnexpectedEOF
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func toParseError(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &ParseError{Code: ie.Code, Path: ie.Path, Offset: ie.Offset, Message: ie.Message}
	}
	return &ParseError{Code: ParseCodeSyntax, Path: "/", Offset: -1, Message: err.Error(), Cause: err}
}
