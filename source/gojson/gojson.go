// Package gojson provides an engine.TokenSource for JSON backed by
// goccy/go-json.
package gojson

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/coerce/internal/engine"
)

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// countingReader tracks how many bytes the decoder has pulled so far. The
// decoder reads ahead, so the count is an upper bound on consumed input.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type source struct {
	dec   *j.Decoder
	cr    *countingReader
	stack []frame
	done  bool
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
// The stream must hold exactly one JSON value; trailing data is an error.
func NewReader(r io.Reader) eng.TokenSource {
	cr := &countingReader{r: r}
	dec := j.NewDecoder(cr)
	dec.UseNumber()
	return &source{dec: dec, cr: cr}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

// ErrTrailingData reports input left over after the top-level value.
var ErrTrailingData = errors.New("unexpected data after top-level value")

func (s *source) NextToken() (eng.Token, error) {
	if s.done {
		// The top-level value is complete; anything but EOF is trailing data.
		if s.dec.More() {
			return eng.Token{}, ErrTrailingData
		}
		if _, err := s.dec.Token(); err != io.EOF {
			return eng.Token{}, ErrTrailingData
		}
		return eng.Token{}, io.EOF
	}
	tok, err := s.dec.Token()
	if err != nil {
		if err == io.EOF {
			return eng.Token{}, io.ErrUnexpectedEOF
		}
		return eng.Token{}, err
	}
	off := s.cr.n
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: off}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: off}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: off}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: off}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return eng.Token{Kind: eng.KindKey, String: v, Offset: off}, nil
			}
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: off}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: off}, nil
	case j.Number:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: off}, nil
	case float64:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: off}, nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

// valueDone marks the end of a value: the enclosing object expects a key
// again, and a finished top-level value ends the stream.
func (s *source) valueDone() {
	n := len(s.stack)
	if n == 0 {
		s.done = true
		return
	}
	top := &s.stack[n-1]
	if top.kind == kindObject && !top.expectingKey {
		top.expectingKey = true
	}
}

// Location returns the number of bytes read from the input so far.
func (s *source) Location() int64 { return s.cr.n }
