package coerce

import "io"

// Source yields the Input of one validation call. Document sources parse on
// demand so that parse options travel with the call, not the source.
type Source interface {
	Input(opt ParseOpt) (Input, error)
	// Name describes the source for diagnostics ("json", "yaml", "native").
	Name() string
}

type jsonBytesSource []byte

func (s jsonBytesSource) Input(opt ParseOpt) (Input, error) { return asInput(ParseJSON(s, opt)) }
func (jsonBytesSource) Name() string                        { return "json" }

type jsonReaderSource struct{ r io.Reader }

func (s jsonReaderSource) Input(opt ParseOpt) (Input, error) {
	return asInput(ParseJSONReader(s.r, opt))
}
func (jsonReaderSource) Name() string { return "json" }

type yamlBytesSource []byte

func (s yamlBytesSource) Input(opt ParseOpt) (Input, error) { return asInput(ParseYAML(s, opt)) }
func (yamlBytesSource) Name() string                        { return "yaml" }

type inputSource struct {
	in   Input
	name string
}

func (s inputSource) Input(ParseOpt) (Input, error) { return s.in, nil }
func (s inputSource) Name() string                  { return s.name }

// JSONBytes wraps a byte slice holding one JSON document as a Source.
func JSONBytes(b []byte) Source { return jsonBytesSource(b) }

// JSONReader wraps an io.Reader holding one JSON document as a Source. The
// reader is consumed by the first call to Input.
func JSONReader(r io.Reader) Source { return jsonReaderSource{r: r} }

// YAMLBytes wraps a byte slice holding a YAML document as a Source.
func YAMLBytes(b []byte) Source { return yamlBytesSource(b) }

// NativeValue wraps an in-memory Go value as a Source. Parse options do not
// apply to it.
func NativeValue(v any) Source { return inputSource{in: Native(v), name: "native"} }

// InputSource wraps an already constructed Input.
func InputSource(in Input) Source { return inputSource{in: in, name: "input"} }

// asInput keeps a nil tree from turning into a non-nil interface holding a
// nil pointer.
func asInput(v *JSONValue, err error) (Input, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
