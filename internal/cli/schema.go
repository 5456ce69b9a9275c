package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	js "github.com/reoring/coerce/jsonschema"
	"github.com/reoring/coerce/validate"
)

// LoadSchema reads a core schema (YAML or JSON) and compiles it.
func LoadSchema(path string) (validate.Validator[any], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return CompileSchema(data)
}

// CompileSchema compiles a core schema document.
func CompileSchema(data []byte) (validate.Validator[any], error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("schema document is empty")
	}
	v, err := validate.FromSchema(m)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// WriteJSONSchema writes the JSON Schema projection of v. With check set
// the projection is first compiled by an independent JSON Schema
// implementation.
func WriteJSONSchema(w io.Writer, v validate.Validator[any], check bool) error {
	s, err := validate.JSONSchema(v)
	if err != nil {
		return fmt.Errorf("failed to project schema: %w", err)
	}
	out, err := js.Marshal(s)
	if err != nil {
		return err
	}
	if check {
		if err := CheckJSONSchema(out); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// CheckJSONSchema compiles doc with santhosh-tekuri/jsonschema.
func CheckJSONSchema(doc []byte) error {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(string(doc)))
	if err != nil {
		return fmt.Errorf("projection is not valid JSON: %w", err)
	}
	const url = "coerce://projection.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, parsed); err != nil {
		return fmt.Errorf("failed to add projection: %w", err)
	}
	if _, err := c.Compile(url); err != nil {
		return fmt.Errorf("projection does not compile: %w", err)
	}
	return nil
}
