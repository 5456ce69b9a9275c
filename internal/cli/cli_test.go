package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const userSchema = `type: typed-dict
title: User
fields:
  - name: name
    schema: {type: str, min_length: 1}
  - name: age
    schema: {type: int, ge: 0}
  - name: tags
    required: false
    schema: {type: set, items_schema: {type: str}}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newOptions(t *testing.T) ValidateOptions {
	t.Helper()
	v, err := CompileSchema([]byte(userSchema))
	require.NoError(t, err)
	return ValidateOptions{Schema: v, Config: DefaultConfig(), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func TestValidate_ReportsPerFileInOrder(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "name: alice\nage: 30\ntags: [b, a]\n")
	bad := writeFile(t, dir, "bad.yaml", "name: \"\"\nage: -1\n")
	broken := writeFile(t, dir, "broken.json", `{"name": "x",`)
	missing := filepath.Join(dir, "absent.yaml")

	reports := Validate(context.Background(), []string{good, bad, broken, missing}, newOptions(t))
	require.Len(t, reports, 4)
	assert.Equal(t, 3, Failed(reports))

	assert.True(t, reports[0].Valid)
	assert.Equal(t, map[string]any{"name": "alice", "age": int64(30), "tags": []any{"a", "b"}}, reports[0].Value)

	r := reports[1]
	assert.False(t, r.Valid)
	assert.Equal(t, "User", r.Title)
	require.Equal(t, 2, r.ErrorCount)
	assert.Equal(t, "string_too_short", r.Errors[0].Kind)
	assert.Equal(t, 1, r.Errors[0].Line)
	assert.Equal(t, "greater_than_equal", r.Errors[1].Kind)
	assert.Equal(t, 2, r.Errors[1].Line)
	assert.True(t, r.Errors[1].Exact)

	assert.Contains(t, reports[2].Failure, "parse_error")
	assert.Contains(t, reports[3].Failure, "failed to read")
}

func TestValidate_DuplicateKeyPolicy(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "dup.json", `{"name": "a", "name": "b", "age": 1}`)

	opts := newOptions(t)
	reports := Validate(context.Background(), []string{p}, opts)
	assert.Contains(t, reports[0].Failure, "duplicate_key")

	opts.Config.DuplicateKeys = "warn"
	reports = Validate(context.Background(), []string{p}, opts)
	require.True(t, reports[0].Valid)
	require.Len(t, reports[0].Warnings, 1)
	assert.Contains(t, reports[0].Warnings[0], "duplicate_key")
}

func TestValidate_StdinAndStrict(t *testing.T) {
	opts := newOptions(t)
	opts.Stdin = strings.NewReader(`{"name": "a", "age": "7"}`)
	reports := Validate(context.Background(), []string{"-"}, opts)
	require.True(t, reports[0].Valid, reports[0].Failure)

	opts.Stdin = strings.NewReader(`{"name": "a", "age": "7"}`)
	opts.Config.Strict = true
	reports = Validate(context.Background(), []string{"-"}, opts)
	require.False(t, reports[0].Valid)
	assert.Equal(t, "int_type", reports[0].Errors[0].Kind)
}

func TestWriteReports_Formats(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "name: bob\nage: old\n")
	reports := Validate(context.Background(), []string{bad}, newOptions(t))

	var text bytes.Buffer
	require.NoError(t, WriteReports(&text, FormatText, reports))
	out := text.String()
	assert.Contains(t, out, "1 validation error for User")
	assert.Contains(t, out, bad+":2:6:")
	assert.Contains(t, out, "age  Value must be a valid integer")
	assert.Contains(t, out, "2 | age: old")

	var js bytes.Buffer
	require.NoError(t, WriteReports(&js, FormatJSON, reports))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	errs := decoded[0]["errors"].([]any)
	first := errs[0].(map[string]any)
	assert.Equal(t, "int_parsing", first["kind"])
	assert.Equal(t, float64(2), first["line"])

	var ys bytes.Buffer
	require.NoError(t, WriteReports(&ys, FormatYAML, reports))
	var ydecoded []map[string]any
	require.NoError(t, yaml.Unmarshal(ys.Bytes(), &ydecoded))
	assert.Equal(t, false, ydecoded[0]["valid"])

	assert.Error(t, WriteReports(&bytes.Buffer{}, "xml", reports))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "coerce.yaml", "strict: true\nformat: json\nworkers: 2\nduplicate_keys: warn\n")
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "en", cfg.Language)

	_, err = LoadConfig(writeFile(t, dir, "unknown.yaml", "colour: red\n"))
	assert.Error(t, err)
	_, err = LoadConfig(writeFile(t, dir, "badfmt.yaml", "format: xml\n"))
	assert.Error(t, err)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWriteJSONSchema_Check(t *testing.T) {
	v, err := CompileSchema([]byte(userSchema))
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, WriteJSONSchema(&out, v, true))
	assert.Contains(t, out.String(), `"$schema": "https://json-schema.org/draft/2020-12/schema"`)
	assert.Contains(t, out.String(), `"required"`)

	assert.Error(t, CheckJSONSchema([]byte(`{"type": 12}`)))
}

func TestCompileSchema_Errors(t *testing.T) {
	_, err := CompileSchema([]byte(""))
	assert.Error(t, err)
	_, err = CompileSchema([]byte("type: nope\n"))
	assert.Error(t, err)
}

func TestWriteKinds(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteKinds(&out))
	assert.Contains(t, out.String(), "missing")
	assert.Contains(t, out.String(), "Field required")
	assert.Contains(t, out.String(), "too_short")
}
