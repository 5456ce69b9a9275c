package coerce

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses the first YAML document in b into the same tree ParseJSON
// produces. Scalars are typed by their resolved tag: timestamps and binary
// scalars stay strings so the temporal and bytes conversions see the text.
// Aliases are expanded and merge keys ("<<") are applied; a recursive alias
// is a parse error, and so is a document whose values come mostly from
// alias expansion once it grows large.
func ParseYAML(b []byte, opts ...ParseOpt) (*JSONValue, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(b)) > opt.MaxBytes {
		return nil, &ParseError{Code: ParseCodeTruncated, Path: "/", Offset: opt.MaxBytes, Message: "max bytes exceeded"}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, &ParseError{Code: ParseCodeSyntax, Path: "/", Offset: -1, Message: err.Error(), Cause: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return JSONNull(), nil
	}
	w := &yamlWalker{opt: opt, active: map[*yaml.Node]bool{}}
	return w.walk(doc.Content[0], "", 0)
}

type yamlWalker struct {
	opt    ParseOpt
	active map[*yaml.Node]bool

	// decoded counts every materialised node, aliased those produced while
	// expanding an alias.
	decoded, aliased int
	aliasDepth       int
}

// The expansion budget follows the alias ratio yaml.v3 enforces when
// decoding into Go values.
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
)

func allowedAliasRatio(decoded int) float64 {
	switch {
	case decoded <= aliasRatioRangeLow:
		return 0.99
	case decoded >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-aliasRatioRangeLow)/float64(aliasRatioRangeHigh-aliasRatioRangeLow))
	}
}

func (w *yamlWalker) count(n *yaml.Node, path string) error {
	w.decoded++
	if w.aliasDepth > 0 {
		w.aliased++
	}
	if w.aliased > 100 && w.decoded > 1000 && float64(w.aliased)/float64(w.decoded) > allowedAliasRatio(w.decoded) {
		return w.fail(ParseCodeSyntax, path, n, "document contains excessive aliasing")
	}
	return nil
}

func (w *yamlWalker) fail(code, path string, n *yaml.Node, msg string) error {
	if path == "" {
		path = "/"
	}
	return &ParseError{Code: code, Path: path, Offset: -1, Message: msg + " (line " + strconv.Itoa(n.Line) + ")"}
}

func (w *yamlWalker) walk(n *yaml.Node, path string, depth int) (*JSONValue, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return JSONNull(), nil
		}
		return w.walk(n.Content[0], path, depth)
	case yaml.AliasNode:
		if w.active[n.Alias] {
			return nil, w.fail(ParseCodeSyntax, path, n, "recursive alias *"+n.Value)
		}
		w.active[n.Alias] = true
		w.aliasDepth++
		defer func() {
			delete(w.active, n.Alias)
			w.aliasDepth--
		}()
		return w.walk(n.Alias, path, depth)
	}
	if err := w.count(n, path); err != nil {
		return nil, err
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return w.scalar(n, path)
	case yaml.SequenceNode:
		if err := w.checkDepth(n, path, depth); err != nil {
			return nil, err
		}
		items := make([]*JSONValue, 0, len(n.Content))
		for i, c := range n.Content {
			v, err := w.walk(c, joinPointer(path, strconv.Itoa(i)), depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return &JSONValue{kind: KindArray, items: items}, nil
	case yaml.MappingNode:
		if err := w.checkDepth(n, path, depth); err != nil {
			return nil, err
		}
		return w.mapping(n, path, depth)
	}
	return nil, w.fail(ParseCodeSyntax, path, n, "unsupported YAML node")
}

func (w *yamlWalker) checkDepth(n *yaml.Node, path string, depth int) error {
	if w.opt.MaxDepth > 0 && depth+1 > w.opt.MaxDepth {
		return w.fail(ParseCodeMaxDepth, path, n, "max depth exceeded")
	}
	return nil
}

func (w *yamlWalker) scalar(n *yaml.Node, path string) (*JSONValue, error) {
	switch n.ShortTag() {
	case "!!null":
		return JSONNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, w.fail(ParseCodeSyntax, path, n, err.Error())
		}
		return JSONBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return JSONInt(i), nil
		}
		// Out of int64 range: keep the magnitude as a float.
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, w.fail(ParseCodeSyntax, path, n, err.Error())
		}
		return JSONFloat(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, w.fail(ParseCodeSyntax, path, n, err.Error())
		}
		return JSONFloat(f), nil
	}
	return JSONString(n.Value), nil
}

func (w *yamlWalker) mapping(n *yaml.Node, path string, depth int) (*JSONValue, error) {
	explicit := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; k.ShortTag() != "!!merge" {
			explicit[yamlKey(k)] = true
		}
	}
	var members []JSONMember
	seen := make(map[string]bool, len(explicit))
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, vn := n.Content[i], n.Content[i+1]
		if k.ShortTag() == "!!merge" {
			merged, err := w.merge(vn, path, depth)
			if err != nil {
				return nil, err
			}
			for _, m := range merged {
				if explicit[m.Key] || seen[m.Key] {
					continue
				}
				seen[m.Key] = true
				members = append(members, m)
			}
			continue
		}
		key := yamlKey(k)
		kpath := joinPointer(path, key)
		if seen[key] {
			switch w.opt.Strictness.OnDuplicateKey {
			case Error:
				return nil, w.fail(ParseCodeDuplicateKey, kpath, k, "key '"+key+"' duplicated")
			case Warn:
				if w.opt.OnIssue != nil {
					w.opt.OnIssue(ParseIssue{Code: ParseCodeDuplicateKey, Path: kpath, Message: "key '" + key + "' duplicated"})
				}
			}
		}
		seen[key] = true
		v, err := w.walk(vn, kpath, depth+1)
		if err != nil {
			return nil, err
		}
		members = append(members, JSONMember{Key: key, Value: v})
	}
	return JSONObject(members...), nil
}

// merge resolves the value of a "<<" key: one mapping or a sequence of
// mappings, earlier ones taking precedence.
func (w *yamlWalker) merge(n *yaml.Node, path string, depth int) ([]JSONMember, error) {
	target := n
	for target.Kind == yaml.AliasNode {
		target = target.Alias
	}
	var sources []*yaml.Node
	switch target.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{n}
	case yaml.SequenceNode:
		sources = target.Content
	default:
		return nil, w.fail(ParseCodeSyntax, path, n, "merge value must be a mapping or a sequence of mappings")
	}
	var out []JSONMember
	have := map[string]bool{}
	for _, s := range sources {
		v, err := w.walk(s, path, depth)
		if err != nil {
			return nil, err
		}
		if v.Kind() != KindObject {
			return nil, w.fail(ParseCodeSyntax, path, s, "merge value must be a mapping or a sequence of mappings")
		}
		for _, m := range v.Members() {
			if have[m.Key] {
				continue
			}
			have[m.Key] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func yamlKey(k *yaml.Node) string {
	for k.Kind == yaml.AliasNode {
		k = k.Alias
	}
	if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!null" {
		return "null"
	}
	return k.Value
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}
