package formatter

import (
	"fmt"
	"sort"
	"strings"

	"dario.cat/mergo"
)

// Template is a message pattern for one error kind.
//
// Singular is rendered once per detail. Plural, when set, is rendered once for
// the whole group if more than one detail of the kind was reported.
type Template struct {
	Singular string `koanf:"singular" json:"singular,omitempty"`
	Plural   string `koanf:"plural" json:"plural,omitempty"`
}

// Language is a nested tree keyed by error-kind segments. A node holding a
// "singular" and/or "plural" string is a template:
//
//	Language{
//		"object": map[string]any{
//			"allowUnknown": map[string]any{"singular": "{path} is not allowed"},
//		},
//	}
//
// Template values may also be used directly as nodes.
type Language map[string]any

// DefaultLanguage returns a fresh copy of the built-in templates.
func DefaultLanguage() Language {
	return Language{
		"object": map[string]any{
			"missing": map[string]any{
				"singular": "{path}{separator}{detail.context.peers.0} or {path}{separator}{detail.context.peers.1} is required",
			},
			"xor": map[string]any{
				"singular": "either {path}{separator}{detail.context.peers.0} or {path}{separator}{detail.context.peers.1} is required, but not both",
			},
			"allowUnknown": map[string]any{
				"singular": "{path} is not allowed",
				"plural":   "the following parameters are not allowed: {paths_str}",
			},
		},
	}
}

// MergeLanguage deep-merges overrides, in order, over base and returns a new
// tree. Neither base nor the overrides are modified. Only the leaves an
// override provides are replaced: overriding "object.allowUnknown.singular"
// keeps the default plural form.
func MergeLanguage(base Language, overrides ...Language) (Language, error) {
	merged, err := normalize(base, "")
	if err != nil {
		return nil, err
	}

	for _, override := range overrides {
		if len(override) == 0 {
			continue
		}

		src, err := normalize(override, "")
		if err != nil {
			return nil, err
		}

		if err := mergo.Merge(&merged, src, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge language: %w", err)
		}
	}

	return Language(merged), nil
}

// Lookup resolves a dotted error kind (e.g. "object.allowUnknown") to its
// template. It reports false when the path does not exist or the node holds
// neither form.
func (l Language) Lookup(kind string) (Template, bool) {
	if kind == "" {
		return Template{}, false
	}

	var node any = map[string]any(l)
	for _, segment := range strings.Split(kind, ".") {
		m, ok := asMap(node)
		if !ok {
			return Template{}, false
		}
		if node, ok = m[segment]; !ok {
			return Template{}, false
		}
	}

	switch t := node.(type) {
	case Template:
		return t, t.Singular != "" || t.Plural != ""
	case *Template:
		if t == nil {
			return Template{}, false
		}
		return *t, t.Singular != "" || t.Plural != ""
	}

	m, ok := asMap(node)
	if !ok {
		return Template{}, false
	}

	singular, _ := m["singular"].(string)
	plural, _ := m["plural"].(string)

	return Template{Singular: singular, Plural: plural}, singular != "" || plural != ""
}

// Kinds lists every error kind that resolves to a template, sorted.
func (l Language) Kinds() []string {
	var kinds []string
	collectKinds(map[string]any(l), "", &kinds)
	sort.Strings(kinds)
	return kinds
}

func collectKinds(m map[string]any, prefix string, out *[]string) {
	for key, value := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		switch value.(type) {
		case Template, *Template:
			*out = append(*out, path)
			continue
		case string:
			if key == "singular" || key == "plural" {
				continue
			}
		}

		child, ok := asMap(value)
		if !ok {
			continue
		}
		if _, ok := child["singular"]; ok {
			*out = append(*out, path)
		} else if _, ok := child["plural"]; ok {
			*out = append(*out, path)
		}
		collectKinds(child, path, out)
	}
}

func asMap(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case Language:
		return map[string]any(m), true
	}
	return nil, false
}

// normalize deep-copies a tree into plain map[string]any nodes, turning
// Template values into maps without empty forms, and rejects template forms
// that are not strings.
func normalize(tree map[string]any, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(tree))

	for key, value := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		switch v := value.(type) {
		case Template:
			out[key] = templateNode(v)
		case *Template:
			if v != nil {
				out[key] = templateNode(*v)
			}
		case map[string]any:
			child, err := normalize(v, path)
			if err != nil {
				return nil, err
			}
			out[key] = child
		case Language:
			child, err := normalize(v, path)
			if err != nil {
				return nil, err
			}
			out[key] = child
		case string:
			out[key] = v
		case nil:
		default:
			if key == "singular" || key == "plural" {
				return nil, fmt.Errorf("language: %s must be a string, got %T", path, value)
			}
			return nil, fmt.Errorf("language: unsupported node %s of type %T", path, value)
		}
	}

	return out, nil
}

func templateNode(t Template) map[string]any {
	node := make(map[string]any, 2)
	if t.Singular != "" {
		node["singular"] = t.Singular
	}
	if t.Plural != "" {
		node["plural"] = t.Plural
	}
	return node
}
