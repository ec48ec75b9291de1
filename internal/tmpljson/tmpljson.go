// Package tmpljson is cmd/algex's JSON surface for template.Node: a thin,
// CLI-only convenience layer that decodes the JSON documents --template
// points at into the Go AST internal/template and the root algex package
// build directly. This is a CLI concern, not engine logic, so it lives
// beside the CLI rather than inside internal/template itself.
//
// Grammar: a plain JSON object is a Container whose values are recursively
// parsed sub-templates; a plain JSON array is a Repetition; a JSON scalar
// (string, number, bool, null) is a Literal. Two directive shapes escape
// that default: {"$sym": "name"} is a Symbol node, and {"$nullable": t} is
// t wrapped in Nullable. Transform has no JSON form, since its forward and
// inverse functions aren't serialisable — callers needing Transform use
// the Go API (package algex) directly instead of the CLI.
package tmpljson

import (
	"encoding/json"
	"fmt"

	"github.com/oxhq/algex/internal/errpolicy"
	"github.com/oxhq/algex/internal/template"
)

// Parse decodes raw JSON into a template.Node per the grammar above.
func Parse(raw []byte) (template.Node, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("tmpljson: %w", err)
	}
	return build(v)
}

func build(v any) (template.Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return buildDefault(v)
	}

	if len(m) == 1 {
		if name, ok := m["$sym"]; ok {
			s, ok := name.(string)
			if !ok {
				return nil, fmt.Errorf("tmpljson: $sym must be a string")
			}
			return template.Symbol(s), nil
		}
		if inner, ok := m["$nullable"]; ok {
			n, err := build(inner)
			if err != nil {
				return nil, err
			}
			return errpolicy.New(n), nil
		}
	}

	fields := make(map[string]template.Node, len(m))
	for k, sub := range m {
		n, err := build(sub)
		if err != nil {
			return nil, err
		}
		fields[k] = n
	}
	return template.Map(fields), nil
}

func buildDefault(v any) (template.Node, error) {
	if list, ok := v.([]any); ok {
		elems := make([]template.Node, len(list))
		for i, sub := range list {
			n, err := build(sub)
			if err != nil {
				return nil, err
			}
			elems[i] = n
		}
		return template.List(elems...), nil
	}
	return template.Lit(v), nil
}
