package pipeline

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Params holds a stage's configured options.
type Params map[string]any

func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

func (p Params) String(name, def string) string {
	if s, ok := p[name].(string); ok {
		return s
	}
	return def
}

func (p Params) Bool(name string, def bool) bool {
	if b, ok := p[name].(bool); ok {
		return b
	}
	return def
}

func (p Params) Int(name string, def int) int {
	switch v := p[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (p Params) Float(name string, def float64) float64 {
	switch v := p[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// Strings returns a list option; non-string elements are formatted with %v.
func (p Params) Strings(name string) []string {
	switch v := p[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			out = append(out, fmt.Sprint(x))
		}
		return out
	}
	return nil
}

func (p Params) StringMap(name string) map[string]string {
	var src map[string]any
	switch v := p[name].(type) {
	case map[string]string:
		return v
	case map[string]any:
		src = v
	case Params:
		src = v
	default:
		return nil
	}
	out := make(map[string]string, len(src))
	for k, x := range src {
		out[k] = fmt.Sprint(x)
	}
	return out
}

// Names returns the option names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Decode copies the options into v through yaml, honouring yaml struct tags.
func (p Params) Decode(v any) error {
	raw, err := yaml.Marshal(map[string]any(p))
	if err != nil {
		return fmt.Errorf("encoding params: %w", err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding params: %w", err)
	}
	return nil
}

// plainValue turns nested Params, which yaml produces for mappings inside a
// Params, into map[string]any so accessors and stages see one map shape.
func plainValue(v any) any {
	switch x := v.(type) {
	case Params:
		return plainMap(x)
	case map[string]any:
		return plainMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = plainValue(e)
	}
	return out
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
