package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xaenox/mindmesh/internal/models"
)

// ValidationError reports the first field that did not match the expected
// shape.
type ValidationError struct {
	Operation models.Operation
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed for %s: field %s: %s", e.Operation, e.Field, e.Reason)
}

// bounds resolves Index and Ref values against the input batch.
type bounds struct {
	n   int
	ids []string
}

type checker struct {
	op models.Operation
	b  bounds
}

func (c *checker) fail(path, format string, args ...any) error {
	return &ValidationError{Operation: c.op, Field: path, Reason: fmt.Sprintf(format, args...)}
}

// check decodes raw and normalizes it against s. The returned object holds
// only declared members: strings, ints, []any and map[string]any.
func (s Schema) check(raw string, b bounds) (map[string]any, error) {
	c := &checker{op: s.Operation, b: b}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, c.fail("$", "invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, c.fail("$", "trailing data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, c.fail("$", "expected object, got %s", typeName(v))
	}
	return c.object(obj, s.Fields, "")
}

func (c *checker) object(in map[string]any, fields []Field, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		path := prefix + f.Name
		v, present := in[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, c.fail(path, "required field is missing")
			}
			out[f.Name] = c.zero(f)
			continue
		}
		nv, err := c.value(v, f, path)
		if err != nil {
			return nil, err
		}
		out[f.Name] = nv
	}
	return out, nil
}

// zero builds the default for an absent optional field.
func (c *checker) zero(f Field) any {
	switch f.Kind {
	case List:
		return []any{}
	case Object:
		out, _ := c.object(map[string]any{}, f.Fields, "")
		return out
	}
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case Int, Index, Ref:
		return 0
	default:
		return ""
	}
}

func (c *checker) value(v any, f Field, path string) (any, error) {
	switch f.Kind {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, c.fail(path, "expected string, got %s", typeName(v))
		}
		if f.NonEmpty && strings.TrimSpace(s) == "" {
			return nil, c.fail(path, "must not be empty")
		}
		return strings.TrimSpace(s), nil

	case Int:
		n, err := c.integer(v, path)
		if err != nil {
			return nil, err
		}
		if n < f.Min || n > f.Max {
			return nil, c.fail(path, "%d outside [%d,%d]", n, f.Min, f.Max)
		}
		return n, nil

	case Enum:
		s, ok := v.(string)
		if !ok {
			return nil, c.fail(path, "expected string, got %s", typeName(v))
		}
		for _, allowed := range f.Values {
			if strings.EqualFold(strings.TrimSpace(s), allowed) {
				return allowed, nil
			}
		}
		return nil, c.fail(path, "%q is not one of %s", s, strings.Join(f.Values, ", "))

	case Index:
		n, err := c.integer(v, path)
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= c.b.n {
			return nil, c.fail(path, "index %d outside [0,%d)", n, c.b.n)
		}
		return n, nil

	case Ref:
		if s, ok := v.(string); ok {
			for i, id := range c.b.ids {
				if id != "" && id == s {
					return i, nil
				}
			}
			return nil, c.fail(path, "%q does not reference an input item", s)
		}
		return c.value(v, Field{Kind: Index}, path)

	case List:
		items, ok := v.([]any)
		if !ok {
			return nil, c.fail(path, "expected list, got %s", typeName(v))
		}
		if f.NonEmpty && len(items) == 0 {
			return nil, c.fail(path, "must not be empty")
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			ep := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return nil, c.fail(ep, "null element")
			}
			nv, err := c.value(item, *f.Elem, ep)
			if err != nil {
				return nil, err
			}
			out = append(out, nv)
		}
		return out, nil

	case Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, c.fail(path, "expected object, got %s", typeName(v))
		}
		return c.object(obj, f.Fields, path+".")
	}
	return nil, c.fail(path, "unsupported field kind %d", f.Kind)
}

func (c *checker) integer(v any, path string) (int, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, c.fail(path, "expected integer, got %s", typeName(v))
	}
	if i, err := num.Int64(); err == nil {
		return int(i), nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, c.fail(path, "expected integer, got %s", num.String())
	}
	return int(f), nil
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
