// Package schema describes the JSON each operation expects back from the
// model. One descriptor per operation drives both the output contract
// embedded in prompts and the validator that checks responses.
package schema

import (
	"fmt"
	"strings"

	"github.com/xaenox/mindmesh/internal/models"
)

type Kind int

const (
	String Kind = iota
	Int
	Enum
	// Index is an integer position in the input batch.
	Index
	// Ref is an Index or the id of an input item.
	Ref
	List
	Object
)

// Field declares one JSON member.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	NonEmpty bool
	Min, Max int
	Values   []string
	Elem     *Field
	Fields   []Field
	Default  any
	// Hint is the placeholder shown in the prompt. String hints are quoted
	// on render, others are emitted as is.
	Hint string
	Doc  string
}

// Schema is the expected response shape of one operation.
type Schema struct {
	Operation models.Operation
	Fields    []Field
}

// Shape renders the JSON template the model must follow.
func (s Schema) Shape() string {
	var b strings.Builder
	writeObject(&b, s.Fields, 0)
	return b.String()
}

// Rules lists every field with its type and constraints, one per line.
func (s Schema) Rules() string {
	var lines []string
	collectRules(&lines, s.Fields, "")
	return strings.Join(lines, "\n")
}

func writeObject(b *strings.Builder, fields []Field, depth int) {
	pad := strings.Repeat("    ", depth+1)
	b.WriteString("{\n")
	for i, f := range fields {
		fmt.Fprintf(b, "%s%q: ", pad, f.Name)
		writeValue(b, f, depth+1)
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString("}")
}

func writeValue(b *strings.Builder, f Field, depth int) {
	switch f.Kind {
	case String:
		fmt.Fprintf(b, "%q", f.Hint)
	case Enum:
		if f.Hint != "" {
			fmt.Fprintf(b, "%q", f.Hint)
			return
		}
		fmt.Fprintf(b, "%q", strings.Join(f.Values, "/"))
	case Int:
		if f.Hint != "" {
			b.WriteString(f.Hint)
			return
		}
		fmt.Fprintf(b, "%d-%d", f.Min, f.Max)
	case Index, Ref:
		if f.Hint != "" {
			b.WriteString(f.Hint)
			return
		}
		b.WriteString("0")
	case List:
		if f.Hint != "" {
			b.WriteString(f.Hint)
			return
		}
		b.WriteString("[\n")
		b.WriteString(strings.Repeat("    ", depth+1))
		writeValue(b, *f.Elem, depth+1)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("    ", depth))
		b.WriteString("]")
	case Object:
		writeObject(b, f.Fields, depth)
	}
}

func collectRules(lines *[]string, fields []Field, prefix string) {
	for _, f := range fields {
		path := prefix + f.Name
		*lines = append(*lines, fmt.Sprintf("- %s: %s", path, describe(f)))
		switch f.Kind {
		case Object:
			collectRules(lines, f.Fields, path+".")
		case List:
			if f.Elem.Kind == Object {
				collectRules(lines, f.Elem.Fields, path+"[].")
			}
		}
	}
}

func describe(f Field) string {
	var parts []string
	switch f.Kind {
	case String:
		parts = append(parts, "string")
	case Int:
		parts = append(parts, fmt.Sprintf("integer from %d to %d", f.Min, f.Max))
	case Enum:
		parts = append(parts, "one of "+strings.Join(f.Values, ", "))
	case Index:
		parts = append(parts, "0-based task index")
	case Ref:
		parts = append(parts, "0-based task index")
	case List:
		parts = append(parts, "list of "+elemName(*f.Elem))
	case Object:
		parts = append(parts, "object")
	}
	if f.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "optional")
	}
	if f.NonEmpty {
		parts = append(parts, "non-empty")
	}
	s := strings.Join(parts, ", ")
	if f.Doc != "" {
		s += " (" + f.Doc + ")"
	}
	return s
}

func elemName(f Field) string {
	switch f.Kind {
	case String:
		return "strings"
	case Int:
		return fmt.Sprintf("integers from %d to %d", f.Min, f.Max)
	case Index, Ref:
		return "0-based task indices"
	case Object:
		return "objects"
	default:
		return "values"
	}
}
