package schemafix

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// Fixture extensions understood on component properties.
const (
	extFieldType = "x-field-type" // pin the server type tag (Currency, Text Editor, ...)
	extHidden    = "x-hidden"
	extLabel     = "x-label"
)

// ParseOpenAPI loads an OpenAPI document and converts every object schema
// under components into a record type schema. Array properties referencing
// another component become table fields with the referenced component attached
// as the child schema.
func ParseOpenAPI(ctx context.Context, raw []byte) ([]doctype.RecordTypeSchema, error) {
	if len(raw) == 0 {
		return nil, errors.New("schemafix: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schemafix: load openapi document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("schemafix: openapi document has no component schemas")
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	converted := make(map[string]doctype.RecordTypeSchema, len(names))
	for _, name := range names {
		ref := spec.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if !isObjectSchema(ref.Value) {
			continue
		}
		converted[recordTypeName(name, ref.Value)] = componentToSchema(name, ref.Value)
	}

	out := make([]doctype.RecordTypeSchema, 0, len(converted))
	for _, name := range sortedKeys(converted) {
		schema := converted[name]
		for _, table := range schema.Tables() {
			child, ok := converted[table.ChildType()]
			if !ok {
				continue
			}
			if schema.Children == nil {
				schema.Children = make(map[string]doctype.RecordTypeSchema)
			}
			schema.Children[child.RecordType] = child
		}
		out = append(out, schema)
	}
	return out, nil
}

func componentToSchema(name string, src *openapi3.Schema) doctype.RecordTypeSchema {
	schema := doctype.RecordTypeSchema{RecordType: recordTypeName(name, src)}

	required := make(map[string]bool, len(src.Required))
	for _, field := range src.Required {
		required[field] = true
	}

	for _, propName := range sortedRefKeys(src.Properties) {
		ref := src.Properties[propName]
		if ref == nil {
			continue
		}
		descriptor := propertyToDescriptor(propName, ref)
		descriptor.Required = required[propName]
		schema.Fields = append(schema.Fields, descriptor)
	}
	return schema
}

func propertyToDescriptor(name string, ref *openapi3.SchemaRef) doctype.FieldDescriptor {
	descriptor := doctype.FieldDescriptor{Name: name}

	if ref.Value == nil || (ref.Ref != "" && ref.Value.Properties != nil) {
		// Direct reference to another component: a link field.
		descriptor.RawType = "Link"
		descriptor.Options = humanizeComponent(ref.Ref)
	} else {
		src := ref.Value
		descriptor.RawType = rawTypeFor(src)
		descriptor.Options = optionsFor(src)
		if label, ok := src.Extensions[extLabel].(string); ok {
			descriptor.Label = label
		} else if src.Title != "" {
			descriptor.Label = src.Title
		}
		if hidden, ok := src.Extensions[extHidden].(bool); ok {
			descriptor.Hidden = hidden
		}
		if pinned, ok := src.Extensions[extFieldType].(string); ok && pinned != "" {
			descriptor.RawType = pinned
		}
	}

	descriptor.Kind, _ = doctype.NormalizeKind(descriptor.RawType)
	return descriptor
}

func rawTypeFor(src *openapi3.Schema) string {
	switch firstType(src.Type) {
	case "boolean":
		return "Check"
	case "integer":
		return "Int"
	case "number":
		return "Float"
	case "array":
		return "Table"
	case "string":
		if len(src.Enum) > 0 {
			return "Select"
		}
		if src.Format == "date" {
			return "Date"
		}
		if src.Format == "textarea" {
			return "Small Text"
		}
		return "Data"
	default:
		return ""
	}
}

func optionsFor(src *openapi3.Schema) string {
	if len(src.Enum) > 0 {
		choices := make([]string, 0, len(src.Enum))
		for _, value := range src.Enum {
			if s, ok := value.(string); ok && s != "" {
				choices = append(choices, s)
			}
		}
		return strings.Join(choices, "\n")
	}
	if firstType(src.Type) == "array" && src.Items != nil {
		return humanizeComponent(src.Items.Ref)
	}
	return ""
}

func isObjectSchema(src *openapi3.Schema) bool {
	if len(src.Properties) > 0 {
		return true
	}
	return firstType(src.Type) == "object"
}

func recordTypeName(name string, src *openapi3.Schema) string {
	if src != nil && src.Title != "" {
		return src.Title
	}
	return humanizeName(name)
}

// humanizeComponent turns "#/components/schemas/ExpenseClaimDetail" into
// "Expense Claim Detail".
func humanizeComponent(ref string) string {
	if ref == "" {
		return ""
	}
	return humanizeName(path.Base(ref))
}

func humanizeName(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func sortedKeys(m map[string]doctype.RecordTypeSchema) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRefKeys(m openapi3.Schemas) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
