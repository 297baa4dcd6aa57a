package schemafix

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// yamlSchema is the on-disk YAML shape for one record type fixture. A single
// file may hold several record types separated by document markers.
type yamlSchema struct {
	RecordType string      `yaml:"record_type"`
	Fields     []yamlField `yaml:"fields"`
	Children   []yamlChild `yaml:"children"`
}

type yamlField struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
	Hidden   bool   `yaml:"hidden"`
	Options  string `yaml:"options"`
	// Choices is a convenience alternative to a newline-joined Options value
	// for select fields.
	Choices []string `yaml:"choices"`
}

type yamlChild struct {
	RecordType string      `yaml:"record_type"`
	Fields     []yamlField `yaml:"fields"`
}

// ParseYAML decodes one or more YAML record type documents.
func ParseYAML(raw []byte) ([]doctype.RecordTypeSchema, error) {
	decoder := yaml.NewDecoder(strings.NewReader(string(raw)))
	var out []doctype.RecordTypeSchema
	for {
		var doc yamlSchema
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("schemafix: decode yaml: %w", err)
		}
		schema, err := doc.toSchema()
		if err != nil {
			return nil, err
		}
		out = append(out, schema)
	}
	if len(out) == 0 {
		return nil, errors.New("schemafix: yaml fixture contains no record types")
	}
	return out, nil
}

func (y yamlSchema) toSchema() (doctype.RecordTypeSchema, error) {
	if strings.TrimSpace(y.RecordType) == "" {
		return doctype.RecordTypeSchema{}, errors.New("schemafix: yaml fixture missing record_type")
	}
	schema := doctype.RecordTypeSchema{
		RecordType: y.RecordType,
		Fields:     make([]doctype.FieldDescriptor, 0, len(y.Fields)),
	}
	for _, field := range y.Fields {
		descriptor, err := field.toDescriptor(y.RecordType)
		if err != nil {
			return doctype.RecordTypeSchema{}, err
		}
		schema.Fields = append(schema.Fields, descriptor)
	}
	for _, child := range y.Children {
		childSchema, err := yamlSchema{RecordType: child.RecordType, Fields: child.Fields}.toSchema()
		if err != nil {
			return doctype.RecordTypeSchema{}, err
		}
		if schema.Children == nil {
			schema.Children = make(map[string]doctype.RecordTypeSchema, len(y.Children))
		}
		schema.Children[childSchema.RecordType] = childSchema
	}
	return schema, nil
}

func (y yamlField) toDescriptor(recordType string) (doctype.FieldDescriptor, error) {
	if strings.TrimSpace(y.Name) == "" {
		return doctype.FieldDescriptor{}, fmt.Errorf("schemafix: %s: field missing name", recordType)
	}
	rawType := y.Type
	if strings.TrimSpace(rawType) == "" {
		rawType = "Data"
	}
	kind, _ := doctype.NormalizeKind(rawType)
	options := y.Options
	if options == "" && len(y.Choices) > 0 {
		options = strings.Join(y.Choices, "\n")
	}
	return doctype.FieldDescriptor{
		Name:     y.Name,
		Label:    y.Label,
		Kind:     kind,
		RawType:  rawType,
		Required: y.Required,
		Options:  options,
		Hidden:   y.Hidden,
	}, nil
}
