package doctype

import "strings"

// FieldKind is the closed enumeration of record attribute kinds the client
// understands. Server metadata uses free-form type tags; NormalizeKind is the
// single point that maps them into this enum so the rest of the pipeline can
// dispatch exhaustively.
type FieldKind string

const (
	KindData     FieldKind = "data"     // single-line text
	KindText     FieldKind = "text"     // multi-line text
	KindDate     FieldKind = "date"     // ISO yyyy-MM-dd value
	KindInt      FieldKind = "int"      // integer entry, stored as raw string
	KindFloat    FieldKind = "float"    // decimal entry, stored as raw string
	KindCurrency FieldKind = "currency" // decimal entry with currency affordance
	KindSelect   FieldKind = "select"   // fixed choice list from Options
	KindCheck    FieldKind = "check"    // boolean toggle
	KindLink     FieldKind = "link"     // reference to another record, resolved via search
	KindTable    FieldKind = "table"    // ordered list of child records
)

// serverKinds maps the backend's type tags onto the client enum. Tags outside
// this table are unsupported and excluded from rendering.
var serverKinds = map[string]FieldKind{
	"data":        KindData,
	"small text":  KindText,
	"long text":   KindText,
	"text":        KindText,
	"text editor": KindText,
	"date":        KindDate,
	"int":         KindInt,
	"float":       KindFloat,
	"currency":    KindCurrency,
	"select":      KindSelect,
	"check":       KindCheck,
	"link":        KindLink,
	"table":       KindTable,
}

// NormalizeKind resolves a raw server type tag into a FieldKind. The second
// return reports whether the tag is supported.
func NormalizeKind(tag string) (FieldKind, bool) {
	kind, ok := serverKinds[strings.ToLower(strings.TrimSpace(tag))]
	return kind, ok
}

// Supported reports whether the raw server type tag maps to a known kind.
func Supported(tag string) bool {
	_, ok := NormalizeKind(tag)
	return ok
}

// Numeric reports whether the kind requests a numeric input affordance. Values
// are still stored as raw strings; the affordance is presentation-only.
func (k FieldKind) Numeric() bool {
	switch k {
	case KindInt, KindFloat, KindCurrency:
		return true
	default:
		return false
	}
}

// FieldDescriptor is the server-declared metadata for one attribute of a
// record type. Name is unique within the descriptors returned for one type.
type FieldDescriptor struct {
	Name     string
	Label    string
	Kind     FieldKind
	RawType  string
	Required bool
	Options  string
	Hidden   bool
}

// DisplayLabel prefers the server label and falls back to the field name.
func (d FieldDescriptor) DisplayLabel() string {
	if strings.TrimSpace(d.Label) != "" {
		return d.Label
	}
	return d.Name
}

// LinkTarget returns the referenced record type for link fields.
func (d FieldDescriptor) LinkTarget() string {
	if d.Kind != KindLink {
		return ""
	}
	return strings.TrimSpace(d.Options)
}

// ChildType returns the child record type name for table fields.
func (d FieldDescriptor) ChildType() string {
	if d.Kind != KindTable {
		return ""
	}
	return strings.TrimSpace(d.Options)
}

// SelectChoices splits Options on newlines and drops empty entries. An empty
// result means the field renders nothing.
func (d FieldDescriptor) SelectChoices() []string {
	if d.Kind != KindSelect {
		return nil
	}
	var out []string
	for _, line := range strings.Split(d.Options, "\n") {
		choice := strings.TrimSpace(line)
		if choice == "" {
			continue
		}
		out = append(out, choice)
	}
	return out
}

// RecordTypeSchema is the ordered descriptor set for one record type, plus the
// resolved child schemas for its table fields. Child entries are best-effort;
// a table field whose child schema failed to load has no entry.
type RecordTypeSchema struct {
	RecordType string
	Fields     []FieldDescriptor
	Children   map[string]RecordTypeSchema
}

// Field looks up a descriptor by name.
func (s RecordTypeSchema) Field(name string) (FieldDescriptor, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Tables returns the table-kind descriptors in schema order.
func (s RecordTypeSchema) Tables() []FieldDescriptor {
	var out []FieldDescriptor
	for _, field := range s.Fields {
		if field.Kind == KindTable {
			out = append(out, field)
		}
	}
	return out
}

// Document is a generic record payload as exchanged with the backend.
type Document map[string]any

// String returns the named attribute as a string, or "" when absent or not a
// string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Clone returns a shallow copy so callers can stamp system attributes without
// mutating form state.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
