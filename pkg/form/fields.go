package form

import (
	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/notify"
)

// System fields that never render, regardless of any other flag.
var alwaysExcluded = map[string]struct{}{
	"amended_from":  {},
	"naming_series": {},
}

// richContentFields stay visible even when server-hidden; they carry rich
// HTML bodies the client renders itself.
var richContentFields = map[string]struct{}{
	"content":     {},
	"description": {},
}

// Renderable filters a schema into the renderable field set and the table
// descriptors, applying the same rules the controller uses. Renderers call it
// for child schemas.
func Renderable(schema doctype.RecordTypeSchema, hiddenFields []string, warnings notify.WarningSink) (kept, tables []doctype.FieldDescriptor) {
	return deriveFields(schema, hiddenFields, warnings)
}

// deriveFields filters the schema down to the renderable top-level set:
// supported kinds only, hidden fields dropped (except the rich-content
// allow-list), caller exclusions and system fields removed. Table descriptors
// are collected separately; they follow their own child-schema flow.
func deriveFields(schema doctype.RecordTypeSchema, hiddenFields []string, warnings notify.WarningSink) (kept, tables []doctype.FieldDescriptor) {
	excluded := make(map[string]struct{}, len(hiddenFields))
	for _, name := range hiddenFields {
		excluded[name] = struct{}{}
	}

	for _, field := range schema.Fields {
		if _, ok := alwaysExcluded[field.Name]; ok {
			continue
		}
		if _, ok := excluded[field.Name]; ok {
			continue
		}
		if !doctype.Supported(field.RawType) {
			continue
		}
		if field.Hidden {
			if _, allowed := richContentFields[field.Name]; !allowed {
				continue
			}
		}
		if field.Kind == doctype.KindTable {
			tables = append(tables, field)
			continue
		}
		if field.Kind == doctype.KindSelect && len(field.SelectChoices()) == 0 {
			// Intentional graceful degradation: an empty choice list renders
			// nothing, but the drop is surfaced for diagnostics.
			notify.Warnf(warnings, "form", map[string]any{
				"doctype": schema.RecordType,
				"field":   field.Name,
			}, "select field %q dropped: no options", field.Name)
			continue
		}
		kept = append(kept, field)
	}
	return kept, tables
}
