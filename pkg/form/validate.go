package form

import (
	"fmt"
	"strings"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// MissingFieldsError reports a local pre-flight validation failure. No
// network call was made.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("form: required fields missing: %s", strings.Join(e.Fields, ", "))
}

// missingRequired returns the names of required kept fields whose value is
// missing, in field order. A value is missing when it is nil, when a check
// field is anything but exactly true, or when a string trims to empty.
// Non-string, non-bool values count as present. Table row contents are not
// validated here.
func missingRequired(kept []doctype.FieldDescriptor, values map[string]any) []string {
	var missing []string
	for _, field := range kept {
		if !field.Required {
			continue
		}
		value, ok := values[field.Name]
		if !ok || value == nil {
			missing = append(missing, field.Name)
			continue
		}
		if field.Kind == doctype.KindCheck {
			if value != true {
				missing = append(missing, field.Name)
			}
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, field.Name)
		}
	}
	return missing
}
