package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// submitAfterSave names the record types that require a workflow-submit step
// after a successful save.
var submitAfterSave = map[string]struct{}{
	"Attendance Request": {},
	"Shift Request":      {},
}

// RequiresSubmit reports whether a record type needs the post-save workflow
// submission.
func RequiresSubmit(recordType string) bool {
	_, ok := submitAfterSave[recordType]
	return ok
}

// TempID generates the client-only temporary identifier for an unsaved
// record: new-<record-type-lowercased-with-spaces-as-hyphens>-<epoch-millis>.
func TempID(recordType string, now time.Time) string {
	slug := strings.ReplaceAll(strings.ToLower(recordType), " ", "-")
	return fmt.Sprintf("new-%s-%d", slug, now.UnixMilli())
}

// buildPayload assembles the document sent to the gateway: every top-level
// value plus the required system attributes, with each non-empty table's rows
// stamped with parent linkage and a 1-based order index.
func buildPayload(recordType string, values map[string]any, tables []doctype.FieldDescriptor, rows map[string][]doctype.Document, now time.Time) doctype.Document {
	tempID := TempID(recordType, now)

	payload := make(doctype.Document, len(values)+8)
	for name, value := range values {
		payload[name] = value
	}
	payload["doctype"] = recordType
	payload["name"] = tempID
	payload["__islocal"] = 1
	payload["__unsaved"] = 1
	payload["docstatus"] = 0

	for _, table := range tables {
		tableRows := rows[table.Name]
		if len(tableRows) == 0 {
			continue
		}
		stamped := make([]doctype.Document, 0, len(tableRows))
		for i, row := range tableRows {
			out := row.Clone()
			out["doctype"] = table.ChildType()
			out["parent"] = tempID
			out["parentfield"] = table.Name
			out["parenttype"] = recordType
			out["idx"] = i + 1
			stamped = append(stamped, out)
		}
		payload[table.Name] = stamped
	}
	return payload
}
