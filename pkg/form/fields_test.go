package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/form"
	"github.com/hrkit/hrclient/pkg/notify"
)

func names(fields []doctype.FieldDescriptor) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

func TestRenderableFiltering(t *testing.T) {
	schema := doctype.RecordTypeSchema{
		RecordType: "Leave Application",
		Fields: []doctype.FieldDescriptor{
			{Name: "naming_series", Kind: doctype.KindSelect, RawType: "Select", Options: "HR-LAP-"},
			{Name: "amended_from", Kind: doctype.KindLink, RawType: "Link", Options: "Leave Application"},
			{Name: "employee", Kind: doctype.KindLink, RawType: "Link", Options: "Employee"},
			{Name: "leave_type", Kind: doctype.KindLink, RawType: "Link", Options: "Leave Type"},
			{Name: "signature", RawType: "Signature"},
			{Name: "salary_slip", Kind: doctype.KindData, RawType: "Data", Hidden: true},
			{Name: "description", Kind: doctype.KindText, RawType: "Text Editor", Hidden: true},
			{Name: "from_date", Kind: doctype.KindDate, RawType: "Date"},
			{Name: "expenses", Kind: doctype.KindTable, RawType: "Table", Options: "Expense Claim Detail"},
		},
	}

	kept, tables := form.Renderable(schema, []string{"leave_type"}, nil)

	wantKept := []string{"employee", "description", "from_date"}
	if diff := cmp.Diff(wantKept, names(kept)); diff != "" {
		t.Fatalf("kept mismatch (-want +got):\n%s", diff)
	}

	wantTables := []string{"expenses"}
	if diff := cmp.Diff(wantTables, names(tables)); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderableDropsEmptySelectWithWarning(t *testing.T) {
	schema := doctype.RecordTypeSchema{
		RecordType: "Attendance Request",
		Fields: []doctype.FieldDescriptor{
			{Name: "reason", Kind: doctype.KindSelect, RawType: "Select", Options: "\n  \n"},
			{Name: "half_day", Kind: doctype.KindCheck, RawType: "Check"},
		},
	}

	var warnings []notify.Warning
	sink := notify.WarningFunc(func(w notify.Warning) { warnings = append(warnings, w) })

	kept, _ := form.Renderable(schema, nil, sink)

	if diff := cmp.Diff([]string{"half_day"}, names(kept)); diff != "" {
		t.Fatalf("kept mismatch (-want +got):\n%s", diff)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %d", len(warnings))
	}
	if warnings[0].Component != "form" {
		t.Fatalf("warning component = %q", warnings[0].Component)
	}
	if got := warnings[0].Fields["field"]; got != "reason" {
		t.Fatalf("warning field = %v", got)
	}
}

func TestRenderableNilWarningSink(t *testing.T) {
	schema := doctype.RecordTypeSchema{
		RecordType: "Attendance Request",
		Fields: []doctype.FieldDescriptor{
			{Name: "reason", Kind: doctype.KindSelect, RawType: "Select"},
		},
	}

	// Dropping with no sink installed must not panic.
	kept, tables := form.Renderable(schema, nil, nil)
	if len(kept) != 0 || len(tables) != 0 {
		t.Fatalf("expected empty result, got %v / %v", kept, tables)
	}
}
