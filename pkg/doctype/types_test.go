package doctype_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hrkit/hrclient/pkg/doctype"
)

func TestNormalizeKind(t *testing.T) {
	cases := []struct {
		tag       string
		want      doctype.FieldKind
		supported bool
	}{
		{"Data", doctype.KindData, true},
		{"data", doctype.KindData, true},
		{"  Date  ", doctype.KindDate, true},
		{"Small Text", doctype.KindText, true},
		{"Long Text", doctype.KindText, true},
		{"Text Editor", doctype.KindText, true},
		{"Int", doctype.KindInt, true},
		{"Float", doctype.KindFloat, true},
		{"Currency", doctype.KindCurrency, true},
		{"Select", doctype.KindSelect, true},
		{"Check", doctype.KindCheck, true},
		{"Link", doctype.KindLink, true},
		{"Table", doctype.KindTable, true},
		{"Geolocation", "", false},
		{"Signature", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		kind, ok := doctype.NormalizeKind(tc.tag)
		if ok != tc.supported {
			t.Fatalf("NormalizeKind(%q) supported = %v, want %v", tc.tag, ok, tc.supported)
		}
		if kind != tc.want {
			t.Fatalf("NormalizeKind(%q) = %q, want %q", tc.tag, kind, tc.want)
		}
	}
}

func TestNumericKinds(t *testing.T) {
	numeric := []doctype.FieldKind{doctype.KindInt, doctype.KindFloat, doctype.KindCurrency}
	for _, kind := range numeric {
		if !kind.Numeric() {
			t.Fatalf("expected %q to be numeric", kind)
		}
	}
	if doctype.KindData.Numeric() {
		t.Fatal("expected data kind to be non-numeric")
	}
}

func TestSelectChoices(t *testing.T) {
	field := doctype.FieldDescriptor{
		Kind:    doctype.KindSelect,
		Options: "\nCasual Leave\n  Sick Leave  \n\nPrivilege Leave\n",
	}

	want := []string{"Casual Leave", "Sick Leave", "Privilege Leave"}
	if diff := cmp.Diff(want, field.SelectChoices()); diff != "" {
		t.Fatalf("choices mismatch (-want +got):\n%s", diff)
	}

	empty := doctype.FieldDescriptor{Kind: doctype.KindSelect, Options: "\n  \n"}
	if got := empty.SelectChoices(); got != nil {
		t.Fatalf("expected no choices, got %v", got)
	}

	notSelect := doctype.FieldDescriptor{Kind: doctype.KindData, Options: "a\nb"}
	if got := notSelect.SelectChoices(); got != nil {
		t.Fatalf("expected nil choices for non-select field, got %v", got)
	}
}

func TestLinkTargetAndChildType(t *testing.T) {
	link := doctype.FieldDescriptor{Kind: doctype.KindLink, Options: " Employee "}
	if got := link.LinkTarget(); got != "Employee" {
		t.Fatalf("LinkTarget = %q, want Employee", got)
	}
	if got := link.ChildType(); got != "" {
		t.Fatalf("ChildType on link field = %q, want empty", got)
	}

	table := doctype.FieldDescriptor{Kind: doctype.KindTable, Options: "Expense Claim Detail"}
	if got := table.ChildType(); got != "Expense Claim Detail" {
		t.Fatalf("ChildType = %q, want Expense Claim Detail", got)
	}
	if got := table.LinkTarget(); got != "" {
		t.Fatalf("LinkTarget on table field = %q, want empty", got)
	}
}

func TestDisplayLabel(t *testing.T) {
	labeled := doctype.FieldDescriptor{Name: "leave_type", Label: "Leave Type"}
	if got := labeled.DisplayLabel(); got != "Leave Type" {
		t.Fatalf("DisplayLabel = %q", got)
	}
	unlabeled := doctype.FieldDescriptor{Name: "leave_type", Label: "  "}
	if got := unlabeled.DisplayLabel(); got != "leave_type" {
		t.Fatalf("DisplayLabel fallback = %q", got)
	}
}

func TestSchemaFieldAndTables(t *testing.T) {
	schema := doctype.RecordTypeSchema{
		RecordType: "Expense Claim",
		Fields: []doctype.FieldDescriptor{
			{Name: "employee", Kind: doctype.KindLink},
			{Name: "expenses", Kind: doctype.KindTable, Options: "Expense Claim Detail"},
			{Name: "taxes", Kind: doctype.KindTable, Options: "Expense Taxes and Charges"},
		},
	}

	if _, ok := schema.Field("employee"); !ok {
		t.Fatal("expected employee field")
	}
	if _, ok := schema.Field("missing"); ok {
		t.Fatal("unexpected field lookup hit")
	}

	tables := schema.Tables()
	if len(tables) != 2 || tables[0].Name != "expenses" || tables[1].Name != "taxes" {
		t.Fatalf("unexpected tables: %+v", tables)
	}
}

func TestDocumentClone(t *testing.T) {
	doc := doctype.Document{"name": "HR-EXP-00001", "total": 120.5}
	clone := doc.Clone()
	clone["name"] = "changed"

	if doc.String("name") != "HR-EXP-00001" {
		t.Fatal("clone mutated the original")
	}
	if doc.String("total") != "" {
		t.Fatal("String should return empty for non-string values")
	}
}
