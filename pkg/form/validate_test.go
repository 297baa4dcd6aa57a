package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hrkit/hrclient/pkg/doctype"
)

func TestMissingRequired(t *testing.T) {
	kept := []doctype.FieldDescriptor{
		{Name: "employee", Kind: doctype.KindLink, Required: true},
		{Name: "from_date", Kind: doctype.KindDate, Required: true},
		{Name: "half_day", Kind: doctype.KindCheck, Required: true},
		{Name: "reason", Kind: doctype.KindText},
		{Name: "amount", Kind: doctype.KindCurrency, Required: true},
	}

	cases := []struct {
		name   string
		values map[string]any
		want   []string
	}{
		{
			name:   "all absent",
			values: map[string]any{},
			want:   []string{"employee", "from_date", "half_day", "amount"},
		},
		{
			name: "blank strings count as missing",
			values: map[string]any{
				"employee":  "   ",
				"from_date": "",
				"half_day":  true,
				"amount":    "10",
			},
			want: []string{"employee", "from_date"},
		},
		{
			name: "check field must be exactly true",
			values: map[string]any{
				"employee":  "HR-EMP-00001",
				"from_date": "2024-06-01",
				"half_day":  false,
				"amount":    "10",
			},
			want: []string{"half_day"},
		},
		{
			name: "check field with truthy non-bool is missing",
			values: map[string]any{
				"employee":  "HR-EMP-00001",
				"from_date": "2024-06-01",
				"half_day":  1,
				"amount":    "10",
			},
			want: []string{"half_day"},
		},
		{
			name: "nil value is missing",
			values: map[string]any{
				"employee":  nil,
				"from_date": "2024-06-01",
				"half_day":  true,
				"amount":    "10",
			},
			want: []string{"employee"},
		},
		{
			name: "non-string values count as present",
			values: map[string]any{
				"employee":  "HR-EMP-00001",
				"from_date": "2024-06-01",
				"half_day":  true,
				"amount":    12.5,
			},
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := missingRequired(kept, tc.values)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("missing set mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingFieldsErrorMessage(t *testing.T) {
	err := &MissingFieldsError{Fields: []string{"employee", "from_date"}}
	want := "form: required fields missing: employee, from_date"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
