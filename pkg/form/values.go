package form

import (
	"context"
	"time"

	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/gateway"
)

// ISO date layout used for every date value exchanged with the backend.
const dateLayout = "2006-01-02"

// EmployeeProfile is the signed-in user's own employee record, used to
// prefill identity fields on new documents.
type EmployeeProfile struct {
	ID         string
	Name       string
	Department string
	Company    string
}

// employeePrefill maps field names to the profile attribute that fills them.
func (p EmployeeProfile) valueFor(fieldName string) (string, bool) {
	switch fieldName {
	case "employee":
		return p.ID, p.ID != ""
	case "employee_name":
		return p.Name, p.Name != ""
	case "department":
		return p.Department, p.Department != ""
	case "company":
		return p.Company, p.Company != ""
	default:
		return "", false
	}
}

// LookupEmployee resolves the employee record linked to a backend user id.
func LookupEmployee(ctx context.Context, gw Gateway, userID string) (EmployeeProfile, error) {
	records, err := gw.List(ctx, "Employee", gateway.ListOptions{
		Filters: []gateway.Filter{gateway.Eq("user_id", userID)},
		Fields:  []string{"name", "employee_name", "department", "company"},
		Limit:   1,
	})
	if err != nil {
		return EmployeeProfile{}, err
	}
	if len(records) == 0 {
		return EmployeeProfile{}, nil
	}
	record := records[0]
	return EmployeeProfile{
		ID:         record.String("name"),
		Name:       record.String("employee_name"),
		Department: record.String("department"),
		Company:    record.String("company"),
	}, nil
}

// initialValues derives the starting edit state: empty strings everywhere,
// today's date for the posting-date field, and the signed-in employee's
// identity where field names match. Table fields start as empty row lists,
// handled by the controller.
func initialValues(kept []doctype.FieldDescriptor, profile EmployeeProfile, now time.Time) map[string]any {
	values := make(map[string]any, len(kept))
	for _, field := range kept {
		values[field.Name] = ""
		if field.Name == "posting_date" {
			values[field.Name] = now.Format(dateLayout)
			continue
		}
		if v, ok := profile.valueFor(field.Name); ok {
			values[field.Name] = v
		}
	}
	return values
}
