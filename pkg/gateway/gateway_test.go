package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrkit/hrclient/internal/mockapi"
	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/gateway"
)

func newTestClient(t *testing.T) (*gateway.Client, *mockapi.Server) {
	t.Helper()
	backend := mockapi.New()
	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	client, err := gateway.New(gateway.Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return client, backend
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := gateway.New(gateway.Config{})
	require.Error(t, err)

	client, err := gateway.New(gateway.Config{BaseURL: "https://hr.example.com/"})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestFetchSchemaMapsWireFields(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddSchema("Leave Application", []doctype.FieldDescriptor{
		{Name: "employee", Label: "Employee", RawType: "Link", Options: "Employee", Required: true},
		{Name: "leave_type", Label: "Leave Type", RawType: "Select", Options: "Casual\nSick"},
		{Name: "salary_slip", RawType: "Data", Hidden: true},
		{Name: "signature", RawType: "Signature"},
	})

	schema, err := client.FetchSchema(context.Background(), "Leave Application")
	require.NoError(t, err)

	require.Len(t, schema.Fields, 4)
	employee := schema.Fields[0]
	assert.Equal(t, doctype.KindLink, employee.Kind)
	assert.True(t, employee.Required)
	assert.Equal(t, "Employee", employee.LinkTarget())

	hidden := schema.Fields[2]
	assert.True(t, hidden.Hidden)

	// Unsupported tags survive normalization with an empty kind.
	unsupported := schema.Fields[3]
	assert.False(t, doctype.Supported(unsupported.RawType))
}

func TestFetchSchemaUnknownTypeIsSchemaError(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.FetchSchema(context.Background(), "Nope")
	var schemaErr *gateway.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Nope", schemaErr.RecordType)
}

func TestListWithFilters(t *testing.T) {
	client, backend := newTestClient(t)
	backend.AddDocument("Employee", doctype.Document{"name": "HR-EMP-00001", "user_id": "jane@example.com"})
	backend.AddDocument("Employee", doctype.Document{"name": "HR-EMP-00002", "user_id": "sam@example.com"})

	records, err := client.List(context.Background(), "Employee", gateway.ListOptions{
		Filters: []gateway.Filter{gateway.Eq("user_id", "jane@example.com")},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "HR-EMP-00001", records[0].String("name"))
}

func TestGetNotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Get(context.Background(), "Employee", "HR-EMP-99999")
	var notFound *gateway.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "HR-EMP-99999", notFound.ID)
}

func TestSaveDecodesSavedDoc(t *testing.T) {
	client, backend := newTestClient(t)

	payload := doctype.Document{
		"doctype":   "Expense Claim",
		"name":      "new-expense-claim-1717236000123",
		"__islocal": 1,
		"employee":  "HR-EMP-00001",
	}
	saved, err := client.Save(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.SaveCalls)
	assert.Equal(t, "Save", backend.LastAction)
	assert.NotEqual(t, payload.String("name"), saved.String("name"), "server assigns the authoritative name")
	assert.Equal(t, "HR-EMP-00001", saved.String("employee"))
	assert.NotContains(t, saved, "__islocal")
}

func TestSaveValidationRejection(t *testing.T) {
	client, backend := newTestClient(t)
	backend.RejectNextSave("Insufficient leave balance", "From date after to date")

	_, err := client.Save(context.Background(), doctype.Document{"doctype": "Leave Application"})

	var validation *gateway.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"Insufficient leave balance", "From date after to date"}, validation.Messages)
}

func TestSubmitUsesSavedIdentifier(t *testing.T) {
	client, backend := newTestClient(t)

	saved, err := client.Save(context.Background(), doctype.Document{
		"doctype": "Attendance Request",
		"name":    "new-attendance-request-1",
	})
	require.NoError(t, err)

	require.NoError(t, client.Submit(context.Background(), saved))
	assert.Equal(t, "Submit", backend.LastAction)
	assert.Equal(t, saved.String("name"), backend.LastSavedDoc.String("name"))
}

func TestSearchLinkCapsResults(t *testing.T) {
	client, backend := newTestClient(t)

	rows := make([]map[string]any, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, map[string]any{"value": "HR-EMP", "description": "Somebody"})
	}
	backend.SetSearchResults("Employee", rows)

	got := client.SearchLink(context.Background(), "som", "Employee", gateway.SearchOptions{})
	assert.Len(t, got, gateway.SearchLimit)
	assert.Equal(t, 1, backend.SearchCalls)
}

func TestSearchLinkFailureReturnsEmpty(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client, err := gateway.New(gateway.Config{BaseURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)

	got := client.SearchLink(context.Background(), "som", "Employee", gateway.SearchOptions{})
	assert.Empty(t, got, "search failures must degrade to no candidates")
}

func TestCallWrapsScalarResult(t *testing.T) {
	client, backend := newTestClient(t)
	backend.HandleMethod("hrms.api.checkin", func(args map[string]any) (any, error) {
		if args["log_type"] != "IN" {
			return nil, errors.New("bad log type")
		}
		return "CHECKIN-0001", nil
	})

	result, err := client.Call(context.Background(), "hrms.api.checkin", map[string]any{"log_type": "IN"})
	require.NoError(t, err)
	assert.Equal(t, "CHECKIN-0001", result["message"])
}

func TestCallSurfacesServerMessages(t *testing.T) {
	client, backend := newTestClient(t)
	backend.HandleMethod("hrms.api.checkin", func(args map[string]any) (any, error) {
		return nil, errors.New("Device not recognized")
	})

	_, err := client.Call(context.Background(), "hrms.api.checkin", map[string]any{"log_type": "IN"})
	var procErr *gateway.ProcedureError
	require.ErrorAs(t, err, &procErr)
	assert.Contains(t, procErr.Error(), "Device not recognized")
}

func TestFilterWireShape(t *testing.T) {
	raw, err := gateway.Eq("user_id", "jane@example.com").MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["user_id","=","jane@example.com"]`, string(raw))
}
