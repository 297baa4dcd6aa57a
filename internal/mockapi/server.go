// Package mockapi implements an in-memory document backend speaking the wire
// contract the gateway expects. Integration tests and the examples run
// against it through httptest.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// Server holds the fake backend state. Register schemas, documents and search
// results, then mount Handler() on an httptest.Server.
type Server struct {
	mu         sync.Mutex
	schemas    map[string][]doctype.FieldDescriptor
	docs       map[string]map[string]doctype.Document
	search     map[string][]map[string]any
	procedures map[string]func(args map[string]any) (any, error)

	// rejectMessages, when set, fails the next save with a validation
	// rejection carrying these messages.
	rejectMessages []string

	// Call counters for assertions.
	SaveCalls   int
	MetaCalls   int
	SearchCalls int

	// LastSavedDoc is the decoded doc payload of the most recent save.
	LastSavedDoc doctype.Document
	// LastAction is the action parameter of the most recent save.
	LastAction string
}

// New returns an empty mock backend.
func New() *Server {
	return &Server{
		schemas:    make(map[string][]doctype.FieldDescriptor),
		docs:       make(map[string]map[string]doctype.Document),
		search:     make(map[string][]map[string]any),
		procedures: make(map[string]func(args map[string]any) (any, error)),
	}
}

// AddSchema registers descriptors served by the metadata method.
func (s *Server) AddSchema(recordType string, fields []doctype.FieldDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[recordType] = fields
}

// AddDocument stores a record served by list and get.
func (s *Server) AddDocument(recordType string, doc doctype.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[recordType] == nil {
		s.docs[recordType] = make(map[string]doctype.Document)
	}
	s.docs[recordType][doc.String("name")] = doc
}

// SetSearchResults registers candidate rows returned for a target type.
func (s *Server) SetSearchResults(targetType string, rows []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search[targetType] = rows
}

// HandleMethod registers a remote procedure.
func (s *Server) HandleMethod(method string, fn func(args map[string]any) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures[method] = fn
}

// RejectNextSave makes the next save fail with a validation rejection.
func (s *Server) RejectNextSave(messages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectMessages = messages
}

// Handler mounts the wire routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/method/hrms.api.get_doctype_fields", s.handleMeta).Methods("GET")
	r.HandleFunc("/api/method/frappe.desk.form.save.savedocs", s.handleSave).Methods("POST")
	r.HandleFunc("/api/v2/method/frappe.desk.search.search_link", s.handleSearch).Methods("POST")
	r.HandleFunc("/api/method/{method:.+}", s.handleProcedure).Methods("POST")
	r.HandleFunc("/api/resource/{doctype}", s.handleList).Methods("GET")
	r.HandleFunc("/api/resource/{doctype}/{name}", s.handleGet).Methods("GET")
	return r
}

// wireField mirrors the metadata payload shape: boolean flags as 0/1 ints.
type wireField struct {
	Fieldname string `json:"fieldname"`
	Label     string `json:"label"`
	Fieldtype string `json:"fieldtype"`
	Reqd      int    `json:"reqd"`
	Hidden    int    `json:"hidden"`
	Options   string `json:"options"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.MetaCalls++
	fields, ok := s.schemas[r.URL.Query().Get("doctype")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"exception":"DoesNotExistError"}`, http.StatusNotFound)
		return
	}

	wire := make([]wireField, 0, len(fields))
	for _, f := range fields {
		wire = append(wire, wireField{
			Fieldname: f.Name,
			Label:     f.Label,
			Fieldtype: f.RawType,
			Reqd:      boolInt(f.Required),
			Hidden:    boolInt(f.Hidden),
			Options:   f.Options,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": wire})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recordType := mux.Vars(r)["doctype"]

	var filters [][3]any
	if raw := r.URL.Query().Get("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			http.Error(w, `{"exception":"invalid filters"}`, http.StatusBadRequest)
			return
		}
	}
	limit := 0
	if raw := r.URL.Query().Get("limit_page_length"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []doctype.Document
	for _, doc := range s.docs[recordType] {
		if matchesFilters(doc, filters) {
			out = append(out, doc)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []doctype.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	doc, ok := s.docs[vars["doctype"]][vars["name"]]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"exception":"DoesNotExistError"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": doc})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"exception":"malformed form"}`, http.StatusBadRequest)
		return
	}

	var doc doctype.Document
	if err := json.Unmarshal([]byte(r.PostFormValue("doc")), &doc); err != nil {
		http.Error(w, `{"exception":"malformed doc"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.SaveCalls++
	s.LastSavedDoc = doc
	s.LastAction = r.PostFormValue("action")
	reject := s.rejectMessages
	s.rejectMessages = nil
	s.mu.Unlock()

	if len(reject) > 0 {
		writeJSON(w, http.StatusExpectationFailed, map[string]any{
			"_server_messages": encodeServerMessages(reject),
		})
		return
	}

	saved := doc.Clone()
	recordType := doc.String("doctype")
	if r.PostFormValue("action") == "Save" {
		saved["name"] = fmt.Sprintf("HR-%s-%05d", initials(recordType), s.nextSequence(recordType))
		delete(saved, "__islocal")
		delete(saved, "__unsaved")
	}
	if r.PostFormValue("action") == "Submit" {
		saved["docstatus"] = 1
	}

	s.mu.Lock()
	if s.docs[recordType] == nil {
		s.docs[recordType] = make(map[string]doctype.Document)
	}
	s.docs[recordType][saved.String("name")] = saved
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": map[string]any{"docs": []doctype.Document{saved}},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, `{"exception":"malformed form"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.SearchCalls++
	rows := s.search[r.PostFormValue("doctype")]
	s.mu.Unlock()

	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": rows})
}

func (s *Server) handleProcedure(w http.ResponseWriter, r *http.Request) {
	method := mux.Vars(r)["method"]

	s.mu.Lock()
	fn, ok := s.procedures[method]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"exception":"method not found"}`, http.StatusNotFound)
		return
	}

	var args map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&args)
	}

	result, err := fn(args)
	if err != nil {
		writeJSON(w, http.StatusExpectationFailed, map[string]any{
			"_server_messages": encodeServerMessages([]string{err.Error()}),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": result})
}

func (s *Server) nextSequence(recordType string) int {
	// Caller does not hold the lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[recordType]) + 1
}

func matchesFilters(doc doctype.Document, filters [][3]any) bool {
	for _, f := range filters {
		field, _ := f[0].(string)
		op, _ := f[1].(string)
		if op != "=" {
			continue
		}
		if doc[field] != f[2] {
			return false
		}
	}
	return true
}

// encodeServerMessages produces the doubly-encoded message envelope: a JSON
// array of JSON-encoded objects.
func encodeServerMessages(messages []string) string {
	encoded := make([]string, 0, len(messages))
	for _, msg := range messages {
		inner, _ := json.Marshal(map[string]string{"message": msg})
		encoded = append(encoded, string(inner))
	}
	outer, _ := json.Marshal(encoded)
	return string(outer)
}

func initials(recordType string) string {
	out := ""
	for _, word := range splitWords(recordType) {
		out += string(word[0])
	}
	if out == "" {
		return "DOC"
	}
	return out
}

func splitWords(s string) []string {
	var out []string
	word := ""
	for _, r := range s {
		if r == ' ' {
			if word != "" {
				out = append(out, word)
			}
			word = ""
			continue
		}
		word += string(r)
	}
	if word != "" {
		out = append(out, word)
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
