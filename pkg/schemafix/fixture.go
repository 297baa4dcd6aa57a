package schemafix

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/gateway"
)

// Fixture is an in-memory gateway backed by a fixture Set. It satisfies the
// form controller's gateway contract so forms run end to end with no backend:
// schemas resolve from the Set, saved records land in a per-type store.
type Fixture struct {
	set *Set

	mu   sync.RWMutex
	docs map[string]map[string]doctype.Document
}

// NewFixture wraps a Set in an offline gateway.
func NewFixture(set *Set) *Fixture {
	return &Fixture{
		set:  set,
		docs: make(map[string]map[string]doctype.Document),
	}
}

// FetchSchema resolves a record type schema from the fixture set.
func (f *Fixture) FetchSchema(_ context.Context, recordType string) (doctype.RecordTypeSchema, error) {
	schema, ok := f.set.Lookup(recordType)
	if !ok {
		return doctype.RecordTypeSchema{}, &gateway.SchemaError{
			RecordType: recordType,
			Err:        fmt.Errorf("schemafix: no fixture for %q", recordType),
		}
	}
	return schema, nil
}

// List returns stored records of a type. Filters are not evaluated; fixtures
// hold the handful of records a development session creates.
func (f *Fixture) List(_ context.Context, recordType string, _ gateway.ListOptions) ([]doctype.Document, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	store := f.docs[recordType]
	out := make([]doctype.Document, 0, len(store))
	for _, doc := range store {
		out = append(out, doc.Clone())
	}
	return out, nil
}

// Get returns one stored record by name.
func (f *Fixture) Get(_ context.Context, recordType, id string) (doctype.Document, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if doc, ok := f.docs[recordType][id]; ok {
		return doc.Clone(), nil
	}
	return nil, &gateway.NotFoundError{RecordType: recordType, ID: id}
}

// Save stores the payload under a generated name, mirroring the backend's
// rename of temporary ids on insert.
func (f *Fixture) Save(_ context.Context, payload doctype.Document) (doctype.Document, error) {
	recordType := payload.String("doctype")
	if recordType == "" {
		return nil, fmt.Errorf("schemafix: save payload missing doctype")
	}

	saved := payload.Clone()
	saved["name"] = uuid.NewString()
	delete(saved, "__islocal")
	delete(saved, "__unsaved")

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[recordType] == nil {
		f.docs[recordType] = make(map[string]doctype.Document)
	}
	f.docs[recordType][saved.String("name")] = saved
	return saved.Clone(), nil
}

// Submit marks a stored record as workflow-submitted.
func (f *Fixture) Submit(_ context.Context, saved doctype.Document) error {
	recordType := saved.String("doctype")
	name := saved.String("name")

	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[recordType][name]
	if !ok {
		return &gateway.NotFoundError{RecordType: recordType, ID: name}
	}
	doc["docstatus"] = 1
	return nil
}
