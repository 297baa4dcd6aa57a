// Package schemafix loads record type schemas from offline fixture documents
// so forms can be exercised without a backend. Two formats are understood:
// YAML descriptor documents and OpenAPI documents whose component schemas are
// normalized into the same descriptor shape.
package schemafix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// Format identifies a fixture document format.
type Format string

const (
	FormatUnknown Format = ""
	FormatYAML    Format = "yaml"
	FormatOpenAPI Format = "openapi"
)

// Detect inspects a raw fixture payload and reports its format. OpenAPI wins
// over plain YAML when the document carries an openapi/swagger marker.
func Detect(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if _, ok := payload["openapi"]; ok {
				return FormatOpenAPI
			}
			if _, ok := payload["swagger"]; ok {
				return FormatOpenAPI
			}
		}
		return FormatUnknown
	}
	lower := strings.ToLower(string(trimmed))
	if strings.Contains(lower, "openapi:") || strings.Contains(lower, "swagger:") {
		return FormatOpenAPI
	}
	return FormatYAML
}

// Set is a concurrency-safe collection of fixture schemas keyed by record
// type. A Set satisfies the schema side of the form controller's gateway
// contract through the Fixture adapter.
type Set struct {
	mu      sync.RWMutex
	schemas map[string]doctype.RecordTypeSchema
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{schemas: make(map[string]doctype.RecordTypeSchema)}
}

// Add registers a schema, replacing any previous entry for the same record
// type.
func (s *Set) Add(schema doctype.RecordTypeSchema) {
	if schema.RecordType == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[schema.RecordType] = schema
}

// Lookup returns the schema for a record type.
func (s *Set) Lookup(recordType string) (doctype.RecordTypeSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[recordType]
	return schema, ok
}

// RecordTypes returns the registered record type names, sorted.
func (s *Set) RecordTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load parses a raw fixture payload, detecting its format, and registers
// every schema it contains.
func (s *Set) Load(ctx context.Context, raw []byte) error {
	var (
		schemas []doctype.RecordTypeSchema
		err     error
	)
	switch Detect(raw) {
	case FormatOpenAPI:
		schemas, err = ParseOpenAPI(ctx, raw)
	case FormatYAML:
		schemas, err = ParseYAML(raw)
	default:
		return fmt.Errorf("schemafix: unrecognized fixture format")
	}
	if err != nil {
		return err
	}
	for _, schema := range schemas {
		s.Add(schema)
	}
	return nil
}

// LoadDir walks a filesystem and loads every .yaml, .yml and .json file found
// under root. Unrecognized files fail the walk so fixture typos surface early.
func (s *Set) LoadDir(ctx context.Context, fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("schemafix: walk %s: %w", name, err)
		}
		if entry.IsDir() {
			return nil
		}
		switch path.Ext(name) {
		case ".yaml", ".yml", ".json":
		default:
			return nil
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("schemafix: read %s: %w", name, err)
		}
		if err := s.Load(ctx, raw); err != nil {
			return fmt.Errorf("schemafix: load %s: %w", name, err)
		}
		return nil
	})
}
