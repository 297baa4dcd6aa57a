// Package gateway translates client intents into REST calls against the
// remote document backend and normalizes its error conventions. It is the
// system boundary: every operation performs network I/O, none retry, and each
// failure surfaces as a typed error distinguishing validation rejections from
// transport faults.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// SearchLimit caps link-resolution result sets.
const SearchLimit = 25

// Filter is one [field, operator, value] condition. Filters in a list request
// are ANDed together.
type Filter struct {
	Field    string
	Operator string
	Value    any
}

// MarshalJSON emits the wire triple form.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{f.Field, f.Operator, f.Value})
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Operator: "=", Value: value}
}

// ListOptions narrows a list request. A zero Limit falls back to the server
// default; a positive Limit truncates silently, there is no cursor.
type ListOptions struct {
	Filters []Filter
	Fields  []string
	OrderBy string
	Limit   int
}

// SearchOptions supplies context for link resolution.
type SearchOptions struct {
	// ReferenceType names the record type the link field belongs to, letting
	// the server apply type-specific query rules.
	ReferenceType string
	Filters       []Filter
}

// Candidate is one link-search result row.
type Candidate map[string]any

// Identifier returns the first of value, name, id, label that is present.
func (c Candidate) Identifier() string {
	for _, key := range []string{"value", "name", "id", "label"} {
		if s, ok := c[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// DisplayLabel prefers description, then label, then the raw identifier.
func (c Candidate) DisplayLabel() string {
	for _, key := range []string{"description", "label"} {
		if s, ok := c[key].(string); ok && s != "" {
			return s
		}
	}
	return c.Identifier()
}

// Client is the remote document gateway. Construct it with New; it holds no
// global state beyond its Config.
type Client struct {
	http         *http.Client
	baseURL      string
	log          *slog.Logger
	saveMethod   string
	metaMethod   string
	searchMethod string
}

// New validates the config and builds a Client. When no HTTP client is
// supplied, one with a cookie jar is created so the session cookie rides
// along on every call.
func New(cfg Config, options ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("gateway: parse base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("gateway: cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		http:         httpClient,
		baseURL:      base,
		log:          log,
		saveMethod:   defaultSaveMethod,
		metaMethod:   defaultMetaMethod,
		searchMethod: defaultSearchMethod,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// envelope is the common response wrapper. Endpoints disagree on whether the
// payload lives under "data" or "message", so both are captured.
type envelope struct {
	Data           json.RawMessage `json:"data"`
	Message        json.RawMessage `json:"message"`
	Exception      string          `json:"exception"`
	ServerMessages string          `json:"_server_messages"`
}

func (e envelope) payload() json.RawMessage {
	if len(e.Data) > 0 && string(e.Data) != "null" {
		return e.Data
	}
	return e.Message
}

// docField is the wire shape of one field descriptor. Boolean flags arrive as
// 0/1 integers.
type docField struct {
	Name    string `json:"fieldname"`
	Label   string `json:"label"`
	Type    string `json:"fieldtype"`
	Reqd    int    `json:"reqd"`
	Hidden  int    `json:"hidden"`
	Options string `json:"options"`
}

// FetchSchema retrieves the field descriptors for a record type. Failures are
// fatal to form display and come back as *SchemaError.
func (c *Client) FetchSchema(ctx context.Context, recordType string) (doctype.RecordTypeSchema, error) {
	endpoint := fmt.Sprintf("%s/api/method/%s?doctype=%s", c.baseURL, c.metaMethod, url.QueryEscape(recordType))

	env, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return doctype.RecordTypeSchema{}, &SchemaError{RecordType: recordType, Err: err}
	}

	var wire []docField
	if err := json.Unmarshal(env.payload(), &wire); err != nil {
		return doctype.RecordTypeSchema{}, &SchemaError{RecordType: recordType, Err: fmt.Errorf("decode fields: %w", err)}
	}

	schema := doctype.RecordTypeSchema{RecordType: recordType}
	for _, f := range wire {
		kind, _ := doctype.NormalizeKind(f.Type)
		schema.Fields = append(schema.Fields, doctype.FieldDescriptor{
			Name:     f.Name,
			Label:    f.Label,
			Kind:     kind,
			RawType:  f.Type,
			Required: f.Reqd == 1,
			Options:  f.Options,
			Hidden:   f.Hidden == 1,
		})
	}
	return schema, nil
}

// List fetches records of a type. Filters are ANDed; a positive limit
// truncates the result silently.
func (c *Client) List(ctx context.Context, recordType string, opts ListOptions) ([]doctype.Document, error) {
	query := url.Values{}
	if len(opts.Filters) > 0 {
		raw, err := json.Marshal(opts.Filters)
		if err != nil {
			return nil, &TransportError{Op: "encode filters", Err: err}
		}
		query.Set("filters", string(raw))
	}
	if len(opts.Fields) > 0 {
		raw, err := json.Marshal(opts.Fields)
		if err != nil {
			return nil, &TransportError{Op: "encode fields", Err: err}
		}
		query.Set("fields", string(raw))
	}
	if opts.OrderBy != "" {
		query.Set("order_by", opts.OrderBy)
	}
	if opts.Limit > 0 {
		query.Set("limit_page_length", strconv.Itoa(opts.Limit))
	}

	endpoint := fmt.Sprintf("%s/api/resource/%s", c.baseURL, url.PathEscape(recordType))
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	env, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, &TransportError{Op: "list " + recordType, Err: err}
	}

	var records []doctype.Document
	if err := json.Unmarshal(env.payload(), &records); err != nil {
		return nil, &TransportError{Op: "decode list " + recordType, Err: err}
	}
	return records, nil
}

// Get fetches one record by identifier.
func (c *Client) Get(ctx context.Context, recordType, id string) (doctype.Document, error) {
	endpoint := fmt.Sprintf("%s/api/resource/%s/%s", c.baseURL, url.PathEscape(recordType), url.PathEscape(id))

	resp, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, &TransportError{Op: "get " + recordType, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{RecordType: recordType, ID: id}
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, &TransportError{Op: "get " + recordType, Err: err}
	}

	var record doctype.Document
	if err := json.Unmarshal(env.payload(), &record); err != nil {
		return nil, &TransportError{Op: "decode " + recordType, Err: err}
	}
	return record, nil
}

// Save posts the assembled payload through the named save procedure. Server
// validation rejections come back as *ValidationError with the decoded
// human-readable messages; everything else is a *TransportError.
func (c *Client) Save(ctx context.Context, payload doctype.Document) (doctype.Document, error) {
	return c.saveAction(ctx, payload, "Save")
}

// Submit runs the post-save workflow step. It must receive the saved record
// as returned by Save so the authoritative identifier is used, never the
// client-generated temporary one.
func (c *Client) Submit(ctx context.Context, saved doctype.Document) error {
	recordType := saved.String("doctype")
	if _, err := c.saveAction(ctx, saved, "Submit"); err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			return err
		}
		return &SubmissionError{RecordType: recordType, Name: saved.String("name"), Err: err}
	}
	return nil
}

func (c *Client) saveAction(ctx context.Context, payload doctype.Document, action string) (doctype.Document, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: "encode document", Err: err}
	}

	form := url.Values{}
	form.Set("doc", string(raw))
	form.Set("action", action)

	endpoint := fmt.Sprintf("%s/api/method/%s", c.baseURL, c.saveMethod)
	resp, err := c.do(ctx, http.MethodPost, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Op: "save document", Err: err}
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if resp.StatusCode >= 400 {
		if env != nil {
			if messages := decodeServerMessages(env.ServerMessages); len(messages) > 0 {
				return nil, &ValidationError{Messages: messages}
			}
		}
		return nil, &TransportError{Op: "save document", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err != nil {
		return nil, &TransportError{Op: "decode save response", Err: err}
	}

	return decodeSavedDoc(env)
}

// decodeSavedDoc extracts the saved record echo. The save procedure answers
// with a "docs" array carrying the authoritative copy.
func decodeSavedDoc(env *envelope) (doctype.Document, error) {
	var docs struct {
		Docs []doctype.Document `json:"docs"`
	}
	for _, raw := range []json.RawMessage{env.Message, env.Data} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, &docs); err == nil && len(docs.Docs) > 0 {
			return docs.Docs[0], nil
		}
		var single doctype.Document
		if err := json.Unmarshal(raw, &single); err == nil && len(single) > 0 {
			return single, nil
		}
	}
	return nil, &TransportError{Op: "decode save response", Err: errors.New("no document in response")}
}

// SearchLink resolves candidates for a link field. Failures are non-fatal by
// contract: any error is logged and an empty slice returned.
func (c *Client) SearchLink(ctx context.Context, query, targetType string, opts SearchOptions) []Candidate {
	form := url.Values{}
	form.Set("txt", query)
	form.Set("doctype", targetType)
	if opts.ReferenceType != "" {
		form.Set("reference_doctype", opts.ReferenceType)
	}
	if len(opts.Filters) > 0 {
		raw, err := json.Marshal(opts.Filters)
		if err != nil {
			c.log.Warn("gateway: encode search filters", "error", err)
			return nil
		}
		form.Set("filters", string(raw))
	}

	endpoint := fmt.Sprintf("%s/api/v2/method/%s", c.baseURL, c.searchMethod)
	resp, err := c.do(ctx, http.MethodPost, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		c.log.Warn("gateway: link search", "doctype", targetType, "error", err)
		return nil
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil || resp.StatusCode >= 400 {
		c.log.Warn("gateway: link search response", "doctype", targetType, "status", resp.StatusCode, "error", err)
		return nil
	}

	var candidates []Candidate
	if err := json.Unmarshal(env.payload(), &candidates); err != nil {
		c.log.Warn("gateway: decode link search", "doctype", targetType, "error", err)
		return nil
	}
	if len(candidates) > SearchLimit {
		candidates = candidates[:SearchLimit]
	}
	return candidates
}

// Call invokes a named remote procedure with JSON-encoded arguments.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (map[string]any, error) {
	var body io.Reader
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, &ProcedureError{Method: method, Err: err}
		}
		body = strings.NewReader(string(raw))
	}

	endpoint := fmt.Sprintf("%s/api/method/%s", c.baseURL, method)
	resp, err := c.do(ctx, http.MethodPost, endpoint, "application/json", body)
	if err != nil {
		return nil, &ProcedureError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, &ProcedureError{Method: method, Err: err}
	}
	if resp.StatusCode >= 400 {
		if messages := decodeServerMessages(env.ServerMessages); len(messages) > 0 {
			return nil, &ProcedureError{Method: method, Err: errors.New(strings.Join(messages, "; "))}
		}
		return nil, &ProcedureError{Method: method, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result map[string]any
	if payload := env.payload(); len(payload) > 0 {
		if err := json.Unmarshal(payload, &result); err != nil {
			// Scalar results are wrapped so callers always get a map.
			var scalar any
			if err := json.Unmarshal(payload, &scalar); err != nil {
				return nil, &ProcedureError{Method: method, Err: err}
			}
			result = map[string]any{"message": scalar}
		}
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string) (*envelope, error) {
	resp, err := c.do(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return decodeEnvelope(resp)
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.log.Debug("gateway: request", "method", method, "url", endpoint, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	c.log.Debug("gateway: response", "status", resp.StatusCode, "request_id", requestID)
	return resp, nil
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &env, nil
}
