package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaError reports a failed field-metadata fetch. Callers must treat it as
// fatal to form display.
type SchemaError struct {
	RecordType string
	Err        error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("gateway: fetch schema for %q: %v", e.RecordType, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// NotFoundError reports a missing record.
type NotFoundError struct {
	RecordType string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gateway: %s %q not found", e.RecordType, e.ID)
}

// ValidationError carries the server's human-readable rejection messages. It
// is user-fixable, as opposed to a TransportError.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "gateway: server rejected the document"
	}
	return "gateway: " + strings.Join(e.Messages, "; ")
}

// SubmissionError reports a failed workflow-submit step after a successful
// save.
type SubmissionError struct {
	RecordType string
	Name       string
	Err        error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("gateway: submit %s %q: %v", e.RecordType, e.Name, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ProcedureError reports a failed named remote procedure call.
type ProcedureError struct {
	Method string
	Err    error
}

func (e *ProcedureError) Error() string {
	return fmt.Sprintf("gateway: call %q: %v", e.Method, e.Err)
}

func (e *ProcedureError) Unwrap() error { return e.Err }

// TransportError wraps network, decode, and unexpected-status failures. It is
// retry-suggested rather than user-fixable; the client never retries on its
// own.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// decodeServerMessages unpacks the backend's doubly-encoded message envelope:
// a JSON string holding an array of JSON strings, each an object with a
// "message" attribute. Anything unparseable is kept verbatim so messages are
// not lost.
func decodeServerMessages(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var envelope []string
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return []string{raw}
	}

	var out []string
	for _, item := range envelope {
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(item), &msg); err == nil && strings.TrimSpace(msg.Message) != "" {
			out = append(out, msg.Message)
			continue
		}
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
