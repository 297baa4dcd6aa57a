package gateway

import (
	"log/slog"
	"net/http"
)

const (
	defaultSaveMethod   = "frappe.desk.form.save.savedocs"
	defaultMetaMethod   = "hrms.api.get_doctype_fields"
	defaultSearchMethod = "frappe.desk.search.search_link"
)

// Config carries the explicit dependencies for a Client. Callers construct
// and hold it; there is no package-level base URL or shared state.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://hr.example.com".
	BaseURL string
	// HTTPClient performs requests. When nil a cookie-jar client is built so
	// session cookies ride along on every call.
	HTTPClient *http.Client
	// Logger receives request/response debug lines and swallowed failures.
	Logger *slog.Logger
}

// Option customises the client beyond the Config basics.
type Option func(*Client)

// WithSaveMethod overrides the named save/submit procedure.
func WithSaveMethod(method string) Option {
	return func(c *Client) {
		if method != "" {
			c.saveMethod = method
		}
	}
}

// WithMetaMethod overrides the named field-metadata procedure.
func WithMetaMethod(method string) Option {
	return func(c *Client) {
		if method != "" {
			c.metaMethod = method
		}
	}
}

// WithSearchMethod overrides the named link-resolution procedure.
func WithSearchMethod(method string) Option {
	return func(c *Client) {
		if method != "" {
			c.searchMethod = method
		}
	}
}
