package tui

import (
	"context"

	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/widgets"
)

// SearchFunc resolves link candidates for a target record type. The gateway's
// SearchLink wraps into it directly.
type SearchFunc func(ctx context.Context, query, targetType string) []gateway.Candidate

// Option configures the renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithSearch supplies link-candidate resolution. Without it, link fields fall
// back to plain text entry.
func WithSearch(search SearchFunc) Option {
	return func(r *Renderer) {
		r.search = search
	}
}

// WithWidgetRegistry overrides the widget registry used for field dispatch.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.widgets = registry
		}
	}
}
