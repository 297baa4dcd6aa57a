// Package widgets maps field descriptors onto input widget identifiers. The
// registry resolves custom matchers first and falls back to the closed
// per-kind dispatch, so every supported field deterministically gets exactly
// one widget.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/hrkit/hrclient/pkg/doctype"
)

// Built-in widget identifiers.
const (
	WidgetToggle     = "toggle"      // boolean check fields
	WidgetChoice     = "choice"      // single-select pill group
	WidgetDate       = "date"        // date picker, ISO yyyy-MM-dd values
	WidgetLinkSearch = "link-search" // incremental search against the backend
	WidgetNumeric    = "numeric"     // text box with numeric input affordance
	WidgetTextArea   = "textarea"    // multi-line text
	WidgetTextBox    = "textbox"     // plain single-line text
	WidgetTable      = "table"       // nested child-record rows
)

// Matcher decides whether a widget should handle the supplied descriptor.
type Matcher func(field doctype.FieldDescriptor) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields. Custom registrations take precedence
// over the built-in kind dispatch; higher priority wins, ties fall back to
// registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs an empty registry. Resolve falls back to the
// per-kind dispatch when no rule matches.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a widget matcher with the provided name and priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field. The second return is false only for
// unsupported kinds, which are excluded from rendering entirely.
func (r *Registry) Resolve(field doctype.FieldDescriptor) (string, bool) {
	if r != nil {
		r.mu.RLock()
		rules := append([]rule(nil), r.rules...)
		r.mu.RUnlock()

		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].priority == rules[j].priority {
				return rules[i].order < rules[j].order
			}
			return rules[i].priority > rules[j].priority
		})
		for _, entry := range rules {
			if entry.match(field) {
				return entry.name, true
			}
		}
	}
	return ResolveKind(field.Kind)
}

// ResolveKind is the closed dispatch from field kind to widget, evaluated in
// the documented precedence.
func ResolveKind(kind doctype.FieldKind) (string, bool) {
	switch kind {
	case doctype.KindCheck:
		return WidgetToggle, true
	case doctype.KindSelect:
		return WidgetChoice, true
	case doctype.KindDate:
		return WidgetDate, true
	case doctype.KindLink:
		return WidgetLinkSearch, true
	case doctype.KindInt, doctype.KindFloat, doctype.KindCurrency:
		return WidgetNumeric, true
	case doctype.KindText:
		return WidgetTextArea, true
	case doctype.KindData:
		return WidgetTextBox, true
	case doctype.KindTable:
		return WidgetTable, true
	default:
		return "", false
	}
}
