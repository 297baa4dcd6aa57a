// Package notify defines the user-facing notification contract (transient
// success/error toasts) and the structured warning channel used to make
// graceful degradation observable.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// Notifier surfaces transient user-facing notifications. Every user-visible
// failure in the client is a toast; there is no persistent error banner.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Terminal is a Notifier that prints colored toast-style lines.
type Terminal struct {
	mu sync.Mutex
}

// NewTerminal builds a terminal notifier.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Success prints a green confirmation line.
func (t *Terminal) Success(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	color.Green("✓ %s", message)
}

// Error prints a red failure line.
func (t *Terminal) Error(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	color.Red("✗ %s", message)
}

// Discard is a Notifier that drops everything. Useful in tests.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

// Warning is one structured diagnostic about intentionally degraded behavior,
// e.g. a select field dropped for having no options or a child-table schema
// that failed to load.
type Warning struct {
	Component string
	Message   string
	Fields    map[string]any
}

// WarningSink receives structured warnings. Implementations must not block.
type WarningSink interface {
	Warn(w Warning)
}

// WarningFunc adapts a function to the WarningSink interface.
type WarningFunc func(Warning)

func (f WarningFunc) Warn(w Warning) { f(w) }

// SlogSink forwards warnings to a structured logger.
type SlogSink struct {
	Log *slog.Logger
}

// Warn logs the warning with its component and attached fields.
func (s SlogSink) Warn(w Warning) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	args := make([]any, 0, 2+2*len(w.Fields))
	args = append(args, "component", w.Component)
	for key, value := range w.Fields {
		args = append(args, key, value)
	}
	log.Warn(w.Message, args...)
}

// Warnf builds and delivers a warning in one call. A nil sink drops it.
func Warnf(sink WarningSink, component string, fields map[string]any, format string, args ...any) {
	if sink == nil {
		return
	}
	sink.Warn(Warning{
		Component: component,
		Message:   fmt.Sprintf(format, args...),
		Fields:    fields,
	})
}
