// Package linksearch implements debounced, length-gated incremental search
// for link-reference fields. Every issued search carries a monotonically
// increasing sequence number; a response that is not the latest issued is
// discarded, so the newest query always wins regardless of arrival order.
package linksearch

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hrkit/hrclient/pkg/gateway"
)

// Defaults for the assistant's gating knobs.
const (
	DefaultMinLength = 2
	DefaultDebounce  = 600 * time.Millisecond
	DefaultBlurDelay = 200 * time.Millisecond
	DefaultLimit     = gateway.SearchLimit
)

// State describes the assistant's lifecycle for one field.
type State int

const (
	// StateIdle means no query is active and the result list is closed.
	StateIdle State = iota
	// StateSearching means a debounced search has been scheduled or is in
	// flight.
	StateSearching
	// StateOpen means results are available and the list is showing.
	StateOpen
)

// SearchFunc resolves candidates for a query. The gateway's SearchLink fits
// directly; failures must surface as an empty slice.
type SearchFunc func(ctx context.Context, query string) []gateway.Candidate

// ResultsFunc receives the candidates to show after each state change. An
// empty slice means the list closed.
type ResultsFunc func(results []gateway.Candidate)

// Option customises an Assistant.
type Option func(*Assistant)

// WithDebounce overrides the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithMinLength overrides the minimum query length.
func WithMinLength(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.minLength = n
		}
	}
}

// WithLimit overrides the result cap.
func WithLimit(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithBlurDelay overrides the delay between losing focus and closing the
// list. The delay exists so a tap on a still-rendering result can land.
func WithBlurDelay(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.blurDelay = d
		}
	}
}

// Assistant drives search-as-you-type for one link field. Methods are safe
// for concurrent use; callbacks are invoked without holding internal locks.
type Assistant struct {
	search    SearchFunc
	onResults ResultsFunc

	minLength int
	debounce  time.Duration
	blurDelay time.Duration
	limit     int

	mu        sync.Mutex
	state     State
	results   []gateway.Candidate
	timer     *time.Timer
	blurTimer *time.Timer
	seq       uint64
	closed    bool
}

// New constructs an Assistant. onResults may be nil when the caller polls
// Results instead.
func New(search SearchFunc, onResults ResultsFunc, options ...Option) *Assistant {
	a := &Assistant{
		search:    search,
		onResults: onResults,
		minLength: DefaultMinLength,
		debounce:  DefaultDebounce,
		blurDelay: DefaultBlurDelay,
		limit:     DefaultLimit,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Input feeds one keystroke's worth of query text. Short input clears results
// and closes the list without touching the network; longer input reschedules
// the debounced search, cancelling any pending timer.
func (a *Assistant) Input(ctx context.Context, text string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.cancelTimersLocked()

	if utf8.RuneCountInString(text) < a.minLength {
		a.seq++ // invalidate any in-flight search
		a.state = StateIdle
		a.results = nil
		notify := a.onResults
		a.mu.Unlock()
		if notify != nil {
			notify(nil)
		}
		return
	}

	a.state = StateSearching
	a.seq++
	issued := a.seq
	a.timer = time.AfterFunc(a.debounce, func() {
		a.run(ctx, text, issued)
	})
	a.mu.Unlock()
}

func (a *Assistant) run(ctx context.Context, query string, issued uint64) {
	a.mu.Lock()
	if a.closed || issued != a.seq {
		a.mu.Unlock()
		return
	}
	search := a.search
	a.mu.Unlock()

	results := search(ctx, query)

	a.mu.Lock()
	if a.closed || issued != a.seq {
		// A newer query superseded this one; its results are stale.
		a.mu.Unlock()
		return
	}
	if len(results) > a.limit {
		results = results[:a.limit]
	}
	a.results = results
	if len(results) > 0 {
		a.state = StateOpen
	} else {
		a.state = StateIdle
	}
	notify := a.onResults
	a.mu.Unlock()

	if notify != nil {
		notify(results)
	}
}

// SearchNow runs the query immediately, bypassing the debounce timer but
// keeping the length gate, staleness guard, and result cap. Prompt-driven
// surfaces use it where keystroke-level debouncing does not apply.
func (a *Assistant) SearchNow(ctx context.Context, text string) []gateway.Candidate {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.cancelTimersLocked()
	if utf8.RuneCountInString(text) < a.minLength {
		a.seq++
		a.state = StateIdle
		a.results = nil
		a.mu.Unlock()
		return nil
	}
	a.state = StateSearching
	a.seq++
	issued := a.seq
	a.mu.Unlock()

	a.run(ctx, text, issued)
	return a.Results()
}

// Results returns the currently shown candidates.
func (a *Assistant) Results() []gateway.Candidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results
}

// CurrentState reports the assistant's lifecycle state.
func (a *Assistant) CurrentState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Select resolves a candidate to its identifier and closes the list.
func (a *Assistant) Select(candidate gateway.Candidate) string {
	a.mu.Lock()
	a.cancelTimersLocked()
	a.seq++
	a.state = StateIdle
	a.results = nil
	notify := a.onResults
	a.mu.Unlock()

	if notify != nil {
		notify(nil)
	}
	return candidate.Identifier()
}

// Blur schedules the list to close after the blur delay, letting an in-flight
// tap-to-select land first. Focus or further Input cancels it.
func (a *Assistant) Blur() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.blurTimer != nil {
		a.blurTimer.Stop()
	}
	a.blurTimer = time.AfterFunc(a.blurDelay, a.closeList)
}

// Focus cancels a pending blur close.
func (a *Assistant) Focus() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.blurTimer != nil {
		a.blurTimer.Stop()
		a.blurTimer = nil
	}
}

func (a *Assistant) closeList() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.seq++
	a.state = StateIdle
	a.results = nil
	notify := a.onResults
	a.mu.Unlock()

	if notify != nil {
		notify(nil)
	}
}

// Close shuts the assistant down. Late responses and timer fires become
// no-ops.
func (a *Assistant) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.cancelTimersLocked()
	a.results = nil
	a.state = StateIdle
}

func (a *Assistant) cancelTimersLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.blurTimer != nil {
		a.blurTimer.Stop()
		a.blurTimer = nil
	}
}
