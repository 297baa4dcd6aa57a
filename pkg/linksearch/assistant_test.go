package linksearch_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/linksearch"
)

// recordingSearch captures issued queries and returns scripted results.
type recordingSearch struct {
	mu      sync.Mutex
	queries []string
	results map[string][]gateway.Candidate
	delay   time.Duration
}

func (r *recordingSearch) fn(_ context.Context, query string) []gateway.Candidate {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	results := r.results[query]
	delay := r.delay
	r.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return results
}

func (r *recordingSearch) issued() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func candidates(n int) []gateway.Candidate {
	out := make([]gateway.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, gateway.Candidate{"value": fmt.Sprintf("HR-EMP-%05d", i)})
	}
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestRapidInputCollapsesToOneSearch(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"jan": candidates(2),
	}}
	a := linksearch.New(search.fn, nil, linksearch.WithDebounce(30*time.Millisecond))
	defer a.Close()

	ctx := context.Background()
	a.Input(ctx, "j")
	a.Input(ctx, "ja")
	a.Input(ctx, "jan")

	waitFor(t, time.Second, func() bool { return len(search.issued()) > 0 })
	time.Sleep(60 * time.Millisecond)

	issued := search.issued()
	if len(issued) != 1 || issued[0] != "jan" {
		t.Fatalf("issued searches = %v, want exactly [jan]", issued)
	}
	if got := a.CurrentState(); got != linksearch.StateOpen {
		t.Fatalf("state = %v, want open", got)
	}
	if len(a.Results()) != 2 {
		t.Fatalf("results = %d, want 2", len(a.Results()))
	}
}

func TestShortInputClearsWithoutSearching(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{"jan": candidates(3)}}
	var callbacks [][]gateway.Candidate
	var mu sync.Mutex
	a := linksearch.New(search.fn, func(results []gateway.Candidate) {
		mu.Lock()
		callbacks = append(callbacks, results)
		mu.Unlock()
	}, linksearch.WithDebounce(10*time.Millisecond))
	defer a.Close()

	ctx := context.Background()
	a.Input(ctx, "jan")
	waitFor(t, time.Second, func() bool { return a.CurrentState() == linksearch.StateOpen })

	a.Input(ctx, "j")

	if got := a.CurrentState(); got != linksearch.StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if a.Results() != nil {
		t.Fatalf("results = %v, want nil", a.Results())
	}

	mu.Lock()
	last := callbacks[len(callbacks)-1]
	mu.Unlock()
	if last != nil {
		t.Fatalf("final callback = %v, want nil (list closed)", last)
	}

	time.Sleep(30 * time.Millisecond)
	if issued := search.issued(); len(issued) != 1 {
		t.Fatalf("issued = %v, short input must not search", issued)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	// The first query's search is slow; the second supersedes it before the
	// response lands. The slow result must never surface.
	search := &recordingSearch{
		results: map[string][]gateway.Candidate{
			"stale": candidates(5),
			"fresh": candidates(1),
		},
	}
	a := linksearch.New(search.fn, nil, linksearch.WithDebounce(5*time.Millisecond))
	defer a.Close()

	ctx := context.Background()
	search.mu.Lock()
	search.delay = 80 * time.Millisecond
	search.mu.Unlock()
	a.Input(ctx, "stale")

	waitFor(t, time.Second, func() bool { return len(search.issued()) == 1 })
	search.mu.Lock()
	search.delay = 0
	search.mu.Unlock()
	a.Input(ctx, "fresh")

	waitFor(t, time.Second, func() bool { return len(a.Results()) == 1 })
	time.Sleep(120 * time.Millisecond)

	results := a.Results()
	if len(results) != 1 {
		t.Fatalf("results = %d, stale response leaked through", len(results))
	}
	if results[0].Identifier() != "HR-EMP-00000" {
		t.Fatalf("unexpected result %v", results[0])
	}
}

func TestResultCap(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"many": candidates(40),
	}}
	a := linksearch.New(search.fn, nil, linksearch.WithDebounce(5*time.Millisecond))
	defer a.Close()

	a.Input(context.Background(), "many")
	waitFor(t, time.Second, func() bool { return len(a.Results()) > 0 })

	if got := len(a.Results()); got != gateway.SearchLimit {
		t.Fatalf("results = %d, want cap %d", got, gateway.SearchLimit)
	}
}

func TestSearchNow(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"jan": candidates(3),
	}}
	a := linksearch.New(search.fn, nil)
	defer a.Close()

	ctx := context.Background()
	if got := a.SearchNow(ctx, "j"); got != nil {
		t.Fatalf("sub-minimum SearchNow = %v, want nil", got)
	}
	if issued := search.issued(); len(issued) != 0 {
		t.Fatalf("issued = %v, want none", issued)
	}

	got := a.SearchNow(ctx, "jan")
	if len(got) != 3 {
		t.Fatalf("SearchNow results = %d, want 3", len(got))
	}
	if state := a.CurrentState(); state != linksearch.StateOpen {
		t.Fatalf("state = %v, want open", state)
	}
}

func TestSelectResolvesIdentifierAndCloses(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"jan": candidates(2),
	}}
	a := linksearch.New(search.fn, nil, linksearch.WithDebounce(5*time.Millisecond))
	defer a.Close()

	a.Input(context.Background(), "jan")
	waitFor(t, time.Second, func() bool { return a.CurrentState() == linksearch.StateOpen })

	results := a.Results()
	if got := a.Select(results[1]); got != "HR-EMP-00001" {
		t.Fatalf("Select = %q", got)
	}
	if a.CurrentState() != linksearch.StateIdle || a.Results() != nil {
		t.Fatal("select must close the list")
	}
}

func TestCandidateIdentifierFallbacks(t *testing.T) {
	cases := []struct {
		candidate gateway.Candidate
		want      string
	}{
		{gateway.Candidate{"value": "v", "name": "n", "id": "i", "label": "l"}, "v"},
		{gateway.Candidate{"name": "n", "id": "i"}, "n"},
		{gateway.Candidate{"id": "i", "label": "l"}, "i"},
		{gateway.Candidate{"label": "l"}, "l"},
		{gateway.Candidate{"other": "x"}, ""},
	}
	for _, tc := range cases {
		if got := tc.candidate.Identifier(); got != tc.want {
			t.Fatalf("Identifier(%v) = %q, want %q", tc.candidate, got, tc.want)
		}
	}
}

func TestBlurClosesAfterDelayFocusCancels(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"jan": candidates(1),
	}}
	a := linksearch.New(search.fn, nil,
		linksearch.WithDebounce(5*time.Millisecond),
		linksearch.WithBlurDelay(20*time.Millisecond))
	defer a.Close()

	a.Input(context.Background(), "jan")
	waitFor(t, time.Second, func() bool { return a.CurrentState() == linksearch.StateOpen })

	a.Blur()
	a.Focus()
	time.Sleep(50 * time.Millisecond)
	if a.CurrentState() != linksearch.StateOpen {
		t.Fatal("focus must cancel the pending blur close")
	}

	a.Blur()
	waitFor(t, time.Second, func() bool { return a.CurrentState() == linksearch.StateIdle })
}

func TestCloseStopsCallbacks(t *testing.T) {
	search := &recordingSearch{results: map[string][]gateway.Candidate{
		"jan": candidates(1),
	}}
	a := linksearch.New(search.fn, nil, linksearch.WithDebounce(5*time.Millisecond))

	a.Input(context.Background(), "jan")
	a.Close()

	time.Sleep(30 * time.Millisecond)
	if issued := search.issued(); len(issued) != 0 {
		t.Fatalf("issued = %v, closed assistant must not search", issued)
	}
	if a.Results() != nil {
		t.Fatal("closed assistant must hold no results")
	}
}
