package richtext_test

import (
	"strings"
	"testing"

	"github.com/hrkit/hrclient/pkg/richtext"
)

func TestPlainTextStripsMarkup(t *testing.T) {
	raw := `<div class="announcement"><h2>Office closed</h2><p>The office is closed on <b>Friday</b>.</p><ul><li>Remote work applies</li><li>Badge access disabled</li></ul></div>`

	got := richtext.PlainText(raw)
	want := "Office closed\nThe office is closed on Friday.\nRemote work applies\nBadge access disabled"
	if got != want {
		t.Fatalf("PlainText = %q, want %q", got, want)
	}
}

func TestPlainTextUnescapesEntities(t *testing.T) {
	got := richtext.PlainText("<p>Q3 results &amp; outlook &mdash; all hands</p>")
	if !strings.Contains(got, "Q3 results & outlook") {
		t.Fatalf("entities not decoded: %q", got)
	}
}

func TestPlainTextDropsScripts(t *testing.T) {
	got := richtext.PlainText(`<p>Hello</p><script>alert("x")</script>`)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Fatalf("script content leaked: %q", got)
	}
	if !strings.Contains(got, "Hello") {
		t.Fatalf("content lost: %q", got)
	}
}

func TestPlainTextEmpty(t *testing.T) {
	if got := richtext.PlainText("   "); got != "" {
		t.Fatalf("PlainText(blank) = %q", got)
	}
}

func TestPlainTextBreakTags(t *testing.T) {
	got := richtext.PlainText("line one<br>line two<br/>line three")
	want := "line one\nline two\nline three"
	if got != want {
		t.Fatalf("PlainText = %q, want %q", got, want)
	}
}

func TestSanitizeKeepsSafeMarkup(t *testing.T) {
	raw := `<p>See the <a href="https://intranet.example.com/policy">policy</a> for details.</p><script>steal()</script>`

	got := richtext.Sanitize(raw)
	if !strings.Contains(got, "<a href=") {
		t.Fatalf("safe link stripped: %q", got)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("script survived: %q", got)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := richtext.Sanitize(""); got != "" {
		t.Fatalf("Sanitize(empty) = %q", got)
	}
}
