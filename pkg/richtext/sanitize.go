// Package richtext sanitizes server-authored HTML bodies (announcements and
// other rich-content fields) before display.
package richtext

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce   sync.Once
	strictPolicy *bluemonday.Policy
	ugcPolicy    *bluemonday.Policy
)

var blockBreaks = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote)>|<br\s*/?>`)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return strictPolicy, ugcPolicy
}

// Sanitize keeps user-generated-content markup (links, lists, emphasis) while
// stripping scripts and unsafe attributes. Use it when the caller renders
// HTML.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	_, ugc := policies()
	return strings.TrimSpace(ugc.Sanitize(trimmed))
}

// PlainText strips all markup for terminal display, preserving block-level
// boundaries as newlines and unescaping entities.
func PlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	withBreaks := blockBreaks.ReplaceAllString(trimmed, "$0\n")
	strict, _ := policies()
	text := strict.Sanitize(withBreaks)
	text = html.UnescapeString(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
