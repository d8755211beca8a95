// Package htmlsanitize provides HTML sanitization for admin-edited rich text
// content. It uses bluemonday to strip potentially dangerous HTML while
// preserving safe formatting.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// richPolicy is the shared bluemonday policy for rich text fields.
	richPolicy *bluemonday.Policy
	// strictPolicy removes all markup. Used for plain-text fields such as
	// SEO titles and meta descriptions.
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

func initPolicies() {
	policyOnce.Do(func() {
		// Start with UGC (User Generated Content) policy as base
		richPolicy = bluemonday.UGCPolicy()

		// Allow tables from the rich text editor
		richPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		richPolicy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		richPolicy.AllowAttrs("class").OnElements("table", "th", "td", "tr")

		// Allow common text formatting
		richPolicy.AllowElements("u", "s", "sub", "sup", "mark")

		// Allow data attributes the editor emits
		richPolicy.AllowDataAttributes()

		// Allow style attribute on specific elements for tables
		richPolicy.AllowAttrs("style").OnElements("table", "th", "td")

		strictPolicy = bluemonday.StrictPolicy()
	})
}

// Sanitize cleans HTML input, removing potentially dangerous elements and
// attributes. It preserves safe formatting like bold, italic, lists, links,
// and tables.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	initPolicies()
	return richPolicy.Sanitize(html)
}

// StripTags removes all HTML markup from content, leaving only text.
func StripTags(content string) string {
	if content == "" {
		return ""
	}
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(content))
}

// IsPlainText checks if content appears to be plain text (no HTML tags).
// This can be used to handle legacy plain-text content.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	// Valid HTML tags require both < and >, so if either is missing,
	// treat the content as plain text.
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}
