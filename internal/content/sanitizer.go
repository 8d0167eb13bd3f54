// Package content cleans user-supplied article markup.
package content

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from article fields.
type Sanitizer struct {
	body  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewSanitizer creates a Sanitizer. Bodies keep user-generated-content markup
// (paragraphs, emphasis, lists, links); titles keep none.
func NewSanitizer() *Sanitizer {
	body := bluemonday.UGCPolicy()
	body.RequireNoFollowOnLinks(true)
	body.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		body:  body,
		plain: bluemonday.StrictPolicy(),
	}
}

// Body sanitizes article content and trims surrounding whitespace.
func (s *Sanitizer) Body(raw string) string {
	return strings.TrimSpace(s.body.Sanitize(raw))
}

// Title removes all markup from a title. Entities escaped by the policy are
// decoded again so "Q&A" stays "Q&A".
func (s *Sanitizer) Title(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(raw)))
}
