package docs

import (
	"regexp"
	"strings"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`)
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugCollapseRe = regexp.MustCompile(`-+`)
)

// Slugify derives the URL-safe identifier for a document title: lowercase,
// drop everything that is not alphanumeric/whitespace/hyphen, whitespace runs
// become single hyphens, hyphen runs collapse, leading/trailing hyphens are
// trimmed. Total over all inputs; may return "".
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
