package docs

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	mdImageRe  = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	htmlImgRe  = regexp.MustCompile(`(?i)<img\s+([^>]*?)src=["']([^"']+)["']([^>]*?)>`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	whitespace = regexp.MustCompile(`\s+`)
)

// PathRewriter turns relative image references inside document content into
// fully-qualified public object-store URLs. Pure text transform: no I/O and no
// check that the target object exists.
type PathRewriter struct {
	BaseURL   string
	Bucket    string
	Namespace string
}

// Rewrite replaces the target of every markdown image (![alt](path)) and HTML
// <img src> with <BaseURL>/<Bucket>/<Namespace>/<slug>/images/<filename>.
// Targets that already carry a URL scheme are left untouched.
func (r PathRewriter) Rewrite(content, slug string) string {
	out := mdImageRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := mdImageRe.FindStringSubmatch(m)
		alt, target := parts[1], parts[2]
		if schemeRe.MatchString(target) {
			return m
		}
		return fmt.Sprintf("![%s](%s)", alt, r.imageURL(slug, target))
	})
	out = htmlImgRe.ReplaceAllStringFunc(out, func(m string) string {
		parts := htmlImgRe.FindStringSubmatch(m)
		before, target, after := parts[1], parts[2], parts[3]
		if schemeRe.MatchString(target) {
			return m
		}
		return fmt.Sprintf(`<img %ssrc="%s"%s>`, before, r.imageURL(slug, target), after)
	})
	return out
}

// imageURL builds the public URL for one referenced image. The filename is the
// last path segment of the original target, percent-decoded best effort, with
// whitespace replaced by underscores (objects are stored that way), then
// re-encoded for the final URL.
func (r PathRewriter) imageURL(slug, target string) string {
	filename := target
	if i := strings.LastIndex(filename, "/"); i >= 0 {
		filename = filename[i+1:]
	}
	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}
	filename = NormalizeImageName(filename)
	base := strings.TrimRight(r.BaseURL, "/")
	return base + "/" + url.PathEscape(r.Bucket) + "/" + r.Namespace + "/" + slug + "/images/" + url.PathEscape(filename)
}

// NormalizeImageName is the canonical on-store filename for an uploaded image:
// whitespace runs become underscores.
func NormalizeImageName(name string) string {
	return whitespace.ReplaceAllString(name, "_")
}
