package share

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	slugCollapse = regexp.MustCompile(`[\s_-]+`)
)

// Slugify derives a URL-safe slug from a user-supplied name: lower-case,
// trim, strip everything outside [a-z0-9\s_-], collapse runs of whitespace,
// underscores and hyphens to a single hyphen, trim leading/trailing hyphens.
//
//	Slugify("My Cool Page!!") == "my-cool-page"
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
