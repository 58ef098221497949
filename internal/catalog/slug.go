package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// The site carries Khmer titles, so the Khmer block stays in the
// allow-list next to plain ASCII.
var (
	disallowed     = regexp.MustCompile(`[^\x{1780}-\x{17FF}a-zA-Z0-9\-_.]`)
	hyphenRuns     = regexp.MustCompile(`-+`)
	leadingHyphens = regexp.MustCompile(`^-|-$`)
)

// Slugify normalizes a title into a filesystem-and-URL-safe name.
// The result never starts or ends with a hyphen; it can be empty for
// titles with no usable characters, callers fall back to
// TimestampName for those.
func Slugify(title string) string {
	slug := disallowed.ReplaceAllString(title, "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	slug = leadingHyphens.ReplaceAllString(slug, "")
	return strings.ToLower(slug)
}

func TimestampName(now time.Time) string {
	return fmt.Sprintf("book-%d", now.UnixMilli())
}
