package publish

import (
	"regexp"
	"strings"
)

// RE2's \s is ASCII only; the extra ranges add \v, no-break and other
// Unicode spaces, the BOM and the line/paragraph separators.
var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`)
	whitespace   = regexp.MustCompile(`[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]+`)
)

// Slugify lower-cases title, drops everything but ASCII letters, digits and
// whitespace (Unicode spaces included), and turns each whitespace run into a
// single underscore.
// Leading or trailing whitespace survives as an underscore. Distinct titles
// can map to the same slug; nothing here detects that.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = nonSlugChars.ReplaceAllString(s, "")
	return whitespace.ReplaceAllString(s, "_")
}
