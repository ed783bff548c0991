package tenant

import (
	"regexp"
	"strings"
	"time"
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ValidIdentifier reports whether the human-chosen tenant slug is acceptable:
// lowercase alphanumerics and dashes, 2-63 characters, starting with a letter
// or digit.
func ValidIdentifier(identifier string) bool {
	return identifierPattern.MatchString(identifier)
}

// NormalizeIdentifier strips everything but lowercase alphanumerics so the
// slug can be embedded in a database name.
func NormalizeIdentifier(identifier string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(identifier) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildDatabaseName derives the tenant database name from the identifier and
// a creation timestamp: `<normalized>_<yyyymmddHHMMSS>_db`. The timestamp
// suffix keeps names practically unique even when the same identifier is
// re-registered after deletion; the directory additionally enforces a unique
// constraint on the stored name.
func BuildDatabaseName(identifier string, now time.Time) string {
	return NormalizeIdentifier(identifier) + "_" + now.UTC().Format("20060102150405") + "_db"
}
