// Package security provides SQL-facing input validation. Dynamic field names
// and caller-supplied sort/filter columns pass through here before they are
// allowed anywhere near a query.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidIdentifierRegex matches valid identifiers: lowercase letters, digits
// and underscores, starting with a letter or underscore.
var ValidIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateIdentifier checks if a string is a safe SQL identifier.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 characters)")
	}
	if !ValidIdentifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: only lowercase letters, digits and underscores, starting with a letter or underscore", name)
	}
	if isReservedWord(name) {
		return fmt.Errorf("%q is a reserved SQL keyword", name)
	}
	return nil
}

// QuoteIdentifier quotes an identifier for PostgreSQL. Only call after
// ValidateIdentifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// EscapeLikePattern escapes %, _ and \ in LIKE/ILIKE patterns.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// isReservedWord checks if a word is a PostgreSQL reserved word.
func isReservedWord(word string) bool {
	reserved := map[string]bool{
		"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
		"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
		"case": true, "cast": true, "check": true, "collate": true, "column": true,
		"constraint": true, "create": true, "current_catalog": true, "current_date": true,
		"current_role": true, "current_time": true, "current_timestamp": true,
		"current_user": true, "default": true, "deferrable": true, "desc": true,
		"distinct": true, "do": true, "else": true, "end": true, "except": true,
		"false": true, "fetch": true, "for": true, "foreign": true, "from": true,
		"grant": true, "group": true, "having": true, "in": true, "initially": true,
		"intersect": true, "into": true, "lateral": true, "leading": true, "limit": true,
		"localtime": true, "localtimestamp": true, "not": true, "null": true, "offset": true,
		"on": true, "only": true, "or": true, "order": true, "placing": true,
		"primary": true, "references": true, "returning": true, "select": true,
		"session_user": true, "some": true, "symmetric": true, "table": true,
		"then": true, "to": true, "trailing": true, "true": true, "union": true,
		"unique": true, "user": true, "using": true, "variadic": true, "when": true,
		"where": true, "window": true, "with": true,
	}
	return reserved[strings.ToLower(word)]
}
