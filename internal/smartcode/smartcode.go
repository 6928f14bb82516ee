// Package smartcode handles the dotted classification strings attached to
// entities and transactions (e.g. HERA.SALES.TXN.SALES_ORDER.v1). Smart codes
// are opaque audit tags: they are validated for shape and otherwise never
// parsed for meaning. Business type information always travels in explicit
// fields such as transaction_type.
package smartcode

import (
	"fmt"
	"regexp"
	"strings"
)

// codeRegex matches uppercase dotted segments ending in a lowercase version
// suffix, e.g. HERA.SALON.SVC.STANDARD.v1
var codeRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]*(\.[A-Z0-9_]+)+\.v[0-9]+$`)

// SmartCode is an opaque hierarchical classification string.
type SmartCode string

// Validate reports whether the code has the expected dotted shape.
func Validate(code string) error {
	if code == "" {
		return fmt.Errorf("smart code cannot be empty")
	}
	if len(code) > 100 {
		return fmt.Errorf("smart code too long (max 100 characters)")
	}
	if !codeRegex.MatchString(code) {
		return fmt.Errorf("invalid smart code %q: expected dotted segments like HERA.SALES.TXN.SALES_ORDER.v1", code)
	}
	return nil
}

// IsValid is the boolean form of Validate.
func IsValid(code string) bool {
	return Validate(code) == nil
}

// ForField derives a per-field smart code from an owning entity code by
// appending the field segment before the version, keeping the result a
// valid code. Used when tagging dynamic fields written alongside an entity.
func ForField(entityCode, fieldName string) string {
	if entityCode == "" {
		return ""
	}
	idx := strings.LastIndex(entityCode, ".")
	if idx < 0 || !strings.HasPrefix(entityCode[idx+1:], "v") {
		return entityCode
	}
	segment := strings.ToUpper(strings.ReplaceAll(fieldName, "-", "_"))
	return entityCode[:idx] + ".FIELD." + segment + "." + entityCode[idx+1:]
}
