// Package render - table view models
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aethra/hera/internal/preset"
)

const maxCellLength = 50

// Column is the view model for one table column.
type Column struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// ColumnsFor returns the columns visible to a viewer with the given roles, in
// field declaration order. A field with no role restriction is visible to
// everyone.
func ColumnsFor(p *preset.Preset, roles []string) []Column {
	cols := make([]Column, 0, len(p.DynamicFields))
	for _, spec := range p.DynamicFields {
		if !visibleTo(spec, roles) {
			continue
		}
		cols = append(cols, Column{
			Name:   spec.Name,
			Label:  labelFor(spec),
			Type:   string(spec.Type),
			Format: spec.UI.Format,
		})
	}
	return cols
}

func visibleTo(spec preset.FieldSpec, roles []string) bool {
	if len(spec.UI.Roles) == 0 {
		return true
	}
	for _, want := range spec.UI.Roles {
		for _, have := range roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// FormatCell renders a value for display in a table according to the column's
// explicit format attribute. Long text is truncated with an ellipsis.
func FormatCell(col Column, v preset.Value) string {
	switch col.Format {
	case "currency":
		return fmt.Sprintf("$%.2f", v.Number)
	case "percent":
		return fmt.Sprintf("%.1f%%", v.Number)
	}

	switch v.Type {
	case preset.TypeText:
		return truncate(v.Text)
	case preset.TypeNumber:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v.Number), "0"), ".")
	case preset.TypeBoolean:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case preset.TypeDate:
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.Format("2006-01-02")
	case preset.TypeJSON:
		return truncate(fmt.Sprintf("%v", v.JSON))
	}
	return ""
}

// truncate cuts on rune boundaries so multi-byte text stays valid UTF-8.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxCellLength {
		return s
	}
	return string([]rune(s)[:maxCellLength-1]) + "…"
}
