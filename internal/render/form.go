// Package render turns preset field specs into form and table view models.
// It is pure metadata mapping; no database or transport concerns live here.
package render

import (
	"fmt"
	"time"

	"github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/preset"
)

// Input is the view model for one form control.
type Input struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Widget      string   `json:"widget"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Value       any      `json:"value,omitempty"`
}

// Form is the rendered form for one entity type.
type Form struct {
	EntityType string  `json:"entity_type"`
	Title      string  `json:"title"`
	Inputs     []Input `json:"inputs"`
}

// BuildForm produces one input per declared dynamic field, in declaration
// order. Existing values (edit mode) are filled in when provided.
func BuildForm(p *preset.Preset, values map[string]preset.Value) *Form {
	form := &Form{
		EntityType: p.EntityType,
		Title:      p.Labels.Singular,
		Inputs:     make([]Input, 0, len(p.DynamicFields)),
	}
	for _, spec := range p.DynamicFields {
		in := Input{
			Name:        spec.Name,
			Label:       labelFor(spec),
			Type:        string(spec.Type),
			Widget:      widgetFor(spec),
			Required:    spec.Required,
			Placeholder: spec.UI.Placeholder,
			Options:     spec.Options,
			Min:         spec.Min,
			Max:         spec.Max,
		}
		if v, ok := values[spec.Name]; ok {
			in.Value = displayValue(spec, v)
		}
		form.Inputs = append(form.Inputs, in)
	}
	return form
}

// ValidateSubmission checks a raw payload against the preset: required fields
// present, values decodable into their declared types, numbers within range.
// All field problems are collected into a single error.
func ValidateSubmission(p *preset.Preset, payload map[string]interface{}) (map[string]preset.Value, error) {
	values, err := p.BuildDynamicFields(payload)
	if err != nil {
		return nil, err
	}

	var fieldErrs []errors.FieldError
	for _, spec := range p.DynamicFields {
		v, ok := values[spec.Name]
		if !ok || spec.Type != preset.TypeNumber {
			continue
		}
		if spec.Min != nil && v.Number < *spec.Min {
			fieldErrs = append(fieldErrs, errors.FieldError{
				Field:   spec.Name,
				Message: fmt.Sprintf("%s must be at least %g", labelFor(spec), *spec.Min),
			})
		}
		if spec.Max != nil && v.Number > *spec.Max {
			fieldErrs = append(fieldErrs, errors.FieldError{
				Field:   spec.Name,
				Message: fmt.Sprintf("%s must be at most %g", labelFor(spec), *spec.Max),
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, errors.NewFieldErrors(fieldErrs)
	}
	return values, nil
}

// labelFor prefers the explicit UI label, falling back to the field name.
func labelFor(spec preset.FieldSpec) string {
	if spec.UI.Label != "" {
		return spec.UI.Label
	}
	return spec.Name
}

// widgetFor picks the explicit widget, else a sensible default per type.
// Widget choice never depends on the field name.
func widgetFor(spec preset.FieldSpec) string {
	if spec.UI.Widget != "" {
		return spec.UI.Widget
	}
	switch spec.Type {
	case preset.TypeBoolean:
		return "checkbox"
	case preset.TypeDate:
		return "date"
	case preset.TypeJSON:
		return "textarea"
	default:
		return "input"
	}
}

// displayValue converts a stored value into its editing representation. Dates
// become YYYY-MM-DD for date inputs.
func displayValue(spec preset.FieldSpec, v preset.Value) any {
	if spec.Type == preset.TypeDate && !v.Date.IsZero() {
		return v.Date.Format("2006-01-02")
	}
	return v.Interface()
}

// NormalizeDate converts either editing or storage form into the canonical
// editing form.
func NormalizeDate(s string) (string, error) {
	ts, err := preset.ParseDate(s)
	if err != nil {
		return "", err
	}
	return ts.Format("2006-01-02"), nil
}

// StorageDate converts an editing-form date into its RFC3339 storage form at
// midnight UTC.
func StorageDate(s string) (string, error) {
	ts, err := preset.ParseDate(s)
	if err != nil {
		return "", err
	}
	return ts.UTC().Format(time.RFC3339), nil
}
