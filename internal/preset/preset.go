// Package preset contains the declarative descriptors that parameterize the
// generic form/table renderers and the CRUD client for a given business
// object type. A preset is metadata only; it is never persisted per-instance.
package preset

import (
	"fmt"

	"github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/security"
)

// Action is a permissioned operation on an entity type.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Cardinality of a relationship as consumed by presets.
type Cardinality string

const (
	CardinalityOne  Cardinality = "one"
	CardinalityMany Cardinality = "many"
)

// UISpec carries the rendering hints for one field. Widget and Format are
// explicit attributes; behavior is never inferred from the field name.
type UISpec struct {
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Widget      string   `json:"widget,omitempty"` // input, select, textarea, checkbox, date
	Format      string   `json:"format,omitempty"` // currency, percent, text
	Roles       []string `json:"roles,omitempty"`  // empty = visible to all roles
}

// FieldSpec describes one dynamic field of an entity type.
type FieldSpec struct {
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	SmartCode string    `json:"smart_code,omitempty"`
	Min       *float64  `json:"min,omitempty"`
	Max       *float64  `json:"max,omitempty"`
	Options   []string  `json:"options,omitempty"` // for select widgets
	UI        UISpec    `json:"ui"`
}

// RelationshipSpec describes one relationship type an entity participates in.
type RelationshipSpec struct {
	Type             string      `json:"type"` // e.g. HAS_CATEGORY
	TargetEntityType string      `json:"target_entity_type"`
	Cardinality      Cardinality `json:"cardinality"`
	SmartCode        string      `json:"smart_code,omitempty"`
}

// Labels holds display names for an entity type.
type Labels struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// Permissions maps an action to the roles allowed to perform it. A missing
// or empty role list allows every role.
type Permissions map[Action][]string

// Can reports whether any of the given roles may perform the action.
func (p Permissions) Can(action Action, roles []string) bool {
	allowed, ok := p[action]
	if !ok || len(allowed) == 0 {
		return true
	}
	for _, want := range allowed {
		for _, have := range roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Preset is the full descriptor for one entity type.
type Preset struct {
	EntityType    string             `json:"entity_type"`
	SmartCode     string             `json:"smart_code"`
	Labels        Labels             `json:"labels"`
	DynamicFields []FieldSpec        `json:"dynamic_fields"`
	Relationships []RelationshipSpec `json:"relationships,omitempty"`
	Permissions   Permissions        `json:"permissions,omitempty"`
}

// Field returns the spec for a named dynamic field.
func (p *Preset) Field(name string) (*FieldSpec, bool) {
	for i := range p.DynamicFields {
		if p.DynamicFields[i].Name == name {
			return &p.DynamicFields[i], true
		}
	}
	return nil, false
}

// Relationship returns the spec for a named relationship type.
func (p *Preset) Relationship(relType string) (*RelationshipSpec, bool) {
	for i := range p.Relationships {
		if p.Relationships[i].Type == relType {
			return &p.Relationships[i], true
		}
	}
	return nil, false
}

// Validate checks the preset is internally consistent. Field names must be
// safe identifiers since they become dynamic data keys.
func (p *Preset) Validate() error {
	if p.EntityType == "" {
		return fmt.Errorf("preset: entity_type is required")
	}
	seen := make(map[string]bool, len(p.DynamicFields))
	for _, f := range p.DynamicFields {
		if err := security.ValidateIdentifier(f.Name); err != nil {
			return fmt.Errorf("preset %s: %w", p.EntityType, err)
		}
		if seen[f.Name] {
			return fmt.Errorf("preset %s: duplicate field %q", p.EntityType, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("preset %s: field %q has unknown type %q", p.EntityType, f.Name, f.Type)
		}
	}
	return nil
}

// BuildDynamicFields intersects the preset's declared fields with the payload
// keys and decodes each present value into its declared type, tagged with the
// field's smart code. Keys outside the preset are dropped. Missing required
// fields are reported per-field.
func (p *Preset) BuildDynamicFields(payload map[string]interface{}) (map[string]Value, error) {
	result := make(map[string]Value)
	var fieldErrs []errors.FieldError

	for _, spec := range p.DynamicFields {
		raw, ok := payload[spec.Name]
		if !ok || raw == nil || raw == "" {
			if spec.Required {
				fieldErrs = append(fieldErrs, errors.FieldError{
					Field:   spec.Name,
					Message: fmt.Sprintf("%s is required", labelOf(spec)),
				})
			}
			continue
		}

		value, err := Decode(spec.Type, raw)
		if err != nil {
			fieldErrs = append(fieldErrs, errors.FieldError{
				Field:   spec.Name,
				Message: err.Error(),
			})
			continue
		}
		value.SmartCode = spec.SmartCode
		result[spec.Name] = value
	}

	if len(fieldErrs) > 0 {
		return nil, errors.NewFieldErrors(fieldErrs)
	}
	return result, nil
}

func labelOf(spec FieldSpec) string {
	if spec.UI.Label != "" {
		return spec.UI.Label
	}
	return spec.Name
}
