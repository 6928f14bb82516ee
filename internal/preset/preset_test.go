package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aethra/hera/internal/errors"
)

func TestDefaultRegistry_BuiltinsValid(t *testing.T) {
	r := DefaultRegistry()
	presets := r.List()
	require.NotEmpty(t, presets)

	for _, p := range presets {
		assert.NoError(t, p.Validate(), p.EntityType)
	}

	_, ok := r.Get("product")
	assert.True(t, ok)
	_, ok = r.Get("no_such_type")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	p := &Preset{EntityType: "widget", DynamicFields: []FieldSpec{{Name: "size", Type: TypeNumber}}}

	require.NoError(t, r.Register(p))
	assert.Error(t, r.Register(p))
}

func TestPresetValidate_RejectsBadFieldNames(t *testing.T) {
	bad := &Preset{
		EntityType:    "widget",
		DynamicFields: []FieldSpec{{Name: "drop table; --", Type: TypeText}},
	}
	assert.Error(t, bad.Validate())

	dupe := &Preset{
		EntityType: "widget",
		DynamicFields: []FieldSpec{
			{Name: "size", Type: TypeNumber},
			{Name: "size", Type: TypeText},
		},
	}
	assert.Error(t, dupe.Validate())
}

func TestPermissions_Can(t *testing.T) {
	perms := Permissions{
		ActionDelete: {"owner"},
		ActionEdit:   {"owner", "manager"},
	}

	assert.True(t, perms.Can(ActionView, nil), "unlisted action allows everyone")
	assert.True(t, perms.Can(ActionEdit, []string{"manager"}))
	assert.False(t, perms.Can(ActionEdit, []string{"staff"}))
	assert.False(t, perms.Can(ActionDelete, []string{"manager", "staff"}))
	assert.True(t, perms.Can(ActionDelete, []string{"staff", "owner"}))
}

func TestBuildDynamicFields_IntersectsWithPreset(t *testing.T) {
	p := &Preset{
		EntityType: "widget",
		DynamicFields: []FieldSpec{
			{Name: "size", Type: TypeNumber, SmartCode: "HERA.TEST.W.FIELD.SIZE.v1"},
			{Name: "color", Type: TypeText},
		},
	}

	values, err := p.BuildDynamicFields(map[string]interface{}{
		"size":     42.0,
		"color":    "red",
		"intruder": "ignored",
	})
	require.NoError(t, err)

	require.Len(t, values, 2)
	assert.Equal(t, 42.0, values["size"].Number)
	assert.Equal(t, "HERA.TEST.W.FIELD.SIZE.v1", values["size"].SmartCode)
	assert.Equal(t, "red", values["color"].Text)
}

func TestBuildDynamicFields_RequiredMissing(t *testing.T) {
	p := &Preset{
		EntityType: "widget",
		DynamicFields: []FieldSpec{
			{Name: "size", Type: TypeNumber, Required: true, UI: UISpec{Label: "Size"}},
			{Name: "color", Type: TypeText, Required: true},
		},
	}

	_, err := p.BuildDynamicFields(map[string]interface{}{})
	require.Error(t, err)

	ve, ok := err.(*apperrors.ValidationError)
	require.True(t, ok)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "Size is required", ve.Fields[0].Message)
	assert.Equal(t, "color is required", ve.Fields[1].Message, "label falls back to field name")
}

func TestBuildDynamicFields_EmptyStringCountsAsMissing(t *testing.T) {
	p := &Preset{
		EntityType: "widget",
		DynamicFields: []FieldSpec{
			{Name: "color", Type: TypeText, Required: true},
		},
	}

	_, err := p.BuildDynamicFields(map[string]interface{}{"color": ""})
	assert.Error(t, err)
}
