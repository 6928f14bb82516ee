package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/preset"
)

func productPreset(t *testing.T) *preset.Preset {
	t.Helper()
	p, ok := preset.DefaultRegistry().Get("product")
	require.True(t, ok)
	return p
}

func TestBuildForm_OneInputPerField(t *testing.T) {
	p := productPreset(t)
	form := BuildForm(p, nil)

	require.Len(t, form.Inputs, len(p.DynamicFields))
	for i, spec := range p.DynamicFields {
		assert.Equal(t, spec.Name, form.Inputs[i].Name)
	}
	assert.Equal(t, "Product", form.Title)
}

func TestBuildForm_ExplicitWidgetWins(t *testing.T) {
	p := &preset.Preset{
		EntityType: "thing",
		DynamicFields: []preset.FieldSpec{
			{Name: "flag", Type: preset.TypeBoolean},
			{Name: "due", Type: preset.TypeDate},
			{Name: "blob", Type: preset.TypeJSON},
			{Name: "label", Type: preset.TypeText},
			{Name: "custom", Type: preset.TypeText, UI: preset.UISpec{Widget: "select"}},
		},
	}
	form := BuildForm(p, nil)

	assert.Equal(t, "checkbox", form.Inputs[0].Widget)
	assert.Equal(t, "date", form.Inputs[1].Widget)
	assert.Equal(t, "textarea", form.Inputs[2].Widget)
	assert.Equal(t, "input", form.Inputs[3].Widget)
	assert.Equal(t, "select", form.Inputs[4].Widget)
}

func TestBuildForm_DateValueUsesEditingForm(t *testing.T) {
	p := &preset.Preset{
		EntityType: "thing",
		DynamicFields: []preset.FieldSpec{
			{Name: "due", Type: preset.TypeDate},
		},
	}
	form := BuildForm(p, map[string]preset.Value{
		"due": {Type: preset.TypeDate, Date: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)},
	})

	assert.Equal(t, "2026-01-02", form.Inputs[0].Value)
}

func TestValidateSubmission_RequiredUsesLabel(t *testing.T) {
	p := productPreset(t)

	_, err := ValidateSubmission(p, map[string]interface{}{"sku": "A-1"})
	require.Error(t, err)

	ve, ok := err.(*apperrors.ValidationError)
	require.True(t, ok)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "price", ve.Fields[0].Field)
	assert.Equal(t, "Price is required", ve.Fields[0].Message)
}

func TestValidateSubmission_RangeErrors(t *testing.T) {
	p, ok := preset.DefaultRegistry().Get("service")
	require.True(t, ok)

	_, err := ValidateSubmission(p, map[string]interface{}{
		"price":            10.0,
		"duration_minutes": 999.0,
		"commission_rate":  -3.0,
	})
	require.Error(t, err)

	ve, ok := err.(*apperrors.ValidationError)
	require.True(t, ok)
	require.Len(t, ve.Fields, 2)

	byField := map[string]string{}
	for _, fe := range ve.Fields {
		byField[fe.Field] = fe.Message
	}
	assert.Equal(t, "Duration (minutes) must be at most 600", byField["duration_minutes"])
	assert.Equal(t, "Commission rate must be at least 0", byField["commission_rate"])
}

func TestValidateSubmission_TypeMismatch(t *testing.T) {
	p := productPreset(t)

	_, err := ValidateSubmission(p, map[string]interface{}{"price": "not a number"})
	require.Error(t, err)

	ve, ok := err.(*apperrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "price", ve.Fields[0].Field)
}

func TestValidateSubmission_DropsUndeclaredKeys(t *testing.T) {
	p := productPreset(t)

	values, err := ValidateSubmission(p, map[string]interface{}{
		"price":     9.99,
		"__proto__": "bad",
		"unknown":   "dropped",
	})
	require.NoError(t, err)
	assert.Contains(t, values, "price")
	assert.NotContains(t, values, "unknown")
	assert.NotContains(t, values, "__proto__")
}

func TestNormalizeDate(t *testing.T) {
	got, err := NormalizeDate("2026-05-01T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", got)

	got, err = NormalizeDate("2026-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", got)

	_, err = NormalizeDate("May 1st")
	assert.Error(t, err)
}

func TestStorageDate(t *testing.T) {
	got, err := StorageDate("2026-05-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01T00:00:00Z", got)
}
