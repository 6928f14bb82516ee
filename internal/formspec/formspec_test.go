package formspec

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aethra/hera/internal/models"
)

type fakeStore struct {
	spec *FormSpec
	err  error
}

func (f *fakeStore) FormSpecBySmartCode(ctx context.Context, orgID *uuid.UUID, code string) (*FormSpec, error) {
	return f.spec, f.err
}

func TestFallbackSpec_GenericTwoStepLayout(t *testing.T) {
	spec := FallbackSpec("HERA.SALES.TXN.ORDER.v1")

	assert.Equal(t, "HERA.SALES.TXN.ORDER.v1", spec.SmartCode)
	require.Len(t, spec.Steps, 2)

	header := spec.Steps[0]
	assert.Equal(t, "fields", header.Kind)
	require.Len(t, header.Fields, 3)
	assert.Equal(t, "p_transaction_date", header.Fields[0].Name)
	assert.Equal(t, "p_reference_number", header.Fields[1].Name)
	assert.Equal(t, "p_transaction_currency_code", header.Fields[2].Name)

	lines := spec.Steps[1]
	assert.Equal(t, "lines", lines.Kind)
	assert.Empty(t, lines.Fields)
}

func TestResolve_ReturnsStoredSpec(t *testing.T) {
	stored := &FormSpec{
		SmartCode:       "HERA.SALES.TXN.ORDER.v1",
		TransactionType: "sale",
		Steps:           []Step{{Key: "custom", Kind: "fields"}},
	}
	r := NewResolver(&fakeStore{spec: stored}, zap.NewNop())

	got := r.Resolve(context.Background(), nil, "HERA.SALES.TXN.ORDER.v1")
	assert.Equal(t, stored, got)
}

func TestResolve_FallsBackWhenMissing(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())

	got := r.Resolve(context.Background(), nil, "HERA.UNKNOWN.TXN.X.v1")
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "HERA.UNKNOWN.TXN.X.v1", got.SmartCode)
}

func TestDecodeRecord_RejectsSpecWithoutSteps(t *testing.T) {
	record := &models.FormSpecRecord{
		SmartCode: "HERA.SALES.TXN.ORDER.v1",
		Spec:      models.JSONB{"title": "Broken", "steps": []interface{}{}},
	}
	_, err := decodeRecord(record)
	require.Error(t, err)

	record.Spec = models.JSONB{
		"steps": []interface{}{
			map[string]interface{}{"key": "header", "kind": "fields"},
		},
	}
	spec, err := decodeRecord(record)
	require.NoError(t, err)
	assert.Equal(t, "HERA.SALES.TXN.ORDER.v1", spec.SmartCode)
	require.Len(t, spec.Steps, 1)
}

func TestResolve_FallsBackOnStoreError(t *testing.T) {
	r := NewResolver(&fakeStore{err: errors.New("connection refused")}, zap.NewNop())

	got := r.Resolve(context.Background(), nil, "HERA.SALES.TXN.ORDER.v1")
	require.NotNil(t, got)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "header", got.Steps[0].Key)
}
