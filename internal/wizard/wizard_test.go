package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethra/hera/internal/engine"
	"github.com/aethra/hera/internal/formspec"
)

func newTestWizard() *Wizard {
	spec := formspec.FallbackSpec("HERA.SALES.TXN.ORDER.v1")
	spec.TransactionType = "sale"
	return New(spec)
}

func TestStepNavigation_ClampsToRange(t *testing.T) {
	w := newTestWizard()
	require.Len(t, w.Spec().Steps, 2)

	assert.Equal(t, 0, w.Step())
	assert.Equal(t, 0, w.Back(), "back from first step stays at first")
	assert.Equal(t, 1, w.Next())
	assert.Equal(t, 1, w.Next(), "next from last step stays at last")
	assert.Equal(t, 0, w.GoTo(-5))
	assert.Equal(t, 1, w.GoTo(99))
}

func TestAddLine_DefaultsSmartCodeAndType(t *testing.T) {
	w := newTestWizard()
	w.AddLine(engine.LineInput{Quantity: 1, UnitAmount: 10})
	w.AddLine(engine.LineInput{LineType: "tax", LineAmount: 2, SmartCode: "HERA.TAX.TXN.LINE.v1"})

	lines := w.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "item", lines[0].LineType)
	assert.Equal(t, "HERA.SALES.TXN.ORDER.v1", lines[0].SmartCode)
	assert.Equal(t, "HERA.TAX.TXN.LINE.v1", lines[1].SmartCode)
}

func TestRemoveLine(t *testing.T) {
	w := newTestWizard()
	w.AddLine(engine.LineInput{Description: "a", Quantity: 1, UnitAmount: 1})
	w.AddLine(engine.LineInput{Description: "b", Quantity: 1, UnitAmount: 2})
	w.AddLine(engine.LineInput{Description: "c", Quantity: 1, UnitAmount: 3})

	w.RemoveLine(1)

	lines := w.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].Description)
	assert.Equal(t, "c", lines[1].Description)

	// Out-of-range removals are ignored.
	w.RemoveLine(-1)
	w.RemoveLine(10)
	assert.Len(t, w.Lines(), 2)
}

func TestUpdateLine_RecomputesTotal(t *testing.T) {
	w := newTestWizard()
	w.AddLine(engine.LineInput{Quantity: 1, UnitAmount: 10})
	w.AddLine(engine.LineInput{Quantity: 2, UnitAmount: 5})
	assert.Equal(t, 20.0, w.Total())

	w.UpdateLine(0, engine.LineInput{Quantity: 3, UnitAmount: 10})
	assert.Equal(t, 40.0, w.Total())

	// Out-of-range update is ignored.
	w.UpdateLine(5, engine.LineInput{Quantity: 100, UnitAmount: 100})
	assert.Equal(t, 40.0, w.Total())
}

func TestTotal_MatchesServerDerivation(t *testing.T) {
	w := newTestWizard()
	w.AddLine(engine.LineInput{Quantity: 3, UnitAmount: 0.333})
	w.AddLine(engine.LineInput{LineType: "discount", LineAmount: -0.5})

	assert.Equal(t, 0.5, w.Total())
}

func TestBuild_DefaultsAndHeaderFields(t *testing.T) {
	w := newTestWizard()
	w.AddLine(engine.LineInput{Quantity: 1, UnitAmount: 10})

	input := w.Build()
	assert.Equal(t, "sale", input.TransactionType)
	assert.Equal(t, "HERA.SALES.TXN.ORDER.v1", input.SmartCode)
	assert.Equal(t, engine.DefaultCurrency, input.TransactionCurrencyCode)
	assert.Len(t, input.Lines, 1)

	w.SetHeaderField("p_transaction_currency_code", "EUR")
	w.SetHeaderField("p_reference_number", "SO-1001")
	w.SetHeaderField("p_transaction_date", "2026-03-15")

	input = w.Build()
	assert.Equal(t, "EUR", input.TransactionCurrencyCode)
	assert.Equal(t, "SO-1001", input.TransactionCode)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), input.TransactionDate)
}

func TestBuild_FallbackLayoutNeedsExplicitType(t *testing.T) {
	// The generic fallback layout carries no transaction type of its own.
	w := New(formspec.FallbackSpec("HERA.SALES.TXN.ORDER.v1"))
	w.AddLine(engine.LineInput{Quantity: 1, UnitAmount: 10})
	assert.Empty(t, w.Build().TransactionType)

	w.SetTransactionType("sale")
	input := w.Build()
	assert.Equal(t, "sale", input.TransactionType)
	assert.Equal(t, "HERA.SALES.TXN.ORDER.v1", input.SmartCode)
}

func TestSetTransactionType_OverridesSpec(t *testing.T) {
	w := newTestWizard() // spec carries type "sale"
	w.SetTransactionType("refund")
	assert.Equal(t, "refund", w.Build().TransactionType)
}
