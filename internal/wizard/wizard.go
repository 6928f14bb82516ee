// Package wizard holds the in-memory state of a multi-step transaction
// builder. The wizard is pure state manipulation; persistence happens only
// when Build's output is handed to the transaction engine.
package wizard

import (
	"github.com/google/uuid"

	"github.com/aethra/hera/internal/engine"
	"github.com/aethra/hera/internal/formspec"
	"github.com/aethra/hera/internal/preset"
)

// Wizard accumulates a transaction header and lines across form steps.
type Wizard struct {
	spec    *formspec.FormSpec
	step    int
	txnType string
	header  map[string]interface{}
	lines   []engine.LineInput
}

// New starts a wizard for the given form spec at the first step.
func New(spec *formspec.FormSpec) *Wizard {
	return &Wizard{
		spec:   spec,
		header: make(map[string]interface{}),
	}
}

// Spec returns the form spec driving this wizard.
func (w *Wizard) Spec() *formspec.FormSpec { return w.spec }

// Step returns the current zero-based step index.
func (w *Wizard) Step() int { return w.step }

// CurrentStep returns the spec for the current step.
func (w *Wizard) CurrentStep() formspec.Step {
	return w.spec.Steps[w.step]
}

// Next advances one step, clamped to the last step.
func (w *Wizard) Next() int {
	return w.GoTo(w.step + 1)
}

// Back retreats one step, clamped to the first step.
func (w *Wizard) Back() int {
	return w.GoTo(w.step - 1)
}

// GoTo jumps to a step index, clamped into the valid range.
func (w *Wizard) GoTo(step int) int {
	if step < 0 {
		step = 0
	}
	if max := len(w.spec.Steps) - 1; max >= 0 && step > max {
		step = max
	}
	w.step = step
	return w.step
}

// SetTransactionType overrides the transaction type used by Build. The
// generic fallback layout carries no type of its own, so a wizard driven by
// it must set one before submitting.
func (w *Wizard) SetTransactionType(txnType string) {
	w.txnType = txnType
}

// SetHeaderField records one header field value.
func (w *Wizard) SetHeaderField(name string, value interface{}) {
	w.header[name] = value
}

// HeaderField returns a recorded header field value.
func (w *Wizard) HeaderField(name string) (interface{}, bool) {
	v, ok := w.header[name]
	return v, ok
}

// Lines returns the current working lines, renumbered.
func (w *Wizard) Lines() []engine.LineInput {
	return w.lines
}

// AddLine appends a line. An empty line smart code inherits the spec's.
func (w *Wizard) AddLine(line engine.LineInput) {
	if line.SmartCode == "" {
		line.SmartCode = w.spec.SmartCode
	}
	if line.LineType == "" {
		line.LineType = "item"
	}
	w.lines = append(w.lines, line)
}

// UpdateLine replaces the line at the zero-based index. Out-of-range indexes
// are ignored.
func (w *Wizard) UpdateLine(index int, line engine.LineInput) {
	if index < 0 || index >= len(w.lines) {
		return
	}
	if line.SmartCode == "" {
		line.SmartCode = w.spec.SmartCode
	}
	if line.LineType == "" {
		line.LineType = "item"
	}
	w.lines[index] = line
}

// RemoveLine deletes the line at the zero-based index. Remaining lines keep
// their order; numbering is recomputed on Build.
func (w *Wizard) RemoveLine(index int) {
	if index < 0 || index >= len(w.lines) {
		return
	}
	w.lines = append(w.lines[:index], w.lines[index+1:]...)
}

// Total is the running total over the working lines, using the same
// derivation the server applies on create.
func (w *Wizard) Total() float64 {
	normalized := engine.NormalizeLines(uuid.Nil, w.lines, w.spec.SmartCode)
	return engine.TotalOf(normalized)
}

// Build assembles the create payload from the collected state. The currency
// defaults to USD when the header never set one.
func (w *Wizard) Build() engine.CreateTransactionInput {
	txnType := w.txnType
	if txnType == "" {
		txnType = w.spec.TransactionType
	}
	input := engine.CreateTransactionInput{
		TransactionType:         txnType,
		SmartCode:               w.spec.SmartCode,
		TransactionCurrencyCode: engine.DefaultCurrency,
		Lines:                   w.lines,
	}

	if v, ok := w.header["p_transaction_currency_code"].(string); ok && v != "" {
		input.TransactionCurrencyCode = v
	}
	if v, ok := w.header["p_reference_number"].(string); ok {
		input.TransactionCode = v
	}
	if v, ok := w.header["p_transaction_date"].(string); ok && v != "" {
		if ts, err := preset.ParseDate(v); err == nil {
			input.TransactionDate = ts
		}
	}
	return input
}
