// Package formspec resolves wizard form layouts keyed by smart code. A
// missing or failing lookup degrades to a built-in generic two-step layout;
// the fallback is policy, not an error.
package formspec

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FormField is one input in a wizard step.
type FormField struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"` // text, number, boolean, date, json
	Widget      string   `json:"widget,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Step is one page of a wizard.
type Step struct {
	Key    string      `json:"key"`
	Title  string      `json:"title"`
	Kind   string      `json:"kind"` // fields or lines
	Fields []FormField `json:"fields,omitempty"`
}

// FormSpec is the full layout for building one transaction type.
type FormSpec struct {
	SmartCode string `json:"smart_code"`
	// TransactionType travels explicitly; the smart code is never parsed
	// to infer it.
	TransactionType string `json:"transaction_type,omitempty"`
	Title           string `json:"title,omitempty"`
	Steps           []Step `json:"steps"`
}

// Store loads form specs from persistent storage.
type Store interface {
	FormSpecBySmartCode(ctx context.Context, orgID *uuid.UUID, code string) (*FormSpec, error)
}

// Resolver looks up a spec and falls back to the generic layout when the
// lookup fails for any reason.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// NewResolver creates a resolver over a store.
func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve returns the spec for a smart code. Never returns an error: any
// lookup failure yields the fallback spec.
func (r *Resolver) Resolve(ctx context.Context, orgID *uuid.UUID, code string) *FormSpec {
	spec, err := r.store.FormSpecBySmartCode(ctx, orgID, code)
	if err != nil || spec == nil {
		if err != nil {
			r.log.Debug("form spec lookup failed, using fallback",
				zap.String("smart_code", code),
				zap.Error(err))
		}
		return FallbackSpec(code)
	}
	return spec
}

// FallbackSpec is the generic two-step header-then-lines layout used when no
// stored spec matches a smart code.
func FallbackSpec(code string) *FormSpec {
	return &FormSpec{
		SmartCode: code,
		Title:     "New Transaction",
		Steps: []Step{
			{
				Key:   "header",
				Title: "Header",
				Kind:  "fields",
				Fields: []FormField{
					{Name: "p_transaction_date", Label: "Transaction date", Type: "date", Widget: "date", Required: true},
					{Name: "p_reference_number", Label: "Reference number", Type: "text", Widget: "input"},
					{Name: "p_transaction_currency_code", Label: "Currency", Type: "text", Widget: "select", Options: []string{"USD", "EUR", "GBP", "AED"}},
				},
			},
			{
				Key:   "lines",
				Title: "Lines",
				Kind:  "lines",
			},
		},
	}
}
