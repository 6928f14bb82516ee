// Package engine - transaction operations
package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
	"github.com/aethra/hera/internal/smartcode"
)

// DefaultCurrency is used when a transaction header carries no currency.
const DefaultCurrency = "USD"

// Line types whose amounts are supplied by the caller instead of being
// derived from quantity and unit amount.
var overrideLineTypes = map[string]bool{
	"tax":      true,
	"discount": true,
	"manual":   true,
}

// IsOverrideLineType reports whether line_amount is caller-supplied for the
// given line type.
func IsOverrideLineType(lineType string) bool {
	return overrideLineTypes[lineType]
}

// TransactionEngine handles business document headers and lines.
type TransactionEngine struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTransactionEngine creates a new transaction engine.
func NewTransactionEngine(db *gorm.DB, log *zap.Logger) *TransactionEngine {
	return &TransactionEngine{db: db, log: log}
}

// LineInput is one line of a create request. LineAmount is only honored for
// override line types; otherwise the server derives it.
type LineInput struct {
	LineType       string     `json:"line_type"`
	EntityID       *uuid.UUID `json:"entity_id,omitempty"`
	Description    string     `json:"description"`
	Quantity       float64    `json:"quantity"`
	UnitAmount     float64    `json:"unit_amount"`
	LineAmount     float64    `json:"line_amount"`
	SmartCode      string     `json:"smart_code,omitempty"`
	AccountID      *uuid.UUID `json:"account_id,omitempty"`
	TaxCode        *string    `json:"tax_code,omitempty"`
	TaxAmount      *float64   `json:"tax_amount,omitempty"`
	DiscountAmount *float64   `json:"discount_amount,omitempty"`
}

// CreateTransactionInput is the payload for CreateTransaction. TotalAmount
// from the client is advisory only; the server recomputes it from the lines.
type CreateTransactionInput struct {
	TransactionType         string       `json:"transaction_type"`
	TransactionCode         string       `json:"transaction_code,omitempty"`
	SmartCode               string       `json:"smart_code,omitempty"`
	TransactionDate         time.Time    `json:"transaction_date"`
	TransactionCurrencyCode string       `json:"transaction_currency_code,omitempty"`
	TotalAmount             float64      `json:"total_amount,omitempty"`
	Status                  string       `json:"status,omitempty"`
	Metadata                models.JSONB `json:"metadata,omitempty"`
	Lines                   []LineInput  `json:"lines"`
}

// TransactionListParams filters ListTransactions.
type TransactionListParams struct {
	TransactionType string
	Status          string
	DateFrom        *time.Time
	DateTo          *time.Time
	Limit           int
	Offset          int
}

// TransactionListResult is the envelope for a transaction list query.
type TransactionListResult struct {
	Transactions []models.Transaction `json:"transactions"`
	Total        int64                `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// NormalizeLines renumbers lines contiguously from 1 and derives line_amount
// from quantity × unit_amount for non-override line types. Amounts round to
// two decimals.
func NormalizeLines(orgID uuid.UUID, inputs []LineInput, headerSmartCode string) []models.TransactionLine {
	lines := make([]models.TransactionLine, 0, len(inputs))
	for i, in := range inputs {
		lineType := in.LineType
		if lineType == "" {
			lineType = "item"
		}
		amount := in.LineAmount
		if !IsOverrideLineType(lineType) {
			amount = round2(in.Quantity * in.UnitAmount)
		}
		code := in.SmartCode
		if code == "" {
			code = headerSmartCode
		}
		lines = append(lines, models.TransactionLine{
			ID:             uuid.New(),
			OrganizationID: orgID,
			LineNumber:     i + 1,
			LineType:       lineType,
			EntityID:       in.EntityID,
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitAmount:     in.UnitAmount,
			LineAmount:     amount,
			SmartCode:      code,
			AccountID:      in.AccountID,
			TaxCode:        in.TaxCode,
			TaxAmount:      in.TaxAmount,
			DiscountAmount: in.DiscountAmount,
		})
	}
	return lines
}

// TotalOf sums line_amount over all lines.
func TotalOf(lines []models.TransactionLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineAmount
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateTransaction validates the header, normalizes the lines and inserts
// header plus lines atomically. Line entity references must belong to the
// organization.
func (t *TransactionEngine) CreateTransaction(ctx context.Context, orgID uuid.UUID, input CreateTransactionInput) (*models.Transaction, error) {
	if input.TransactionType == "" {
		return nil, apperrors.NewValidationError("transaction_type", "transaction_type is required")
	}
	if input.SmartCode != "" {
		if err := smartcode.Validate(input.SmartCode); err != nil {
			return nil, apperrors.NewValidationError("smart_code", err.Error())
		}
	}

	currency := input.TransactionCurrencyCode
	if currency == "" {
		currency = DefaultCurrency
	}
	status := input.Status
	if status == "" {
		status = "draft"
	}
	date := input.TransactionDate
	if date.IsZero() {
		date = time.Now().UTC()
	}

	lines := NormalizeLines(orgID, input.Lines, input.SmartCode)

	txn := models.Transaction{
		ID:                      uuid.New(),
		OrganizationID:          orgID,
		TransactionType:         input.TransactionType,
		TransactionCode:         input.TransactionCode,
		SmartCode:               input.SmartCode,
		TransactionDate:         date,
		TransactionCurrencyCode: currency,
		TotalAmount:             TotalOf(lines),
		Status:                  status,
		Metadata:                input.Metadata,
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if line.EntityID == nil {
				continue
			}
			var count int64
			if err := tx.Model(&models.Entity{}).
				Where("organization_id = ? AND id = ?", orgID, *line.EntityID).
				Count(&count).Error; err != nil {
				return apperrors.NewInternalError(err)
			}
			if count == 0 {
				return apperrors.NewValidationError("entity_id", "line references an entity outside the organization")
			}
		}

		if err := tx.Create(&txn).Error; err != nil {
			return apperrors.NewInternalError(err)
		}
		for i := range lines {
			lines[i].TransactionID = txn.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return apperrors.NewInternalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.Lines = lines
	t.log.Info("transaction created",
		zap.String("organization_id", orgID.String()),
		zap.String("transaction_id", txn.ID.String()),
		zap.String("transaction_type", txn.TransactionType),
		zap.Float64("total_amount", txn.TotalAmount),
		zap.Int("lines", len(lines)))
	writeAuditLog(ctx, t.db, t.log, orgID, nil, "transaction", txn.ID, "create", nil, models.JSONB{
		"transaction_type": txn.TransactionType,
		"total_amount":     txn.TotalAmount,
		"line_count":       len(lines),
	})

	return &txn, nil
}

// GetTransaction returns one transaction, optionally with its lines ordered
// by line number.
func (t *TransactionEngine) GetTransaction(ctx context.Context, orgID, txnID uuid.UUID, includeLines bool) (*models.Transaction, error) {
	query := t.db.WithContext(ctx).Where("organization_id = ? AND id = ?", orgID, txnID)
	if includeLines {
		query = query.Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number")
		})
	}

	var txn models.Transaction
	if err := query.First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("transaction")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &txn, nil
}

// ListTransactions returns transaction headers matching the filter.
func (t *TransactionEngine) ListTransactions(ctx context.Context, orgID uuid.UUID, params TransactionListParams) (*TransactionListResult, error) {
	if params.Limit < 1 {
		params.Limit = 25
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	query := t.db.WithContext(ctx).Model(&models.Transaction{}).Where("organization_id = ?", orgID)
	if params.TransactionType != "" {
		query = query.Where("transaction_type = ?", params.TransactionType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *params.DateFrom)
	}
	if params.DateTo != nil {
		query = query.Where("transaction_date <= ?", *params.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	var txns []models.Transaction
	if err := query.Order("transaction_date DESC").
		Offset(params.Offset).Limit(params.Limit).
		Find(&txns).Error; err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &TransactionListResult{
		Transactions: txns,
		Total:        total,
		Limit:        params.Limit,
		Offset:       params.Offset,
	}, nil
}
