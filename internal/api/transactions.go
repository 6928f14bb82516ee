// Package api - transaction handlers
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aethra/hera/internal/engine"
	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/metrics"
	"github.com/aethra/hera/internal/preset"
)

// CreateTransaction creates a transaction header with its lines.
func (h *Handler) CreateTransaction(c *gin.Context) {
	var input engine.CreateTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	txn, err := h.txns.CreateTransaction(c.Request.Context(), orgOf(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordTransactionOperation("create", txn.TransactionType)
	c.JSON(http.StatusCreated, txn)
}

// GetTransaction returns one transaction, with lines unless ?include_lines=false.
func (h *Handler) GetTransaction(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid transaction id"))
		return
	}

	includeLines := c.DefaultQuery("include_lines", "true") == "true"
	txn, err := h.txns.GetTransaction(c.Request.Context(), orgOf(c), txnID, includeLines)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// ListTransactions returns transaction headers matching query filters.
func (h *Handler) ListTransactions(c *gin.Context) {
	params := engine.TransactionListParams{
		TransactionType: c.Query("transaction_type"),
		Status:          c.Query("status"),
	}
	if raw := c.Query("date_from"); raw != "" {
		ts, err := preset.ParseDate(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("invalid date_from"))
			return
		}
		params.DateFrom = &ts
	}
	if raw := c.Query("date_to"); raw != "" {
		ts, err := preset.ParseDate(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("invalid date_to"))
			return
		}
		// An inclusive end date covers the whole day.
		end := ts.Add(24*time.Hour - time.Nanosecond)
		params.DateTo = &end
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "25"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.txns.ListTransactions(c.Request.Context(), orgOf(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordTransactionOperation("list", params.TransactionType)
	c.JSON(http.StatusOK, result)
}
