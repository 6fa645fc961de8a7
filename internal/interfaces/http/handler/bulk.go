package handler

import (
	"context"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BulkCoordinator is the slice of the bulk service the handler needs.
type BulkCoordinator interface {
	GenerateBulkInvoices(ctx context.Context, req appbilling.BulkGenerateRequest) (*appbilling.BulkGenerateResult, error)
	DeleteBulkInvoices(ctx context.Context, req appbilling.BulkDeleteRequest) (*appbilling.BulkDeleteResult, error)
}

// BulkHandler handles batch invoice API endpoints
type BulkHandler struct {
	BaseHandler
	bulk BulkCoordinator
}

// NewBulkHandler creates a new BulkHandler
func NewBulkHandler(bulk BulkCoordinator) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// BulkGenerateInvoicesRequest represents a batch invoice generation request
type BulkGenerateInvoicesRequest struct {
	PeriodStart      time.Time `json:"period_start" binding:"required"`
	PeriodEnd        time.Time `json:"period_end" binding:"required"`
	CustomerIDs      []string  `json:"customer_ids" binding:"required,min=1,dive,uuid"`
	ValidateExisting *bool     `json:"validate_existing"`
}

// BulkDeleteInvoicesRequest represents a batch invoice deletion request
type BulkDeleteInvoicesRequest struct {
	InvoiceIDs       []string `json:"invoice_ids" binding:"required,min=1,dive,uuid"`
	Permanent        bool     `json:"permanent"`
	ValidatePayments *bool    `json:"validate_payments"`
}

// Generate runs a per-customer invoice generation batch with partial-success
// semantics: per-item failures land in errors[], a catastrophic failure
// returns a top-level error with successful_count zero
func (h *BulkHandler) Generate(c *gin.Context) {
	var req BulkGenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerIDs := make([]uuid.UUID, 0, len(req.CustomerIDs))
	for _, raw := range req.CustomerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer id: "+raw)
			return
		}
		customerIDs = append(customerIDs, id)
	}

	validate := true
	if req.ValidateExisting != nil {
		validate = *req.ValidateExisting
	}

	result, err := h.bulk.GenerateBulkInvoices(c.Request.Context(), appbilling.BulkGenerateRequest{
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		CustomerIDs:      customerIDs,
		ValidateExisting: validate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.bulkResult(c, result.Success, result.Error, result)
}

// Delete runs a batch invoice deletion with the same partial-success semantics
func (h *BulkHandler) Delete(c *gin.Context) {
	var req BulkDeleteInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoiceIDs := make([]uuid.UUID, 0, len(req.InvoiceIDs))
	for _, raw := range req.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid invoice id: "+raw)
			return
		}
		invoiceIDs = append(invoiceIDs, id)
	}

	validatePayments := true
	if req.ValidatePayments != nil {
		validatePayments = *req.ValidatePayments
	}

	result, err := h.bulk.DeleteBulkInvoices(c.Request.Context(), appbilling.BulkDeleteRequest{
		InvoiceIDs:       invoiceIDs,
		Permanent:        req.Permanent,
		ValidatePayments: validatePayments,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.bulkResult(c, result.Success, result.Error, result)
}

// bulkResult returns 200 for any batch that ran, including partial failures;
// a catastrophic batch gets the status of its top-level error code
func (h *BulkHandler) bulkResult(c *gin.Context, success bool, batchErr *shared.DomainError, result any) {
	if success {
		h.Success(c, result)
		return
	}

	code := dto.ErrCodeInternal
	message := "Bulk operation aborted"
	if batchErr != nil {
		code = batchErr.Code
		message = batchErr.Message
	}
	c.JSON(dto.GetHTTPStatus(code), dto.Response{
		Success: false,
		Data:    result,
		Error: &dto.ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: getRequestID(c),
		},
	})
}

// RegisterRoutes registers bulk invoice routes
func (h *BulkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/bulk-generate", h.Generate)
		invoices.POST("/bulk-delete", h.Delete)
	}
}
