package handler

import (
	"context"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceLifecycle is the slice of the invoice service the handler needs.
type InvoiceLifecycle interface {
	GenerateInvoice(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time, validateExisting bool) (*billing.Invoice, error)
	DeleteInvoiceSafe(ctx context.Context, invoiceID uuid.UUID, permanent bool) (*appbilling.DeleteInvoiceResult, error)
	RecoverInvoice(ctx context.Context, invoiceID uuid.UUID) (*appbilling.RecoverInvoiceResult, error)
}

// InvoiceHandler handles invoice lifecycle API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceLifecycle
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceLifecycle) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// GenerateInvoiceRequest represents a single-customer invoice generation request
type GenerateInvoiceRequest struct {
	CustomerID       string    `json:"customer_id" binding:"required,uuid"`
	PeriodStart      time.Time `json:"period_start" binding:"required"`
	PeriodEnd        time.Time `json:"period_end" binding:"required"`
	ValidateExisting *bool     `json:"validate_existing"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	TotalAmount   string    `json:"total_amount"`
	AmountPaid    string    `json:"amount_paid"`
	Status        string    `json:"status"`
	DueDate       time.Time `json:"due_date"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		PeriodStart:   inv.PeriodStart,
		PeriodEnd:     inv.PeriodEnd,
		TotalAmount:   inv.TotalAmount.StringFixed(2),
		AmountPaid:    inv.AmountPaid.StringFixed(2),
		Status:        string(inv.Status),
		DueDate:       inv.DueDate,
	}
}

// Generate creates one invoice from the customer's pending credit sales in
// the billing period
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer id")
		return
	}

	validate := true
	if req.ValidateExisting != nil {
		validate = *req.ValidateExisting
	}

	invoice, err := h.invoices.GenerateInvoice(c.Request.Context(), customerID, req.PeriodStart, req.PeriodEnd, validate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// Delete removes an invoice after reverting its billed sales. Soft by
// default; ?permanent=true removes the row and its mappings.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice id")
		return
	}
	permanent := c.Query("permanent") == "true"

	result, err := h.invoices.DeleteInvoiceSafe(c.Request.Context(), invoiceID, permanent)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Recover restores a soft-deleted invoice and its sales' previous statuses
func (h *InvoiceHandler) Recover(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid invoice id")
		return
	}

	result, err := h.invoices.RecoverInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers invoice lifecycle routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("/generate", h.Generate)
		invoices.DELETE("/:id", h.Delete)
		invoices.POST("/:id/recover", h.Recover)
	}
}
