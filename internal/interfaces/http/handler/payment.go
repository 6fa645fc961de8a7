package handler

import (
	"context"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAllocator is the slice of the payment service the handler needs.
type PaymentAllocator interface {
	CreatePayment(ctx context.Context, req appbilling.CreatePaymentRequest) (*billing.Payment, error)
	AllocateOpeningBalanceAtomic(ctx context.Context, paymentID, customerID uuid.UUID, amount decimal.Decimal) (*appbilling.OpeningBalanceAllocationResult, error)
	RollbackPayment(ctx context.Context, paymentID uuid.UUID) (*appbilling.RollbackResult, error)
}

// PaymentHandler handles payment and allocation API endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentAllocator
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentAllocator) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// AllocationRequest is one requested application of the payment. TargetID is
// required for invoice and sale targets and must be absent for opening_balance.
type AllocationRequest struct {
	TargetType string          `json:"target_type" binding:"required,oneof=invoice sale opening_balance"`
	TargetID   *string         `json:"target_id" binding:"omitempty,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// CreatePaymentRequest represents a request to record a customer payment
type CreatePaymentRequest struct {
	CustomerID  string              `json:"customer_id" binding:"required,uuid"`
	Amount      decimal.Decimal     `json:"amount" binding:"required"`
	Method      string              `json:"method" binding:"required,oneof=cash upi bank_transfer cheque"`
	Reference   string              `json:"reference" binding:"max=100"`
	ReceivedAt  *time.Time          `json:"received_at"`
	Allocations []AllocationRequest `json:"allocations" binding:"omitempty,dive"`
}

// AllocateOpeningBalanceRequest represents a request to apply part of a
// payment against the customer's opening balance
type AllocateOpeningBalanceRequest struct {
	CustomerID string          `json:"customer_id" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Amount           decimal.Decimal `json:"amount"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	AmountUnapplied  decimal.Decimal `json:"amount_unapplied"`
	AllocationStatus string          `json:"allocation_status"`
	Method           string          `json:"method"`
	Reference        string          `json:"reference,omitempty"`
	ReceivedAt       time.Time       `json:"received_at"`
}

func toPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		CustomerID:       p.CustomerID,
		Amount:           p.Amount,
		AmountApplied:    p.AmountApplied,
		AmountUnapplied:  p.AmountUnapplied,
		AllocationStatus: string(p.AllocationStatus),
		Method:           string(p.Method),
		Reference:        p.Reference,
		ReceivedAt:       p.ReceivedAt,
	}
}

// Create records a payment and applies any requested allocations in order
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer id")
		return
	}

	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	appReq := appbilling.CreatePaymentRequest{
		CustomerID: customerID,
		Amount:     req.Amount,
		Method:     billing.PaymentMethod(req.Method),
		Reference:  req.Reference,
		ReceivedAt: receivedAt,
	}
	for _, alloc := range req.Allocations {
		var targetID *uuid.UUID
		if alloc.TargetID != nil {
			id, err := uuid.Parse(*alloc.TargetID)
			if err != nil {
				h.BadRequest(c, "Invalid allocation target id")
				return
			}
			targetID = &id
		}
		appReq.Allocations = append(appReq.Allocations, appbilling.AllocationRequest{
			TargetType: billing.AllocationTargetType(alloc.TargetType),
			TargetID:   targetID,
			Amount:     alloc.Amount,
		})
	}

	payment, err := h.payments.CreatePayment(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toPaymentResponse(payment))
}

// AllocateOpeningBalance applies part of a payment against the customer's
// opening balance, capped at what remains of it
func (h *PaymentHandler) AllocateOpeningBalance(c *gin.Context) {
	paymentID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid payment id")
		return
	}

	var req AllocateOpeningBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer id")
		return
	}

	result, err := h.payments.AllocateOpeningBalanceAtomic(c.Request.Context(), paymentID, customerID, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Rollback reverses every allocation of the payment in one transaction
func (h *PaymentHandler) Rollback(c *gin.Context) {
	paymentID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid payment id")
		return
	}

	result, err := h.payments.RollbackPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Create)
		payments.POST("/:id/allocations/opening-balance", h.AllocateOpeningBalance)
		payments.POST("/:id/rollback", h.Rollback)
	}
}
