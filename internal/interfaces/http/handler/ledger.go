package handler

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OutstandingReader is the slice of the ledger service the handler needs.
type OutstandingReader interface {
	ComputeCustomerOutstanding(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error)
	OutstandingReport(ctx context.Context) (map[billing.OutstandingPriority][]billing.CustomerOutstanding, error)
}

// LedgerHandler handles outstanding-amount API endpoints
type LedgerHandler struct {
	BaseHandler
	ledger OutstandingReader
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger OutstandingReader) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// CustomerOutstanding returns the customer's outstanding view
func (h *LedgerHandler) CustomerOutstanding(c *gin.Context) {
	customerID, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "Invalid customer id")
		return
	}

	outstanding, err := h.ledger.ComputeCustomerOutstanding(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, outstanding)
}

// OutstandingReport lists customers with non-zero outstanding grouped by
// collection priority
func (h *LedgerHandler) OutstandingReport(c *gin.Context) {
	report, err := h.ledger.OutstandingReport(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/customers/:id/outstanding", h.CustomerOutstanding)
	rg.GET("/reports/outstanding", h.OutstandingReport)
}
