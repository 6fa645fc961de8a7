package handler

import (
	"context"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// LedgerMaintainer is the slice of the maintenance services the handler needs.
type LedgerMaintainer interface {
	FixUnappliedPaymentsInconsistencies(ctx context.Context) (*appbilling.ReconcileResult, error)
}

// MappingMigrator backfills invoice-sales mapping rows for legacy invoices.
type MappingMigrator interface {
	MigrateInvoiceSalesMapping(ctx context.Context) (*appbilling.MappingMigrationResult, error)
}

// AdminHandler handles ledger maintenance API endpoints
type AdminHandler struct {
	BaseHandler
	reconciler LedgerMaintainer
	migrator   MappingMigrator
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(reconciler LedgerMaintainer, migrator MappingMigrator) *AdminHandler {
	return &AdminHandler{reconciler: reconciler, migrator: migrator}
}

// ReconcilePayments runs the idempotent repair pass over the payments table
func (h *AdminHandler) ReconcilePayments(c *gin.Context) {
	result, err := h.reconciler.FixUnappliedPaymentsInconsistencies(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// MigrateInvoiceMappings backfills mapping rows for pre-mapping invoices
func (h *AdminHandler) MigrateInvoiceMappings(c *gin.Context) {
	result, err := h.migrator.MigrateInvoiceSalesMapping(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers admin maintenance routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/reconcile-payments", h.ReconcilePayments)
		admin.POST("/migrate-invoice-mappings", h.MigrateInvoiceMappings)
	}
}
