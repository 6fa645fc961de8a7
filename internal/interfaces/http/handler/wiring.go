package handler

import (
	appbilling "github.com/dairybooks/backend/internal/application/billing"
)

// Compile-time checks that the application services satisfy the handler ports.
var (
	_ PaymentAllocator  = (*appbilling.PaymentService)(nil)
	_ OutstandingReader = (*appbilling.LedgerService)(nil)
	_ InvoiceLifecycle  = (*appbilling.InvoiceService)(nil)
	_ BulkCoordinator   = (*appbilling.BulkInvoiceService)(nil)
	_ LedgerMaintainer  = (*appbilling.ReconcilerService)(nil)
	_ MappingMigrator   = (*appbilling.InvoiceService)(nil)
)
