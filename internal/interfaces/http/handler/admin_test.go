package handler

import (
	"context"
	"net/http"
	"testing"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLedgerMaintainer implements LedgerMaintainer for testing
type MockLedgerMaintainer struct {
	mock.Mock
}

func (m *MockLedgerMaintainer) FixUnappliedPaymentsInconsistencies(ctx context.Context) (*appbilling.ReconcileResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.ReconcileResult), args.Error(1)
}

// MockMappingMigrator implements MappingMigrator for testing
type MockMappingMigrator struct {
	mock.Mock
}

func (m *MockMappingMigrator) MigrateInvoiceSalesMapping(ctx context.Context) (*appbilling.MappingMigrationResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.MappingMigrationResult), args.Error(1)
}

func TestAdminHandler_ReconcilePayments(t *testing.T) {
	reconciler := new(MockLedgerMaintainer)
	reconciler.On("FixUnappliedPaymentsInconsistencies", mock.Anything).Return(&appbilling.ReconcileResult{
		CheckedPayments:  10,
		RepairedPayments: 2,
	}, nil)

	engine := newTestEngine(NewAdminHandler(reconciler, new(MockMappingMigrator)))
	w := doJSON(t, engine, http.MethodPost, "/api/v1/admin/reconcile-payments", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	reconciler.AssertExpectations(t)
}

func TestAdminHandler_MigrateInvoiceMappings(t *testing.T) {
	migrator := new(MockMappingMigrator)
	migrator.On("MigrateInvoiceSalesMapping", mock.Anything).Return(&appbilling.MappingMigrationResult{
		MigratedInvoices: 4,
		MappedSales:      9,
		SkippedInvoices:  1,
	}, nil)

	engine := newTestEngine(NewAdminHandler(new(MockLedgerMaintainer), migrator))
	w := doJSON(t, engine, http.MethodPost, "/api/v1/admin/migrate-invoice-mappings", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	migrator.AssertExpectations(t)
}
