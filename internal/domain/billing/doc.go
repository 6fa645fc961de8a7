// Package billing holds the customer ledger's core aggregates: invoices,
// payments and their allocations.
//
// An invoice bills a customer's credit sales for a calendar period and keeps
// an amount-paid running total. A payment is money received from a customer;
// allocations split it across invoices, individual sales and the customer's
// opening balance. A payment's applied amount must always equal the sum of
// its allocations; the reconciler repairs rows where the two drift apart.
//
// Repository interfaces live here; GORM implementations are under
// internal/infrastructure/persistence.
package billing
