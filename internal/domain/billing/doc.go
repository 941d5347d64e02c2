// Package billing provides the domain model for subscription invoicing and
// payment settlement under the Argentine fiscal regime.
//
// Key aggregates:
//   - Invoice: billed document with tax-bearing lines, discount, state machine
//     (PENDING, OVERDUE, PARTIALLY_PAID, PAID, VOIDED) and credit-note reversal
//   - InvoiceBatch: one mass-billing run for a calendar month
//   - Payment: collected funds with their per-invoice applications
//
// Value objects:
//   - BillingPeriod: date range with proration arithmetic
//   - TaxRateCategory, TaxCategory: tax rate table and fiscal conditions
//   - Receipt: consolidated view of the payments settled under one number
//
// SettlementService is the allocation engine: it funds invoices from customer
// credit first, then cash, in input order, and credits any cash surplus back
// to the customer.
//
// The package integrates with the partner domain for subscriber accounts and
// their contracted services.
package billing
