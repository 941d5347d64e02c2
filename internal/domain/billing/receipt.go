package billing

import (
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptBreakdownEntry details one applied portion on a receipt
type ReceiptBreakdownEntry struct {
	Method        PaymentMethod   `json:"method"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// InvoiceSummary is one settled invoice as shown on the receipt
type InvoiceSummary struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
}

// Receipt is the generated view summarizing every payment issued under one
// receipt number. It is rebuilt from the stored payments on demand, it is
// not a ledger record of its own.
type Receipt struct {
	Number           int                     `json:"number"`
	Date             time.Time               `json:"date"`
	TotalAmount      decimal.Decimal         `json:"total_amount"`
	DisplayMethod    string                  `json:"display_method"`
	CustomerID       uuid.UUID               `json:"customer_id"`
	CustomerName     string                  `json:"customer_name"`
	InvoiceSummaries []InvoiceSummary        `json:"invoice_summaries"`
	Breakdown        []ReceiptBreakdownEntry `json:"breakdown"`
	Observations     []string                `json:"observations"`
}

// FormattedNumber renders the receipt number zero-padded to 8 digits
func (r *Receipt) FormattedNumber() string {
	return fmt.Sprintf("%08d", r.Number)
}

// BuildReceipt assembles the receipt view for the payments sharing one
// receipt number. The total is the sum of those payments plus any surplus
// credited, so it reflects the full amount tendered. When the payments mix
// a settlement method with credit-balance funding, the display method
// composes both. Observations surface credit consumed and surplus credited.
func BuildReceipt(
	number int,
	customerID uuid.UUID,
	customerName string,
	payments []*Payment,
	applications []*PaymentApplication,
	creditConsumed decimal.Decimal,
	surplusCredited decimal.Decimal,
) (*Receipt, error) {
	if number <= 0 {
		return nil, shared.NewValidationError("INVALID_RECEIPT_NUMBER", "Receipt number must be positive")
	}
	if len(payments) == 0 {
		return nil, shared.NewValidationError("NO_PAYMENTS", "A receipt requires at least one payment")
	}

	total := decimal.Zero
	date := payments[0].PaymentDate
	for _, p := range payments {
		if p.ReceiptNumber != number {
			return nil, shared.NewValidationError("RECEIPT_NUMBER_MISMATCH",
				"All payments on a receipt must share its number")
		}
		total = total.Add(p.Amount)
		if p.PaymentDate.After(date) {
			date = p.PaymentDate
		}
	}

	// Index applications by payment so the breakdown carries the right method
	appsByPayment := make(map[uuid.UUID][]*PaymentApplication, len(payments))
	for _, app := range applications {
		appsByPayment[app.PaymentID] = append(appsByPayment[app.PaymentID], app)
	}

	// Summaries group by invoice identity; the formatted number is carried
	// for display only, a split settlement must not merge two invoices
	breakdown := make([]ReceiptBreakdownEntry, 0, len(applications))
	appliedByInvoice := make(map[uuid.UUID]decimal.Decimal)
	numberByInvoice := make(map[uuid.UUID]string)
	invoiceOrder := make([]uuid.UUID, 0, len(applications))
	for _, p := range payments {
		for _, app := range appsByPayment[p.ID] {
			breakdown = append(breakdown, ReceiptBreakdownEntry{
				Method:        p.Method,
				InvoiceNumber: app.InvoiceNumber,
				Amount:        app.Amount,
			})
			if _, seen := appliedByInvoice[app.InvoiceID]; !seen {
				invoiceOrder = append(invoiceOrder, app.InvoiceID)
				numberByInvoice[app.InvoiceID] = app.InvoiceNumber
			}
			appliedByInvoice[app.InvoiceID] = appliedByInvoice[app.InvoiceID].Add(app.Amount)
		}
	}

	summaries := make([]InvoiceSummary, 0, len(invoiceOrder))
	for _, id := range invoiceOrder {
		summaries = append(summaries, InvoiceSummary{
			InvoiceID:     id,
			InvoiceNumber: numberByInvoice[id],
			AppliedAmount: appliedByInvoice[id],
		})
	}

	observations := make([]string, 0, 2)
	if creditConsumed.IsPositive() {
		observations = append(observations,
			fmt.Sprintf("Saldo a favor aplicado: $%s", creditConsumed.StringFixed(2)))
	}
	if surplusCredited.IsPositive() {
		observations = append(observations,
			fmt.Sprintf("Excedente acreditado como saldo a favor: $%s", surplusCredited.StringFixed(2)))
	}

	return &Receipt{
		Number:           number,
		Date:             date,
		TotalAmount:      total.Add(surplusCredited),
		DisplayMethod:    displayMethod(payments),
		CustomerID:       customerID,
		CustomerName:     customerName,
		InvoiceSummaries: summaries,
		Breakdown:        breakdown,
		Observations:     observations,
	}, nil
}

// displayMethod picks the printed funding label. A single method prints as
// is; a mix of a settlement method with credit balance prints the method
// first, for example "Efectivo + Saldo a favor".
func displayMethod(payments []*Payment) string {
	var settlement *PaymentMethod
	hasCredit := false
	for _, p := range payments {
		if p.IsCreditFunded() {
			hasCredit = true
			continue
		}
		if settlement == nil {
			m := p.Method
			settlement = &m
		}
	}

	switch {
	case settlement != nil && hasCredit:
		return settlement.DisplayName() + " + " + PaymentMethodCreditBalance.DisplayName()
	case settlement != nil:
		return settlement.DisplayName()
	case hasCredit:
		return PaymentMethodCreditBalance.DisplayName()
	default:
		return payments[0].Method.DisplayName()
	}
}
