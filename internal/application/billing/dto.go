package billing

import (
	"time"

	"github.com/facturador/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IssuerConfig carries the issuer-side billing settings the services need:
// the fiscal series invoices are numbered under, the default payment term
// and the issuer's fiscal condition, which determines the invoice letter.
type IssuerConfig struct {
	Series      int
	DueDays     int
	TaxCategory billing.TaxCategory
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	Description     string          `json:"description"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int64           `json:"quantity"`
	TaxRateCategory string          `json:"tax_rate_category"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
}

// CreditNoteResponse represents a credit note in API responses
type CreditNoteResponse struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	IssueDate time.Time       `json:"issue_date"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Type      string          `json:"type"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                 uuid.UUID             `json:"id"`
	Number             string                `json:"number"`
	CustomerID         uuid.UUID             `json:"customer_id"`
	CustomerName       string                `json:"customer_name"`
	IssueDate          time.Time             `json:"issue_date"`
	DueDate            time.Time             `json:"due_date"`
	Period             string                `json:"period"`
	Type               string                `json:"type"`
	Status             string                `json:"status"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	DiscountPercent    decimal.Decimal       `json:"discount_percent"`
	DiscountReason     string                `json:"discount_reason,omitempty"`
	DiscountAmount     decimal.Decimal       `json:"discount_amount"`
	TaxTotal           decimal.Decimal       `json:"tax_total"`
	Total              decimal.Decimal       `json:"total"`
	OutstandingBalance decimal.Decimal       `json:"outstanding_balance"`
	Lines              []InvoiceLineResponse `json:"lines"`
	CreditNotes        []CreditNoteResponse  `json:"credit_notes,omitempty"`
	BatchID            *uuid.UUID            `json:"batch_id,omitempty"`
	PaidAt             *time.Time            `json:"paid_at,omitempty"`
	VoidedAt           *time.Time            `json:"voided_at,omitempty"`
	VoidReason         string                `json:"void_reason,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	Version            int                   `json:"version"`
}

// BatchResponse represents a mass-billing batch in API responses
type BatchResponse struct {
	ID           uuid.UUID       `json:"id"`
	PeriodLabel  string          `json:"period_label"`
	Period       string          `json:"period"`
	ExecutedAt   time.Time       `json:"executed_at"`
	DueDate      time.Time       `json:"due_date"`
	InvoiceCount int             `json:"invoice_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Voided       bool            `json:"voided"`
	VoidedAt     *time.Time      `json:"voided_at,omitempty"`
	VoidReason   string          `json:"void_reason,omitempty"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	Number           string                 `json:"number"`
	Date             time.Time              `json:"date"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	DisplayMethod    string                 `json:"display_method"`
	CustomerID       uuid.UUID              `json:"customer_id"`
	CustomerName     string                 `json:"customer_name"`
	InvoiceSummaries []InvoiceSummaryView   `json:"invoice_summaries"`
	Breakdown        []ReceiptBreakdownView `json:"breakdown"`
	Observations     []string               `json:"observations,omitempty"`
}

// InvoiceSummaryView is one settled invoice line on a receipt response
type InvoiceSummaryView struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AppliedAmount decimal.Decimal `json:"applied_amount"`
}

// ReceiptBreakdownView is one applied portion on a receipt response
type ReceiptBreakdownView struct {
	Method        string          `json:"method"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
}

func toInvoiceResponse(inv *billing.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for i := range inv.Lines {
		l := &inv.Lines[i]
		lines = append(lines, InvoiceLineResponse{
			ID:              l.ID,
			Description:     l.Description,
			UnitPrice:       l.UnitPrice,
			Quantity:        l.Quantity,
			TaxRateCategory: l.TaxRateCategory.String(),
			Subtotal:        l.Subtotal,
			TaxAmount:       l.TaxAmount,
			Total:           l.Total,
		})
	}

	var notes []CreditNoteResponse
	for i := range inv.CreditNotes {
		n := &inv.CreditNotes[i]
		notes = append(notes, CreditNoteResponse{
			ID:        n.ID,
			Number:    n.FormattedNumber(),
			IssueDate: n.IssueDate,
			Amount:    n.Amount,
			Reason:    n.Reason,
			Type:      n.Type.String(),
		})
	}

	return &InvoiceResponse{
		ID:                 inv.ID,
		Number:             inv.FormattedNumber(),
		CustomerID:         inv.CustomerID,
		CustomerName:       inv.CustomerName,
		IssueDate:          inv.IssueDate,
		DueDate:            inv.DueDate,
		Period:             inv.Period.Format("2006-01"),
		Type:               inv.Type.String(),
		Status:             inv.Status.String(),
		Subtotal:           inv.Subtotal,
		DiscountPercent:    inv.DiscountPercent,
		DiscountReason:     inv.DiscountReason,
		DiscountAmount:     inv.DiscountAmount,
		TaxTotal:           inv.TaxTotal,
		Total:              inv.Total,
		OutstandingBalance: inv.OutstandingBalance,
		Lines:              lines,
		CreditNotes:        notes,
		BatchID:            inv.BatchID,
		PaidAt:             inv.PaidAt,
		VoidedAt:           inv.VoidedAt,
		VoidReason:         inv.VoidReason,
		CreatedAt:          inv.CreatedAt,
		Version:            inv.Version,
	}
}

func toBatchResponse(b *billing.InvoiceBatch) *BatchResponse {
	return &BatchResponse{
		ID:           b.ID,
		PeriodLabel:  b.PeriodLabel,
		Period:       b.Period.Format("2006-01"),
		ExecutedAt:   b.ExecutedAt,
		DueDate:      b.DueDate,
		InvoiceCount: b.InvoiceCount,
		TotalAmount:  b.TotalAmount,
		Voided:       b.Voided,
		VoidedAt:     b.VoidedAt,
		VoidReason:   b.VoidReason,
	}
}

func toReceiptResponse(r *billing.Receipt) *ReceiptResponse {
	summaries := make([]InvoiceSummaryView, 0, len(r.InvoiceSummaries))
	for _, s := range r.InvoiceSummaries {
		summaries = append(summaries, InvoiceSummaryView{
			InvoiceID:     s.InvoiceID,
			InvoiceNumber: s.InvoiceNumber,
			AppliedAmount: s.AppliedAmount,
		})
	}

	breakdown := make([]ReceiptBreakdownView, 0, len(r.Breakdown))
	for _, b := range r.Breakdown {
		breakdown = append(breakdown, ReceiptBreakdownView{
			Method:        b.Method.String(),
			InvoiceNumber: b.InvoiceNumber,
			Amount:        b.Amount,
		})
	}

	return &ReceiptResponse{
		Number:           r.FormattedNumber(),
		Date:             r.Date,
		TotalAmount:      r.TotalAmount,
		DisplayMethod:    r.DisplayMethod,
		CustomerID:       r.CustomerID,
		CustomerName:     r.CustomerName,
		InvoiceSummaries: summaries,
		Breakdown:        breakdown,
		Observations:     r.Observations,
	}
}
