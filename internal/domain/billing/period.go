package billing

import (
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var spanishMonths = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// SpanishMonth returns the Spanish name for a month
func SpanishMonth(m time.Month) string {
	return spanishMonths[int(m)-1]
}

// BillingPeriod is a value object describing the span of days an invoice
// line covers within a calendar month. It drives proration arithmetic.
type BillingPeriod struct {
	start time.Time
	end   time.Time
}

// NewBillingPeriod creates a billing period; end must not precede start
func NewBillingPeriod(start, end time.Time) (BillingPeriod, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return BillingPeriod{}, shared.NewValidationError("INVALID_PERIOD", "Period end cannot precede period start")
	}
	return BillingPeriod{start: start, end: end}, nil
}

// FullMonth returns the billing period spanning the whole month of ref
func FullMonth(ref time.Time) BillingPeriod {
	year, month, _ := ref.Date()
	start := time.Date(year, month, 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, -1)
	return BillingPeriod{start: start, end: end}
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// Start returns the first covered day
func (p BillingPeriod) Start() time.Time {
	return p.start
}

// End returns the last covered day
func (p BillingPeriod) End() time.Time {
	return p.end
}

// EffectiveDays returns the number of covered days, inclusive of both ends
func (p BillingPeriod) EffectiveDays() int {
	// Normalize to UTC so DST transitions cannot skew the day count.
	start := time.Date(p.start.Year(), p.start.Month(), p.start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(p.end.Year(), p.end.Month(), p.end.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// DaysInMonth returns the length of the month the period ends in
func (p BillingPeriod) DaysInMonth() int {
	year, month, _ := p.end.Date()
	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, p.end.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// IsPartial reports whether the period covers less than its full month
func (p BillingPeriod) IsPartial() bool {
	return p.EffectiveDays() < p.DaysInMonth()
}

// Proportion returns effectiveDays/daysInMonth rounded to 4 decimal places,
// half-up. This is the proration factor applied to monthly prices.
func (p BillingPeriod) Proportion() decimal.Decimal {
	return decimal.NewFromInt(int64(p.EffectiveDays())).
		Div(decimal.NewFromInt(int64(p.DaysInMonth()))).
		Round(4)
}

// Description renders a human-readable label for an invoice line, for
// example "Internet 50MB (15 al 30 de Junio 2025)".
func (p BillingPeriod) Description(base string) string {
	return fmt.Sprintf("%s (%d al %d de %s %d)",
		base, p.start.Day(), p.end.Day(), SpanishMonth(p.end.Month()), p.end.Year())
}

// String returns a compact representation of the period
func (p BillingPeriod) String() string {
	return fmt.Sprintf("%s - %s", p.start.Format("2006-01-02"), p.end.Format("2006-01-02"))
}
