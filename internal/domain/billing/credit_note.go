package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/facturador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditNote is the immutable reversal record issued when an invoice is
// voided. Its amount always equals the voided invoice's total. Created once
// through Invoice.Void, never mutated afterwards.
type CreditNote struct {
	ID        uuid.UUID       `json:"id"`
	Series    int             `json:"series"`
	Number    int             `json:"number"`
	IssueDate time.Time       `json:"issue_date"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Type      InvoiceType     `json:"type"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
}

func newCreditNote(inv *Invoice, number int, reason string) CreditNote {
	return CreditNote{
		ID:        uuid.New(),
		Series:    inv.Series,
		Number:    number,
		IssueDate: time.Now(),
		Amount:    inv.Total,
		Reason:    reason,
		Type:      inv.Type,
		InvoiceID: inv.ID,
	}
}

// FormattedNumber renders the fiscal number, for example "0001-00000007"
func (cn *CreditNote) FormattedNumber() string {
	return fmt.Sprintf("%04d-%08d", cn.Series, cn.Number)
}

// GetAmountMoney returns the credited amount as Money
func (cn *CreditNote) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyARS(cn.Amount)
}

// CreditNotes is a slice of CreditNote that implements GORM Scanner/Valuer
// for JSONB storage inside the invoice row.
type CreditNotes []CreditNote

// Value implements driver.Valuer interface for GORM to store as JSONB
func (cs CreditNotes) Value() (driver.Value, error) {
	if cs == nil {
		return "[]", nil
	}
	return json.Marshal(cs)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (cs *CreditNotes) Scan(value interface{}) error {
	if value == nil {
		*cs = CreditNotes{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CreditNotes: unsupported type")
	}

	if len(bytes) == 0 {
		*cs = CreditNotes{}
		return nil
	}

	return json.Unmarshal(bytes, cs)
}
