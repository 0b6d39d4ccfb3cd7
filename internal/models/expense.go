package models

import (
	"time"

	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// DefaultPaymentMethod is stored when an expense names none.
const DefaultPaymentMethod = "cash"

// Expense is stored at users/{user_id}/expenses/{id}.
type Expense struct {
	Owner
	Title         string  `json:"title,omitempty"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Date          string  `json:"date"`
	Notes         string  `json:"notes,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	IsRecurring   bool    `json:"is_recurring"`
	ReceiptURL    string  `json:"receipt_url,omitempty"`
}

func (e *Expense) ApplyDefaults(now time.Time) {
	if e.PaymentMethod == "" {
		e.PaymentMethod = DefaultPaymentMethod
	}
	if e.Date == "" {
		e.Date = Timestamp(now)
	}
}

func (e *Expense) Validate() error {
	return utils.FirstError(
		utils.Required("category", e.Category),
		utils.NonNegative("amount", e.Amount),
		validDate("date", e.Date),
	)
}

// ExpensePatch is the body of PATCH /update/expense.
type ExpensePatch struct {
	Title         patch.Optional[string]  `json:"title"`
	Amount        patch.Optional[float64] `json:"amount"`
	Category      patch.Optional[string]  `json:"category"`
	Date          patch.Optional[string]  `json:"date"`
	Notes         patch.Optional[string]  `json:"notes"`
	PaymentMethod patch.Optional[string]  `json:"payment_method"`
	IsRecurring   patch.Optional[bool]    `json:"is_recurring"`
	ReceiptURL    patch.Optional[string]  `json:"receipt_url"`
}

func (p ExpensePatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalAmount("amount", p.Amount),
		optionalDate("date", p.Date),
		optionalRequired("category", p.Category),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "amount", p.Amount)
	patch.Field(b, "category", p.Category)
	patch.Field(b, "date", p.Date)
	patch.Field(b, "notes", p.Notes)
	patch.Field(b, "payment_method", p.PaymentMethod)
	patch.Field(b, "is_recurring", p.IsRecurring)
	patch.Field(b, "receipt_url", p.ReceiptURL)
	return b.Build()
}
