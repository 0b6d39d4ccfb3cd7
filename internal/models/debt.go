package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type Debt struct {
	Owner
	Title           string  `json:"title"`
	Type            string  `json:"type,omitempty"`
	TotalAmount     float64 `json:"total_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	InterestRate    float64 `json:"interest_rate"`
	DueDate         string  `json:"due_date,omitempty"`
}

func (d *Debt) UniqueKey() string { return d.Title }

func (d *Debt) Validate() error {
	err := utils.FirstError(
		utils.Required("title", d.Title),
		utils.NonNegative("total_amount", d.TotalAmount),
		utils.NonNegative("remaining_amount", d.RemainingAmount),
		utils.NonNegative("interest_rate", d.InterestRate),
	)
	if err == nil && d.DueDate != "" {
		err = validDate("due_date", d.DueDate)
	}
	return err
}

type DebtPatch struct {
	Title           patch.Optional[string]  `json:"title"`
	Type            patch.Optional[string]  `json:"type"`
	TotalAmount     patch.Optional[float64] `json:"total_amount"`
	RemainingAmount patch.Optional[float64] `json:"remaining_amount"`
	InterestRate    patch.Optional[float64] `json:"interest_rate"`
	DueDate         patch.Optional[string]  `json:"due_date"`
}

func (p DebtPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalAmount("total_amount", p.TotalAmount),
		optionalAmount("remaining_amount", p.RemainingAmount),
		optionalAmount("interest_rate", p.InterestRate),
		optionalDate("due_date", p.DueDate),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "type", p.Type)
	patch.Field(b, "total_amount", p.TotalAmount)
	patch.Field(b, "remaining_amount", p.RemainingAmount)
	patch.Field(b, "interest_rate", p.InterestRate)
	patch.Field(b, "due_date", p.DueDate)
	return b.Build()
}
