package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type Bill struct {
	Owner
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	DueDate   string  `json:"due_date,omitempty"`
	IsPaid    bool    `json:"is_paid"`
	Recurring bool    `json:"recurring"`
}

func (b *Bill) UniqueKey() string { return b.Title }

func (b *Bill) Validate() error {
	err := utils.FirstError(
		utils.Required("title", b.Title),
		utils.NonNegative("amount", b.Amount),
	)
	if err == nil && b.DueDate != "" {
		err = validDate("due_date", b.DueDate)
	}
	return err
}

type BillPatch struct {
	Title     patch.Optional[string]  `json:"title"`
	Amount    patch.Optional[float64] `json:"amount"`
	DueDate   patch.Optional[string]  `json:"due_date"`
	IsPaid    patch.Optional[bool]    `json:"is_paid"`
	Recurring patch.Optional[bool]    `json:"recurring"`
}

func (p BillPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalAmount("amount", p.Amount),
		optionalDate("due_date", p.DueDate),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "amount", p.Amount)
	patch.Field(b, "due_date", p.DueDate)
	patch.Field(b, "is_paid", p.IsPaid)
	patch.Field(b, "recurring", p.Recurring)
	return b.Build()
}
