package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// Budget caps spending for one category; at most one per category.
type Budget struct {
	Owner
	Category    string  `json:"category"`
	AmountLimit float64 `json:"amount_limit"`
	Interval    string  `json:"interval,omitempty"`
	Note        string  `json:"note,omitempty"`
}

func (b *Budget) UniqueKey() string { return b.Category }

func (b *Budget) Validate() error {
	return utils.FirstError(
		utils.Required("category", b.Category),
		utils.NonNegative("amount_limit", b.AmountLimit),
	)
}

type BudgetPatch struct {
	Category    patch.Optional[string]  `json:"category"`
	AmountLimit patch.Optional[float64] `json:"amount_limit"`
	Interval    patch.Optional[string]  `json:"interval"`
	Note        patch.Optional[string]  `json:"note"`
}

func (p BudgetPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("category", p.Category),
		optionalAmount("amount_limit", p.AmountLimit),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "category", p.Category)
	patch.Field(b, "amount_limit", p.AmountLimit)
	patch.Field(b, "interval", p.Interval)
	patch.Field(b, "note", p.Note)
	return b.Build()
}
