package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type Investment struct {
	Owner
	Title          string  `json:"title"`
	Type           string  `json:"type,omitempty"`
	AmountInvested float64 `json:"amount_invested"`
	CurrentValue   float64 `json:"current_value"`
	DateInvested   string  `json:"date_invested,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

func (i *Investment) UniqueKey() string { return i.Title }

func (i *Investment) Validate() error {
	err := utils.FirstError(
		utils.Required("title", i.Title),
		utils.NonNegative("amount_invested", i.AmountInvested),
		utils.NonNegative("current_value", i.CurrentValue),
	)
	if err == nil && i.DateInvested != "" {
		err = validDate("date_invested", i.DateInvested)
	}
	return err
}

type InvestmentPatch struct {
	Title          patch.Optional[string]  `json:"title"`
	Type           patch.Optional[string]  `json:"type"`
	AmountInvested patch.Optional[float64] `json:"amount_invested"`
	CurrentValue   patch.Optional[float64] `json:"current_value"`
	DateInvested   patch.Optional[string]  `json:"date_invested"`
	Notes          patch.Optional[string]  `json:"notes"`
}

func (p InvestmentPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalAmount("amount_invested", p.AmountInvested),
		optionalAmount("current_value", p.CurrentValue),
		optionalDate("date_invested", p.DateInvested),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "type", p.Type)
	patch.Field(b, "amount_invested", p.AmountInvested)
	patch.Field(b, "current_value", p.CurrentValue)
	patch.Field(b, "date_invested", p.DateInvested)
	patch.Field(b, "notes", p.Notes)
	return b.Build()
}
