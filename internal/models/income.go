package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type Income struct {
	Owner
	Source       string  `json:"source,omitempty"`
	Title        string  `json:"title"`
	Amount       float64 `json:"amount"`
	Frequency    string  `json:"frequency,omitempty"`
	DateReceived string  `json:"date_received,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

func (i *Income) UniqueKey() string { return i.Title }

func (i *Income) Validate() error {
	err := utils.FirstError(
		utils.Required("title", i.Title),
		utils.NonNegative("amount", i.Amount),
	)
	if err == nil && i.DateReceived != "" {
		err = validDate("date_received", i.DateReceived)
	}
	return err
}

type IncomePatch struct {
	Source       patch.Optional[string]  `json:"source"`
	Title        patch.Optional[string]  `json:"title"`
	Amount       patch.Optional[float64] `json:"amount"`
	Frequency    patch.Optional[string]  `json:"frequency"`
	DateReceived patch.Optional[string]  `json:"date_received"`
	Notes        patch.Optional[string]  `json:"notes"`
}

func (p IncomePatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalAmount("amount", p.Amount),
		optionalDate("date_received", p.DateReceived),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "source", p.Source)
	patch.Field(b, "title", p.Title)
	patch.Field(b, "amount", p.Amount)
	patch.Field(b, "frequency", p.Frequency)
	patch.Field(b, "date_received", p.DateReceived)
	patch.Field(b, "notes", p.Notes)
	return b.Build()
}
