package models

import (
	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

type Reminder struct {
	Owner
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RemindAt    string `json:"remind_at,omitempty"`
	LinkedTo    string `json:"linked_to,omitempty"`
}

func (r *Reminder) UniqueKey() string { return r.Title }

func (r *Reminder) Validate() error {
	if err := utils.Required("title", r.Title); err != nil {
		return err
	}
	if r.RemindAt != "" {
		return validDate("remind_at", r.RemindAt)
	}
	return nil
}

type ReminderPatch struct {
	Title       patch.Optional[string] `json:"title"`
	Description patch.Optional[string] `json:"description"`
	RemindAt    patch.Optional[string] `json:"remind_at"`
	LinkedTo    patch.Optional[string] `json:"linked_to"`
}

func (p ReminderPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalDate("remind_at", p.RemindAt),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "description", p.Description)
	patch.Field(b, "remind_at", p.RemindAt)
	patch.Field(b, "linked_to", p.LinkedTo)
	return b.Build()
}
