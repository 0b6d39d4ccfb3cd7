package models

import (
	"time"

	"github.com/AnshRaj112/brift-backend/internal/patch"
	"github.com/AnshRaj112/brift-backend/pkg/utils"
)

// Goal statuses. Any other string is accepted and stored as-is.
const (
	GoalPending   = "pending"
	GoalCompleted = "completed"
)

type Goal struct {
	Owner
	Title        string  `json:"title"`
	TargetAmount float64 `json:"target_amount"`
	SavedAmount  float64 `json:"saved_amount"`
	DueDate      string  `json:"due_date,omitempty"`
	Status       string  `json:"status"`
}

func (g *Goal) UniqueKey() string { return g.Title }

func (g *Goal) ApplyDefaults(time.Time) {
	if g.Status == "" {
		g.Status = GoalPending
	}
}

func (g *Goal) Validate() error {
	err := utils.FirstError(
		utils.Required("title", g.Title),
		utils.NonNegative("target_amount", g.TargetAmount),
		utils.NonNegative("saved_amount", g.SavedAmount),
	)
	if err == nil && g.DueDate != "" {
		err = validDate("due_date", g.DueDate)
	}
	return err
}

type GoalPatch struct {
	Title        patch.Optional[string]  `json:"title"`
	TargetAmount patch.Optional[float64] `json:"target_amount"`
	SavedAmount  patch.Optional[float64] `json:"saved_amount"`
	DueDate      patch.Optional[string]  `json:"due_date"`
	Status       patch.Optional[string]  `json:"status"`
}

func (p GoalPatch) Document() (patch.Document, error) {
	if err := utils.FirstError(
		optionalRequired("title", p.Title),
		optionalAmount("target_amount", p.TargetAmount),
		optionalAmount("saved_amount", p.SavedAmount),
		optionalDate("due_date", p.DueDate),
	); err != nil {
		return nil, err
	}
	b := patch.NewBuilder()
	patch.Field(b, "title", p.Title)
	patch.Field(b, "target_amount", p.TargetAmount)
	patch.Field(b, "saved_amount", p.SavedAmount)
	patch.Field(b, "due_date", p.DueDate)
	patch.Field(b, "status", p.Status)
	return b.Build()
}
