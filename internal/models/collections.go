package models

import "strings"

// Collection describes one per-user child collection.
type Collection struct {
	Name     string // path segment, e.g. "expenses"
	Singular string // e.g. "expense"
	KeyField string // uniqueness key; empty when duplicates are allowed
}

// IDField is the request field naming an item of this collection, e.g. "expense_id".
func (c Collection) IDField() string {
	return c.Singular + "_id"
}

var (
	Expenses      = Collection{Name: "expenses", Singular: "expense"}
	Budgets       = Collection{Name: "budgets", Singular: "budget", KeyField: "category"}
	Incomes       = Collection{Name: "incomes", Singular: "income", KeyField: "title"}
	Goals         = Collection{Name: "goals", Singular: "goal", KeyField: "title"}
	Bills         = Collection{Name: "bills", Singular: "bill", KeyField: "title"}
	Reminders     = Collection{Name: "reminders", Singular: "reminder", KeyField: "title"}
	Notifications = Collection{Name: "notifications", Singular: "notification", KeyField: "message"}
	Debts         = Collection{Name: "debts", Singular: "debt", KeyField: "title"}
	Investments   = Collection{Name: "investments", Singular: "investment", KeyField: "title"}
)

// Collections lists every entity collection.
func Collections() []Collection {
	return []Collection{Expenses, Budgets, Incomes, Goals, Bills, Reminders, Notifications, Debts, Investments}
}

// LookupCollection accepts either the singular or the plural name.
func LookupCollection(name string) (Collection, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Collections() {
		if name == c.Name || name == c.Singular {
			return c, true
		}
	}
	return Collection{}, false
}
