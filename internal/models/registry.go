package models

// Schema binds a collection to the record and patch types decoded from request bodies.
type Schema struct {
	Collection
	NewRecord func() Record
	NewPatch  func() Patch
}

var schemas = map[string]Schema{
	Expenses.Name:      {Expenses, func() Record { return &Expense{} }, func() Patch { return &ExpensePatch{} }},
	Budgets.Name:       {Budgets, func() Record { return &Budget{} }, func() Patch { return &BudgetPatch{} }},
	Incomes.Name:       {Incomes, func() Record { return &Income{} }, func() Patch { return &IncomePatch{} }},
	Goals.Name:         {Goals, func() Record { return &Goal{} }, func() Patch { return &GoalPatch{} }},
	Bills.Name:         {Bills, func() Record { return &Bill{} }, func() Patch { return &BillPatch{} }},
	Reminders.Name:     {Reminders, func() Record { return &Reminder{} }, func() Patch { return &ReminderPatch{} }},
	Notifications.Name: {Notifications, func() Record { return &Notification{} }, func() Patch { return &NotificationPatch{} }},
	Debts.Name:         {Debts, func() Record { return &Debt{} }, func() Patch { return &DebtPatch{} }},
	Investments.Name:   {Investments, func() Record { return &Investment{} }, func() Patch { return &InvestmentPatch{} }},
}

// LookupSchema resolves a singular or plural entity name.
func LookupSchema(name string) (Schema, bool) {
	c, ok := LookupCollection(name)
	if !ok {
		return Schema{}, false
	}
	s, ok := schemas[c.Name]
	return s, ok
}
