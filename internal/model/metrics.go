package model

import "github.com/shopspring/decimal"

// CategoryTotal is the summed spend for one expense category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Share    float64 // 0.0-1.0 of total expenses
}

// Summary holds the top-level aggregate across the loaded collections.
type Summary struct {
	TotalIncome     decimal.Decimal
	TotalExpenses   decimal.Decimal
	RemainingBudget decimal.Decimal
	OverBudget      bool

	IncomeCount  int
	ExpenseCount int
	GoalCount    int

	TotalSaved  decimal.Decimal
	TotalTarget decimal.Decimal

	Categories []CategoryTotal
}
