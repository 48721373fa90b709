package budget

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
)

// ParseAmount parses user input into a non-negative amount. A leading
// currency sign and thousands separators are tolerated.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return d, nil
}

func toWire(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// fromWire treats a missing amount as zero.
func fromWire(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", n, err)
	}
	return d, nil
}

func owner(userID int64) *gateway.UserRef {
	return &gateway.UserRef{ID: userID}
}

func incomeRecord(in model.Income, userID int64) gateway.IncomeRecord {
	return gateway.IncomeRecord{
		Source:    in.Source,
		Amount:    toWire(in.Amount),
		Frequency: string(in.Frequency),
		Date:      model.FormatDate(in.Date),
		User:      owner(userID),
	}
}

func incomeFromRecord(r gateway.IncomeRecord) (model.Income, error) {
	amt, err := fromWire(r.Amount)
	if err != nil {
		return model.Income{}, fmt.Errorf("income %d: %w", r.ID, err)
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return model.Income{}, fmt.Errorf("income %d: %w", r.ID, err)
	}
	return model.Income{
		ID:        r.ID,
		Source:    r.Source,
		Amount:    amt,
		Frequency: model.Frequency(r.Frequency),
		Date:      date,
	}, nil
}

func expenseRecord(e model.Expense, userID int64) gateway.ExpenseRecord {
	return gateway.ExpenseRecord{
		Description: e.Description,
		Amount:      toWire(e.Amount),
		Category:    e.Category,
		Date:        model.FormatDate(e.Date),
		User:        owner(userID),
	}
}

func expenseFromRecord(r gateway.ExpenseRecord) (model.Expense, error) {
	amt, err := fromWire(r.Amount)
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %d: %w", r.ID, err)
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("expense %d: %w", r.ID, err)
	}
	return model.Expense{
		ID:          r.ID,
		Description: r.Description,
		Amount:      amt,
		Category:    r.Category,
		Date:        date,
	}, nil
}

func goalRecord(g model.SavingsGoal, userID int64) gateway.GoalRecord {
	return gateway.GoalRecord{
		GoalName:      g.Name,
		TargetAmount:  toWire(g.TargetAmount),
		CurrentAmount: toWire(g.CurrentAmount),
		DeadlineDate:  model.FormatDate(g.Deadline),
		User:          owner(userID),
	}
}

func goalFromRecord(r gateway.GoalRecord) (model.SavingsGoal, error) {
	target, err := fromWire(r.TargetAmount)
	if err != nil {
		return model.SavingsGoal{}, fmt.Errorf("goal %d target: %w", r.ID, err)
	}
	current, err := fromWire(r.CurrentAmount)
	if err != nil {
		return model.SavingsGoal{}, fmt.Errorf("goal %d current: %w", r.ID, err)
	}
	deadline, err := model.ParseDate(r.DeadlineDate)
	if err != nil {
		return model.SavingsGoal{}, fmt.Errorf("goal %d: %w", r.ID, err)
	}
	return model.SavingsGoal{
		ID:            r.ID,
		Name:          r.GoalName,
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
	}, nil
}

func convertAll[R, M any](recs []R, conv func(R) (M, error)) ([]M, error) {
	out := make([]M, 0, len(recs))
	for _, r := range recs {
		m, err := conv(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
