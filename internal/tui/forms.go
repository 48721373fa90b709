package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

type formKind int

const (
	formNone formKind = iota
	formIncome
	formExpense
	formGoal
	formDeposit
)

func formKindForTab(tab int) formKind {
	switch tab {
	case components.TabIncome:
		return formIncome
	case components.TabExpenses:
		return formExpense
	case components.TabGoals:
		return formGoal
	}
	return formNone
}

// entryValues backs every entry form. Only the fields of the open form are used.
type entryValues struct {
	amount string
	date   string

	source    string
	frequency model.Frequency

	description string
	category    string

	name     string
	target   string
	current  string
	deadline string

	goalID   int64
	goalName string
	withdraw bool
}

func orToday(s string, today time.Time) time.Time {
	d, err := model.ParseDate(s)
	if err != nil || d.IsZero() {
		return today
	}
	return d
}

func buildIncome(v *entryValues, today time.Time) (model.Income, error) {
	amt, err := budget.ParseAmount(v.amount)
	if err != nil {
		return model.Income{}, err
	}
	return model.Income{
		Source:    strings.TrimSpace(v.source),
		Amount:    amt,
		Frequency: v.frequency,
		Date:      orToday(v.date, today),
	}, nil
}

func buildExpense(v *entryValues, today time.Time) (model.Expense, error) {
	amt, err := budget.ParseAmount(v.amount)
	if err != nil {
		return model.Expense{}, err
	}
	return model.Expense{
		Description: strings.TrimSpace(v.description),
		Amount:      amt,
		Category:    v.category,
		Date:        orToday(v.date, today),
	}, nil
}

func buildGoal(v *entryValues) (model.SavingsGoal, error) {
	target, err := budget.ParseAmount(v.target)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	current := decimal.Zero
	if strings.TrimSpace(v.current) != "" {
		if current, err = budget.ParseAmount(v.current); err != nil {
			return model.SavingsGoal{}, err
		}
	}
	if err := cli.RequiredDate("deadline")(v.deadline); err != nil {
		return model.SavingsGoal{}, err
	}
	deadline, err := model.ParseDate(v.deadline)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	return model.SavingsGoal{
		Name:          strings.TrimSpace(v.name),
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
	}, nil
}

// depositDelta is the signed change a deposit form asks for.
func depositDelta(v *entryValues) (decimal.Decimal, error) {
	amt, err := budget.ParseAmount(v.amount)
	if err != nil {
		return decimal.Zero, err
	}
	if v.withdraw {
		return amt.Neg(), nil
	}
	return amt, nil
}

func newEntryForm(kind formKind, v *entryValues) *huh.Form {
	var groups []*huh.Group

	switch kind {
	case formIncome:
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source").
				Options(huh.NewOptions(model.IncomeSources...)...).
				Value(&v.source),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Validate(cli.ValidAmount).
				Value(&v.amount),
			huh.NewSelect[model.Frequency]().
				Title("Frequency").
				Options(huh.NewOptions(model.Frequencies...)...).
				Value(&v.frequency),
			huh.NewInput().
				Title("Date").
				Placeholder(model.DateLayout+" (blank for today)").
				Validate(cli.ValidDate).
				Value(&v.date),
		).Title("Add income"))

	case formExpense:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Validate(cli.Required("description")).
				Value(&v.description),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Validate(cli.ValidAmount).
				Value(&v.amount),
			huh.NewSelect[string]().
				Title("Category").
				Options(huh.NewOptions(model.Categories...)...).
				Value(&v.category),
			huh.NewInput().
				Title("Date").
				Placeholder(model.DateLayout+" (blank for today)").
				Validate(cli.ValidDate).
				Value(&v.date),
		).Title("Add expense"))

	case formGoal:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Goal name").
				Validate(cli.Required("name")).
				Value(&v.name),
			huh.NewInput().
				Title("Target amount").
				Placeholder("0.00").
				Validate(cli.ValidPositiveAmount).
				Value(&v.target),
			huh.NewInput().
				Title("Already saved").
				Placeholder("0.00").
				Validate(cli.OptionalAmount).
				Value(&v.current),
			huh.NewInput().
				Title("Deadline").
				Placeholder(model.DateLayout).
				Validate(cli.RequiredDate("deadline")).
				Value(&v.deadline),
		).Title("Add savings goal"))

	case formDeposit:
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Validate(cli.ValidPositiveAmount).
				Value(&v.amount),
			huh.NewConfirm().
				Title("Direction").
				Affirmative("Withdraw").
				Negative("Deposit").
				Value(&v.withdraw),
		).Title("Update " + v.goalName))
	}

	return huh.NewForm(groups...).WithShowHelp(true)
}

func (a App) openForm(kind formKind) (tea.Model, tea.Cmd) {
	if kind == formNone {
		return a, nil
	}
	v := &entryValues{
		source:    model.IncomeSources[0],
		frequency: model.FrequencyOneTime,
		category:  model.Categories[0],
	}
	if kind == formDeposit {
		g := a.state.SavingsGoals[a.cursors[2]]
		v.goalID = g.ID
		v.goalName = g.Name
	}
	a.formVals = v
	a.formKind = kind
	a.form = newEntryForm(kind, v)
	if a.width > 0 {
		a.form = a.form.WithWidth(min(a.width, 70))
	}
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formVals = nil
	a.formKind = formNone
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		submit := a.submitForm()
		a.closeForm()
		return a, submit
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

// submitForm turns the completed form into a manager operation.
func (a *App) submitForm() tea.Cmd {
	mgr := a.budget
	v := a.formVals
	today := model.Today()

	switch a.formKind {
	case formIncome:
		in, err := buildIncome(v, today)
		if err != nil {
			a.setFlash(err.Error(), true)
			return nil
		}
		return runOp("Income added", func(ctx context.Context) budget.Result { return mgr.AddIncome(ctx, in) })

	case formExpense:
		e, err := buildExpense(v, today)
		if err != nil {
			a.setFlash(err.Error(), true)
			return nil
		}
		return runOp("Expense added", func(ctx context.Context) budget.Result { return mgr.AddExpense(ctx, e) })

	case formGoal:
		g, err := buildGoal(v)
		if err != nil {
			a.setFlash(err.Error(), true)
			return nil
		}
		return runOp("Savings goal added", func(ctx context.Context) budget.Result { return mgr.AddSavingsGoal(ctx, g) })

	case formDeposit:
		delta, err := depositDelta(v)
		if err != nil {
			a.setFlash(err.Error(), true)
			return nil
		}
		id := v.goalID
		msg := fmt.Sprintf("Added %s to %s", cli.FormatMoney(delta), v.goalName)
		if delta.IsNegative() {
			msg = fmt.Sprintf("Withdrew %s from %s", cli.FormatMoney(delta.Neg()), v.goalName)
		}
		return runOp(msg, func(ctx context.Context) budget.Result { return mgr.AddAmountToSavingsGoal(ctx, id, delta) })
	}
	return nil
}
