package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagExpenseDescription string
	flagExpenseAmount      string
	flagExpenseCategory    string
	flagExpenseDate        string
	flagExpenseByCategory  bool
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"exp", "expenses"},
	Short:   "List and manage expenses",
	RunE:    runExpenseList,
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses",
	RunE:  runExpenseList,
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	RunE:  runExpenseAdd,
}

var expenseDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an expense",
	Args:    cobra.ExactArgs(1),
	RunE:    runExpenseDelete,
}

func init() {
	expenseAddCmd.Flags().StringVar(&flagExpenseDescription, "description", "", "What the money went on")
	expenseAddCmd.Flags().StringVar(&flagExpenseAmount, "amount", "", "Amount, e.g. 42.10")
	expenseAddCmd.Flags().StringVar(&flagExpenseCategory, "category", "", "Expense category (default Other)")
	expenseAddCmd.Flags().StringVar(&flagExpenseDate, "date", "", "Date as YYYY-MM-DD (default today)")

	for _, c := range []*cobra.Command{expenseCmd, expenseListCmd} {
		c.Flags().BoolVar(&flagExpenseByCategory, "by-category", false, "Show totals per category instead of entries")
	}

	expenseCmd.AddCommand(expenseListCmd, expenseAddCmd, expenseDeleteCmd)
	rootCmd.AddCommand(expenseCmd)
}

func runExpenseList(cmd *cobra.Command, _ []string) error {
	return withBudget(cmd, func(_ context.Context, c *client) error {
		s := c.budget.Snapshot()
		if len(s.Expenses) == 0 {
			fmt.Println("\n  No expenses recorded yet. Add one with `budget expense add`.")
			return nil
		}

		fmt.Println()
		if flagExpenseByCategory {
			fmt.Println(cli.RenderTitle("SPENDING BY CATEGORY"))
			fmt.Println()
			fmt.Print(cli.RenderCategoryChart(budget.CategoryBreakdown(s), 30))
			return nil
		}

		rows := make([][]string, 0, len(s.Expenses)+2)
		for _, e := range s.Expenses {
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.ID),
				cli.Truncate(e.Description, 32),
				e.Category,
				cli.FormatDate(e.Date),
				cli.FormatMoney(e.Amount),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"", "Total", "", "", cli.FormatMoney(c.budget.TotalExpenses())})

		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Expenses",
			Headers:  []string{"ID", "Description", "Category", "Date", "Amount"},
			Rows:     rows,
			LeftCols: 4,
		}))
		return nil
	})
}

func runExpenseAdd(cmd *cobra.Command, _ []string) error {
	desc, amount, category, date := flagExpenseDescription, flagExpenseAmount, flagExpenseCategory, flagExpenseDate

	if desc == "" || amount == "" {
		if category == "" {
			category = model.Categories[0]
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Description").Validate(cli.Required("description")).Value(&desc),
			huh.NewInput().Title("Amount").Placeholder("0.00").Validate(cli.ValidAmount).Value(&amount),
			huh.NewSelect[string]().Title("Category").Options(huh.NewOptions(model.Categories...)...).Value(&category),
			huh.NewInput().Title("Date").Placeholder(model.DateLayout+" (blank for today)").Validate(cli.ValidDate).Value(&date),
		).Title("Add expense"))
		if err := form.Run(); err != nil {
			return err
		}
	}
	if category == "" {
		category = "Other"
	}

	amt, err := parseAmountArg(amount)
	if err != nil {
		return err
	}
	when, err := parseDateOrToday(date)
	if err != nil {
		return err
	}
	e := model.Expense{Description: desc, Amount: amt, Category: category, Date: when}

	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.AddExpense(ctx, e).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Added expense %q of %s (%s)\n", e.Description, cli.FormatMoney(e.Amount), e.Category)
		return nil
	})
}

func runExpenseDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.DeleteExpense(ctx, id).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Deleted expense %d\n", id)
		return nil
	})
}
