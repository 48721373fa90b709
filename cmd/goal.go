package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagGoalName     string
	flagGoalTarget   string
	flagGoalCurrent  string
	flagGoalDeadline string
	flagGoalWithdraw bool
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"goals"},
	Short:   "List and manage savings goals",
	RunE:    runGoalList,
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List savings goals with progress",
	RunE:  runGoalList,
}

var goalAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a savings goal",
	RunE:  runGoalAdd,
}

var goalDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a savings goal",
	Args:    cobra.ExactArgs(1),
	RunE:    runGoalDelete,
}

var goalDepositCmd = &cobra.Command{
	Use:   "deposit <id> <amount>",
	Short: "Add money to a savings goal (or take it out with --withdraw)",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalDeposit,
}

func init() {
	goalAddCmd.Flags().StringVar(&flagGoalName, "name", "", "Goal name")
	goalAddCmd.Flags().StringVar(&flagGoalTarget, "target", "", "Target amount (> 0)")
	goalAddCmd.Flags().StringVar(&flagGoalCurrent, "current", "", "Amount already saved (default 0)")
	goalAddCmd.Flags().StringVar(&flagGoalDeadline, "deadline", "", "Deadline as YYYY-MM-DD")

	goalDepositCmd.Flags().BoolVar(&flagGoalWithdraw, "withdraw", false, "Subtract the amount instead")

	goalCmd.AddCommand(goalListCmd, goalAddCmd, goalDeleteCmd, goalDepositCmd)
	rootCmd.AddCommand(goalCmd)
}

func runGoalList(cmd *cobra.Command, _ []string) error {
	return withBudget(cmd, func(_ context.Context, c *client) error {
		s := c.budget.Snapshot()
		if len(s.SavingsGoals) == 0 {
			fmt.Println("\n  No savings goals yet. Create one with `budget goal add`.")
			return nil
		}
		fmt.Println()
		fmt.Print(renderGoals(s.SavingsGoals, model.Today()))
		return nil
	})
}

func renderGoals(goals []model.SavingsGoal, today time.Time) string {
	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		rows = append(rows, []string{
			fmt.Sprintf("%d", g.ID),
			cli.Truncate(g.Name, 24),
			string(g.Status()),
			cli.FormatDeadline(g.Deadline, today),
			cli.FormatMoney(g.CurrentAmount),
			cli.FormatMoney(g.TargetAmount),
			cli.RenderProgressBar(g.Percent().InexactFloat64(), 16),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:    "Savings Goals",
		Headers:  []string{"ID", "Goal", "Status", "Deadline", "Saved", "Target", "Progress"},
		Rows:     rows,
		LeftCols: 4,
	})
}

func runGoalAdd(cmd *cobra.Command, _ []string) error {
	name, target, current, deadline := flagGoalName, flagGoalTarget, flagGoalCurrent, flagGoalDeadline

	if name == "" || target == "" || deadline == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Goal name").Validate(cli.Required("name")).Value(&name),
			huh.NewInput().Title("Target amount").Placeholder("0.00").Validate(cli.ValidPositiveAmount).Value(&target),
			huh.NewInput().Title("Already saved").Placeholder("0.00").Validate(cli.OptionalAmount).Value(&current),
			huh.NewInput().Title("Deadline").Placeholder(model.DateLayout).Validate(cli.RequiredDate("deadline")).Value(&deadline),
		).Title("Add savings goal"))
		if err := form.Run(); err != nil {
			return err
		}
	}

	g, err := goalFromInput(name, target, current, deadline)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.AddSavingsGoal(ctx, g).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Created goal %q: %s of %s\n", g.Name, cli.FormatMoney(g.CurrentAmount), cli.FormatMoney(g.TargetAmount))
		return nil
	})
}

func runGoalDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.DeleteSavingsGoal(ctx, id).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Deleted savings goal %d\n", id)
		return nil
	})
}

func runGoalDeposit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	amt, err := parseAmountArg(args[1])
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return errors.New("amount must be greater than zero")
	}
	if flagGoalWithdraw {
		amt = amt.Neg()
	}

	return withBudget(cmd, func(ctx context.Context, c *client) error {
		if err := c.budget.AddAmountToSavingsGoal(ctx, id, amt).AsError(); err != nil {
			return sessionAware(c, err)
		}
		for _, g := range c.budget.Snapshot().SavingsGoals {
			if g.ID == id {
				fmt.Printf("  %s: %s of %s (%s)\n", g.Name,
					cli.FormatMoney(g.CurrentAmount), cli.FormatMoney(g.TargetAmount),
					cli.FormatPercent(g.Percent().InexactFloat64()))
				return nil
			}
		}
		fmt.Printf("  Updated savings goal %d by %s\n", id, cli.FormatSignedMoney(amt))
		return nil
	})
}

// goalFromInput validates raw goal fields from flags or the prompt.
func goalFromInput(name, target, current, deadline string) (model.SavingsGoal, error) {
	if err := cli.Required("name")(name); err != nil {
		return model.SavingsGoal{}, err
	}
	tgt, err := parseAmountArg(target)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	if !tgt.IsPositive() {
		return model.SavingsGoal{}, errors.New("target must be greater than zero")
	}
	cur := decimal.Zero
	if strings.TrimSpace(current) != "" {
		if cur, err = parseAmountArg(current); err != nil {
			return model.SavingsGoal{}, err
		}
	}
	if err := cli.RequiredDate("deadline")(deadline); err != nil {
		return model.SavingsGoal{}, err
	}
	due, err := model.ParseDate(deadline)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	return model.SavingsGoal{Name: strings.TrimSpace(name), TargetAmount: tgt, CurrentAmount: cur, Deadline: due}, nil
}
