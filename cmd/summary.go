package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, remaining budget, spending by category and goal progress",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return withBudget(cmd, func(_ context.Context, c *client) error {
		s := c.budget.Summary()
		sess, _ := c.sessions.Current()

		fmt.Println()
		fmt.Println(cli.RenderTitle("BUDGET  " + displayName(sess.User.Name, sess.User.Username)))
		fmt.Println()
		fmt.Print(cli.RenderSummary(s))

		if s.ExpenseCount > 0 {
			fmt.Println()
			fmt.Println("  Spending by category")
			fmt.Print(cli.RenderCategoryChart(s.Categories, 30))
		}

		if goals := c.budget.Snapshot().SavingsGoals; len(goals) > 0 {
			fmt.Println()
			fmt.Print(renderGoals(goals, model.Today()))
		}
		return nil
	})
}
