package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagIncomeSource    string
	flagIncomeAmount    string
	flagIncomeFrequency string
	flagIncomeDate      string
)

var incomeCmd = &cobra.Command{
	Use:     "income",
	Aliases: []string{"inc"},
	Short:   "List and manage income entries",
	RunE:    runIncomeList,
}

var incomeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List income entries",
	RunE:  runIncomeList,
}

var incomeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an income entry",
	RunE:  runIncomeAdd,
}

var incomeDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an income entry",
	Args:    cobra.ExactArgs(1),
	RunE:    runIncomeDelete,
}

func init() {
	incomeAddCmd.Flags().StringVar(&flagIncomeSource, "source", "", "Income source, e.g. Salary")
	incomeAddCmd.Flags().StringVar(&flagIncomeAmount, "amount", "", "Amount, e.g. 1250.00")
	incomeAddCmd.Flags().StringVar(&flagIncomeFrequency, "frequency", "", "One-time, Daily, Weekly, Monthly, Quarterly or Yearly")
	incomeAddCmd.Flags().StringVar(&flagIncomeDate, "date", "", "Date as YYYY-MM-DD (default today)")

	incomeCmd.AddCommand(incomeListCmd, incomeAddCmd, incomeDeleteCmd)
	rootCmd.AddCommand(incomeCmd)
}

func runIncomeList(cmd *cobra.Command, _ []string) error {
	return withBudget(cmd, func(_ context.Context, c *client) error {
		s := c.budget.Snapshot()
		if len(s.Income) == 0 {
			fmt.Println("\n  No income recorded yet. Add one with `budget income add`.")
			return nil
		}

		rows := make([][]string, 0, len(s.Income)+2)
		for _, in := range s.Income {
			rows = append(rows, []string{
				fmt.Sprintf("%d", in.ID),
				in.Source,
				string(in.Frequency),
				cli.FormatDate(in.Date),
				cli.FormatMoney(in.Amount),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"", "Total", "", "", cli.FormatMoney(c.budget.TotalIncome())})

		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Income",
			Headers:  []string{"ID", "Source", "Frequency", "Date", "Amount"},
			Rows:     rows,
			LeftCols: 4,
		}))
		return nil
	})
}

func runIncomeAdd(cmd *cobra.Command, _ []string) error {
	source, amount, freq, date := flagIncomeSource, flagIncomeAmount, flagIncomeFrequency, flagIncomeDate

	if source == "" || amount == "" {
		if source == "" {
			source = model.IncomeSources[0]
		}
		if freq == "" {
			freq = string(model.FrequencyOneTime)
		}
		freqOpts := make([]huh.Option[string], len(model.Frequencies))
		for i, f := range model.Frequencies {
			freqOpts[i] = huh.NewOption(string(f), string(f))
		}
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title("Source").Options(huh.NewOptions(model.IncomeSources...)...).Value(&source),
			huh.NewInput().Title("Amount").Placeholder("0.00").Validate(cli.ValidAmount).Value(&amount),
			huh.NewSelect[string]().Title("Frequency").Options(freqOpts...).Value(&freq),
			huh.NewInput().Title("Date").Placeholder(model.DateLayout+" (blank for today)").Validate(cli.ValidDate).Value(&date),
		).Title("Add income"))
		if err := form.Run(); err != nil {
			return err
		}
	}

	amt, err := parseAmountArg(amount)
	if err != nil {
		return err
	}
	when, err := parseDateOrToday(date)
	if err != nil {
		return err
	}
	in := model.Income{Source: source, Amount: amt, Date: when}
	if freq != "" {
		f, ok := model.ParseFrequency(freq)
		if !ok {
			return fmt.Errorf("unknown frequency %q", freq)
		}
		in.Frequency = f
	}

	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.AddIncome(ctx, in).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Added %s income of %s\n", in.Source, cli.FormatMoney(in.Amount))
		return nil
	})
}

func runIncomeDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if _, err := c.requireSession(); err != nil {
			return err
		}
		if err := c.budget.DeleteIncome(ctx, id).AsError(); err != nil {
			return sessionAware(c, err)
		}
		fmt.Printf("  Deleted income %d\n", id)
		return nil
	})
}
