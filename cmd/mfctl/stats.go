package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"moneyflow/internal/core"
)

func newStatsCmd(e *env) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals and the per-category breakdown for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.txs.Report(cmd.Context(), p)
			if err != nil {
				return err
			}

			cur := e.currency()
			t := r.Totals
			fmt.Fprintf(e.out, "%s: %d transactions\n", p.Label(), t.Count)
			fmt.Fprintf(e.out, "Income   %s (%d, avg %s)\n", t.Income.Format(cur), t.IncomeCount, t.AvgIncome.Format(cur))
			fmt.Fprintf(e.out, "Expense  %s (%d, avg %s)\n", t.Expense.Format(cur), t.ExpenseCount, t.AvgExpense.Format(cur))
			fmt.Fprintf(e.out, "Balance  %s\n", t.Balance.Format(cur))
			fmt.Fprintf(e.out, "Ratio    %s\n", t.RatioString())
			if len(r.Categories) == 0 {
				return nil
			}

			fmt.Fprintln(e.out)
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tINCOME\tEXPENSE\tTOTAL\tCOUNT\tSHARE")
			for _, c := range r.Categories {
				share := c.ExpensePct
				if c.Income.Cents > 0 {
					share = c.IncomePct
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s%%\n", c.Category,
					c.Income.Format(cur), c.Expense.Format(cur), c.Total.Format(cur), c.Count, share.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", string(core.PeriodMonth), "week, month, quarter, year or all")
	return cmd
}
