package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"moneyflow/internal/core"
)

func newTxCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Add, list and remove transactions",
	}
	cmd.AddCommand(newTxAddCmd(e), newTxListCmd(e), newTxRmCmd(e))
	return cmd
}

func newTxAddCmd(e *env) *cobra.Command {
	var kind, amount, date string
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Record an income or an expense",
		Example: `  mfctl tx add --type expense --amount 450 Groceries
  mfctl tx add --type income --amount 85000 --date 2025-12-01 Salary`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseTransactionType(kind)
			if err != nil {
				return err
			}
			cents, err := core.ParseDecimalToCents(amount)
			if err != nil {
				return err
			}
			tx := core.Transaction{Title: strings.Join(args, " "), Amount: core.Money{Cents: cents}, Type: t}
			if date != "" {
				if tx.Date, err = core.ParseDate(date); err != nil {
					return err
				}
			}

			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := a.txs.Create(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Added #%d %s %s %s on %s\n",
				saved.ID, saved.Type, saved.Amount.Format(e.currency()), saved.Title, saved.Date)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "income or expense")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "positive amount in major units, e.g. 12.50")
	cmd.Flags().StringVarP(&date, "date", "d", "", "YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newTxListCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first, with the balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.txs.List(cmd.Context())
			if err != nil {
				return err
			}
			balance, err := a.txs.Balance(cmd.Context())
			if err != nil {
				return err
			}

			cur := e.currency()
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tTITLE")
			for _, t := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Type, t.Amount.Format(cur), t.Title)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(e.out, "\nIncome %s  Expense %s  Balance %s\n",
				balance.Income.Format(cur), balance.Expense.Format(cur), balance.Balance.Format(cur))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many rows")
	return cmd
}

func newTxRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.services(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.txs.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("transaction %d: %w", id, err)
			}
			fmt.Fprintf(e.out, "Deleted transaction #%d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
