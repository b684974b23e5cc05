package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"moneyflow/internal/calc"
	"moneyflow/internal/core"
)

// decimalValue lets a decimal.Decimal be bound to a flag.
type decimalValue struct{ d *decimal.Decimal }

var _ pflag.Value = decimalValue{}

func (v decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*v.d = d
	return nil
}

func (v decimalValue) Type() string { return "decimal" }

func decimalVar(fs *pflag.FlagSet, d *decimal.Decimal, name, usage string) {
	fs.Var(decimalValue{d}, name, usage)
}

func newCalcCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Savings, loan, investment and goal calculators",
		Long:  "Every input defaults to the value the web calculators open with. Rates are annual percentages.",
	}
	cmd.AddCommand(newCalcSavingsCmd(e), newCalcLoanCmd(e), newCalcInvestmentCmd(e), newCalcGoalCmd(e))
	return cmd
}

func (e *env) major(d decimal.Decimal) string {
	return core.MoneyFromMajor(d).Format(e.currency())
}

func newCalcSavingsCmd(e *env) *cobra.Command {
	in := calc.DefaultSavings()
	cmd := &cobra.Command{
		Use:   "savings",
		Short: "Monthly deposits with monthly compounding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := in.Calculate()
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Total     %s\nInvested  %s\nInterest  %s\n", e.major(r.Total), e.major(r.Invested), e.major(r.Earned))
			return nil
		},
	}
	decimalVar(cmd.Flags(), &in.Monthly, "monthly", "monthly deposit")
	cmd.Flags().IntVar(&in.Months, "months", in.Months, "number of months")
	decimalVar(cmd.Flags(), &in.RatePct, "rate", "annual rate in percent")
	return cmd
}

func newCalcLoanCmd(e *env) *cobra.Command {
	in := calc.DefaultLoan()
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Annuity payment of a loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := in.Calculate()
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Monthly payment  %s\nTotal payment    %s\nOverpayment      %s\n",
				e.major(r.MonthlyPayment), e.major(r.TotalPayment), e.major(r.Overpayment))
			return nil
		},
	}
	decimalVar(cmd.Flags(), &in.Amount, "amount", "loan amount")
	cmd.Flags().IntVar(&in.TermMonths, "term", in.TermMonths, "term in months")
	decimalVar(cmd.Flags(), &in.RatePct, "rate", "annual rate in percent")
	return cmd
}

func newCalcInvestmentCmd(e *env) *cobra.Command {
	in := calc.DefaultInvestment()
	cmd := &cobra.Command{
		Use:   "investment",
		Short: "Initial capital plus monthly contributions over years",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := in.Calculate()
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "After %d years  %s\nContributed     %s\nProfit          %s\n",
				r.Years, e.major(r.Total), e.major(r.Contributed), e.major(r.Profit))
			return nil
		},
	}
	decimalVar(cmd.Flags(), &in.Initial, "initial", "starting capital")
	decimalVar(cmd.Flags(), &in.Monthly, "monthly", "monthly contribution")
	cmd.Flags().IntVar(&in.Years, "years", in.Years, "number of years")
	decimalVar(cmd.Flags(), &in.RatePct, "rate", "annual rate in percent")
	return cmd
}

func newCalcGoalCmd(e *env) *cobra.Command {
	in := calc.DefaultGoalPlan()
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Monthly deposit needed to reach a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := in.Calculate()
			if err != nil {
				return err
			}
			if r.MonthlyPayment.IsZero() {
				fmt.Fprintf(e.out, "Current savings already reach the target, %s to spare\n", e.major(r.Extra))
				return nil
			}
			fmt.Fprintf(e.out, "Monthly deposit  %s\n", e.major(r.MonthlyPayment))
			return nil
		},
	}
	decimalVar(cmd.Flags(), &in.Target, "target", "amount to reach")
	cmd.Flags().IntVar(&in.Months, "months", in.Months, "months to get there")
	decimalVar(cmd.Flags(), &in.Current, "current", "amount already saved")
	decimalVar(cmd.Flags(), &in.RatePct, "rate", "annual rate in percent")
	return cmd
}
