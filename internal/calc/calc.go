// Package calc implements the compound-interest planning calculators:
// regular savings, annuity loans, long-term investment and saving towards
// a target. Amounts are in major currency units; interest compounds monthly
// at rate/100/12.
package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxMonths bounds every horizon to thirty years.
	MaxMonths = 360
	MaxYears  = MaxMonths / 12

	// scale keeps intermediate values from growing without bound across
	// hundreds of compounding steps.
	scale = 18
)

var (
	ErrInvalidAmount  = errors.New("amount must not be negative")
	ErrInvalidHorizon = fmt.Errorf("horizon must be between 1 and %d months", MaxMonths)
	ErrInvalidRate    = errors.New("rate must be between 0 and 100 percent")

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type (
	Savings struct {
		Monthly decimal.Decimal
		Months  int
		RatePct decimal.Decimal
	}

	SavingsResult struct {
		Total    decimal.Decimal `json:"total"`
		Invested decimal.Decimal `json:"invested"`
		Earned   decimal.Decimal `json:"earned"`
	}

	Loan struct {
		Amount     decimal.Decimal
		TermMonths int
		RatePct    decimal.Decimal
	}

	LoanResult struct {
		MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
		TotalPayment   decimal.Decimal `json:"totalPayment"`
		Overpayment    decimal.Decimal `json:"overpayment"`
	}

	Investment struct {
		Initial decimal.Decimal
		Monthly decimal.Decimal
		Years   int
		RatePct decimal.Decimal
	}

	InvestmentResult struct {
		Total       decimal.Decimal `json:"total"`
		Contributed decimal.Decimal `json:"totalContributed"`
		Profit      decimal.Decimal `json:"profit"`
		Years       int             `json:"years"`
	}

	GoalPlan struct {
		Target  decimal.Decimal
		Months  int
		Current decimal.Decimal
		RatePct decimal.Decimal
	}

	GoalPlanResult struct {
		MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
		Achievable     bool            `json:"achievable"`
		// Extra is how far current savings alone overshoot the target.
		Extra decimal.Decimal `json:"extra"`
	}
)

// Defaults mirror the values the calculators open with.
func DefaultSavings() Savings {
	return Savings{Monthly: decimal.NewFromInt(10000), Months: 12, RatePct: decimal.NewFromInt(8)}
}

func DefaultLoan() Loan {
	return Loan{Amount: decimal.NewFromInt(500000), TermMonths: 36, RatePct: decimal.NewFromInt(12)}
}

func DefaultInvestment() Investment {
	return Investment{
		Initial: decimal.NewFromInt(100000),
		Monthly: decimal.NewFromInt(10000),
		Years:   10,
		RatePct: decimal.NewFromInt(10),
	}
}

func DefaultGoalPlan() GoalPlan {
	return GoalPlan{
		Target:  decimal.NewFromInt(1000000),
		Months:  60,
		Current: decimal.NewFromInt(50000),
		RatePct: decimal.NewFromInt(7),
	}
}

func validate(months int, rate decimal.Decimal, amounts ...decimal.Decimal) error {
	if months < 1 || months > MaxMonths {
		return ErrInvalidHorizon
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return ErrInvalidRate
	}
	for _, a := range amounts {
		if a.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

func monthlyRate(ratePct decimal.Decimal) decimal.Decimal {
	return ratePct.Div(hundred).Div(twelve)
}

// pow raises x to a small non-negative integer power, rounding every step.
func pow(x decimal.Decimal, n int) decimal.Decimal {
	result := one
	for i := 0; i < n; i++ {
		result = result.Mul(x).Round(scale)
	}
	return result
}

// accumulate deposits monthly at the start of each month and compounds.
func accumulate(start, monthly, rate decimal.Decimal, months int) decimal.Decimal {
	growth := one.Add(rate)
	total := start
	for i := 0; i < months; i++ {
		total = total.Add(monthly).Mul(growth).Round(scale)
	}
	return total
}

// Calculate returns the balance after depositing Monthly for Months months.
func (s Savings) Calculate() (SavingsResult, error) {
	if err := validate(s.Months, s.RatePct, s.Monthly); err != nil {
		return SavingsResult{}, err
	}
	total := accumulate(decimal.Zero, s.Monthly, monthlyRate(s.RatePct), s.Months)
	invested := s.Monthly.Mul(decimal.NewFromInt(int64(s.Months)))
	return SavingsResult{
		Total:    total.Round(0),
		Invested: invested.Round(0),
		Earned:   total.Sub(invested).Round(0),
	}, nil
}

// Calculate returns the annuity schedule figures. A zero rate splits the
// principal evenly over the term.
func (l Loan) Calculate() (LoanResult, error) {
	if err := validate(l.TermMonths, l.RatePct, l.Amount); err != nil {
		return LoanResult{}, err
	}
	n := decimal.NewFromInt(int64(l.TermMonths))
	r := monthlyRate(l.RatePct)

	var payment decimal.Decimal
	if r.IsZero() {
		payment = l.Amount.Div(n)
	} else {
		growth := pow(one.Add(r), l.TermMonths)
		payment = l.Amount.Mul(r).Mul(growth).Div(growth.Sub(one))
	}
	total := payment.Mul(n)
	return LoanResult{
		MonthlyPayment: payment.Round(0),
		TotalPayment:   total.Round(0),
		Overpayment:    total.Sub(l.Amount).Round(0),
	}, nil
}

// Calculate grows Initial with monthly contributions over Years.
func (inv Investment) Calculate() (InvestmentResult, error) {
	if inv.Years < 1 || inv.Years > MaxYears {
		return InvestmentResult{}, ErrInvalidHorizon
	}
	months := inv.Years * 12
	if err := validate(months, inv.RatePct, inv.Initial, inv.Monthly); err != nil {
		return InvestmentResult{}, err
	}
	total := accumulate(inv.Initial, inv.Monthly, monthlyRate(inv.RatePct), months)
	contributed := inv.Initial.Add(inv.Monthly.Mul(decimal.NewFromInt(int64(months))))
	return InvestmentResult{
		Total:       total.Round(0),
		Contributed: contributed.Round(0),
		Profit:      total.Sub(contributed).Round(0),
		Years:       inv.Years,
	}, nil
}

// Calculate finds the monthly deposit that, together with the compounded
// current savings, reaches Target after Months.
func (g GoalPlan) Calculate() (GoalPlanResult, error) {
	if err := validate(g.Months, g.RatePct, g.Target, g.Current); err != nil {
		return GoalPlanResult{}, err
	}
	r := monthlyRate(g.RatePct)
	growth := pow(one.Add(r), g.Months)
	remaining := g.Target.Sub(g.Current.Mul(growth))

	if !remaining.IsPositive() {
		return GoalPlanResult{
			MonthlyPayment: decimal.Zero,
			Achievable:     true,
			Extra:          remaining.Abs().Round(2),
		}, nil
	}

	var payment decimal.Decimal
	if r.IsZero() {
		payment = remaining.Div(decimal.NewFromInt(int64(g.Months)))
	} else {
		payment = remaining.Mul(r).Div(growth.Sub(one))
	}
	return GoalPlanResult{
		MonthlyPayment: payment.Round(0),
		Achievable:     true,
		Extra:          decimal.Zero,
	}, nil
}
