// Package stats aggregates transactions and goals into the figures shown on
// the statistics and plans views. Every function is pure: callers pass the
// data and the clock.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

const (
	// TopCategories is how many category rows the statistics view lists.
	TopCategories = 10
	// ChartBars is how many categories are drawn in the bar chart.
	ChartBars = 8
	// Uncategorized collects transactions with a blank title.
	Uncategorized = "Uncategorized"
)

var hundred = decimal.NewFromInt(100)

type (
	// Totals summarises a list of transactions.
	Totals struct {
		Income       core.Money
		Expense      core.Money
		Balance      core.Money
		Count        int
		IncomeCount  int
		ExpenseCount int
		AvgIncome    core.Money
		AvgExpense   core.Money
		// Ratio is income/expense with two decimals; meaningless when
		// RatioInfinite is set (no expenses at all).
		Ratio         decimal.Decimal
		RatioInfinite bool
	}

	// CategoryStat is one row of the per-category breakdown.
	CategoryStat struct {
		Category   string
		Income     core.Money
		Expense    core.Money
		Total      core.Money // Income - Expense
		Count      int
		IncomePct  decimal.Decimal
		ExpensePct decimal.Decimal
	}

	Bar struct {
		Category string
		Income   core.Money
		Expense  core.Money
		Max      core.Money
	}

	Chart struct {
		Bars  []Bar
		Scale core.Money
	}

	// Report is everything the statistics view needs for one period.
	Report struct {
		Period      core.Period
		GeneratedAt time.Time
		Totals      Totals
		Categories  []CategoryStat
		Chart       Chart
	}
)

// RatioString renders the income/expense ratio, "∞" when nothing was spent.
func (t Totals) RatioString() string {
	if t.RatioInfinite {
		return "∞"
	}
	return t.Ratio.StringFixed(2)
}

// Compute totals, counts, averages and the income/expense ratio.
func Compute(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
			t.IncomeCount++
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
			t.ExpenseCount++
		}
	}
	t.Count = len(txs)
	t.Balance = t.Income.Sub(t.Expense)
	t.AvgIncome = average(t.Income, t.IncomeCount)
	t.AvgExpense = average(t.Expense, t.ExpenseCount)
	if t.Expense.Cents == 0 {
		t.RatioInfinite = true
	} else {
		t.Ratio = decimal.NewFromInt(t.Income.Cents).
			Div(decimal.NewFromInt(t.Expense.Cents)).
			Round(2)
	}
	return t
}

// Balance returns all-time income, expense and their difference.
func Balance(txs []core.Transaction) (income, expense, balance core.Money) {
	t := Compute(txs)
	return t.Income, t.Expense, t.Balance
}

func average(sum core.Money, n int) core.Money {
	if n == 0 {
		return core.Money{}
	}
	avg := decimal.NewFromInt(sum.Cents).Div(decimal.NewFromInt(int64(n))).Round(0)
	return core.Money{Cents: avg.IntPart()}
}

// ByCategory groups transactions by title and returns at most limit rows
// ordered by the absolute net total, largest first. limit <= 0 returns all.
func ByCategory(txs []core.Transaction, limit int) []CategoryStat {
	index := make(map[string]int)
	var rows []CategoryStat
	for _, tx := range txs {
		name := strings.TrimSpace(tx.Title)
		if name == "" {
			name = Uncategorized
		}
		i, ok := index[name]
		if !ok {
			i = len(rows)
			index[name] = i
			rows = append(rows, CategoryStat{Category: name})
		}
		row := &rows[i]
		if tx.Type == core.Income {
			row.Income = row.Income.Add(tx.Amount)
		} else {
			row.Expense = row.Expense.Add(tx.Amount)
		}
		row.Count++
	}

	for i := range rows {
		row := &rows[i]
		row.Total = row.Income.Sub(row.Expense)
		row.IncomePct = share(row.Income, row.Income.Add(row.Expense))
		row.ExpensePct = share(row.Expense, row.Income.Add(row.Expense))
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return abs(rows[a].Total.Cents) > abs(rows[b].Total.Cents)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// share is part/whole in percent with two decimals, 0 when part is 0.
func share(part, whole core.Money) decimal.Decimal {
	if part.Cents <= 0 || whole.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).
		Div(decimal.NewFromInt(whole.Cents)).
		Round(2)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// chartFloor is one major unit, so tiny or empty bars never scale to full height.
var chartFloor = core.Money{Cents: 100}

// BuildChart turns the first limit category rows into bars.
func BuildChart(rows []CategoryStat, limit int) Chart {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	chart := Chart{Bars: make([]Bar, 0, len(rows)), Scale: chartFloor}
	for _, r := range rows {
		b := Bar{
			Category: r.Category,
			Income:   r.Income,
			Expense:  r.Expense,
			Max:      core.Money{Cents: max(r.Income.Cents, r.Expense.Cents, chartFloor.Cents)},
		}
		chart.Scale.Cents = max(chart.Scale.Cents, b.Max.Cents)
		chart.Bars = append(chart.Bars, b)
	}
	return chart
}

// BarHeight scales v to a pixel height where the chart scale maps to px.
func (c Chart) BarHeight(v core.Money, px int) int {
	if c.Scale.Cents <= 0 || v.Cents <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(v.Cents).
		Mul(decimal.NewFromInt(int64(px))).
		Div(decimal.NewFromInt(c.Scale.Cents)).
		Round(0).IntPart())
}

// Build filters txs to the period and assembles the full report.
func Build(txs []core.Transaction, period core.Period, now time.Time) Report {
	filtered := period.Filter(txs, now)
	categories := ByCategory(filtered, TopCategories)
	return Report{
		Period:      period,
		GeneratedAt: now,
		Totals:      Compute(filtered),
		Categories:  categories,
		Chart:       BuildChart(categories, ChartBars),
	}
}
