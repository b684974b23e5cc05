package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneyflow/internal/core"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func rub(units int64) core.Money { return core.Money{Cents: units * 100} }

func tx(id int64, title string, units int64, typ core.TransactionType, date core.Date) core.Transaction {
	return core.Transaction{ID: id, Title: title, Amount: rub(units), Type: typ, Date: date}
}

func TestComputeTotals(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "Food", 300, core.Expense, core.NewDate(2025, 11, 29)),
		tx(2, "Salary", 20000, core.Income, core.NewDate(2025, 11, 28)),
		tx(3, "Food", 201, core.Expense, core.NewDate(2025, 11, 27)),
	}

	got := Compute(txs)

	want := Totals{
		Income:       rub(20000),
		Expense:      rub(501),
		Balance:      rub(19499),
		Count:        3,
		IncomeCount:  1,
		ExpenseCount: 2,
		AvgIncome:    rub(20000),
		AvgExpense:   core.Money{Cents: 25050},
		Ratio:        decimal.RequireFromString("39.92"),
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("Compute() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "39.92", got.RatioString())
}

func TestComputeWithoutExpenses(t *testing.T) {
	got := Compute([]core.Transaction{tx(1, "Salary", 100, core.Income, core.NewDate(2025, 1, 1))})
	assert.True(t, got.RatioInfinite)
	assert.Equal(t, "∞", got.RatioString())
	assert.Equal(t, int64(0), got.AvgExpense.Cents)

	empty := Compute(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.RatioInfinite)
	assert.Equal(t, int64(0), empty.AvgIncome.Cents)
}

func TestByCategory(t *testing.T) {
	d := core.NewDate(2025, 11, 1)
	txs := []core.Transaction{
		tx(1, "Food", 300, core.Expense, d),
		tx(2, "Salary", 20000, core.Income, d),
		tx(3, "Food", 700, core.Expense, d),
		tx(4, "", 50, core.Expense, d),
		tx(5, "Gift", 400, core.Income, d),
		tx(6, "Gift", 100, core.Expense, d),
	}

	got := ByCategory(txs, TopCategories)

	want := []CategoryStat{
		{Category: "Salary", Income: rub(20000), Total: rub(20000), Count: 1,
			IncomePct: decimal.NewFromInt(100), ExpensePct: decimal.Zero},
		{Category: "Food", Expense: rub(1000), Total: rub(-1000), Count: 2,
			IncomePct: decimal.Zero, ExpensePct: decimal.NewFromInt(100)},
		{Category: "Gift", Income: rub(400), Expense: rub(100), Total: rub(300), Count: 2,
			IncomePct: decimal.NewFromInt(80), ExpensePct: decimal.NewFromInt(20)},
		{Category: Uncategorized, Expense: rub(50), Total: rub(-50), Count: 1,
			IncomePct: decimal.Zero, ExpensePct: decimal.NewFromInt(100)},
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Fatalf("ByCategory() mismatch (-want +got):\n%s", diff)
	}
}

func TestByCategoryLimitAndStableOrder(t *testing.T) {
	var txs []core.Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, tx(int64(i), fmt.Sprintf("c%02d", i), 100, core.Expense, core.NewDate(2025, 1, 1)))
	}
	got := ByCategory(txs, TopCategories)
	require.Len(t, got, TopCategories)
	// Equal totals keep first-appearance order.
	for i, row := range got {
		assert.Equal(t, fmt.Sprintf("c%02d", i), row.Category)
	}
	assert.Len(t, ByCategory(txs, 0), 15)
}

func TestBuildChart(t *testing.T) {
	rows := []CategoryStat{
		{Category: "Salary", Income: rub(20000)},
		{Category: "Food", Expense: rub(300)},
		{Category: "Empty"},
		{Category: "Tip", Expense: core.Money{Cents: 40}},
	}
	chart := BuildChart(rows, ChartBars)
	require.Len(t, chart.Bars, 4)
	assert.Equal(t, rub(20000), chart.Scale)
	assert.Equal(t, rub(1), chart.Bars[2].Max)
	assert.Equal(t, rub(1), chart.Bars[3].Max, "sub-unit amounts scale against one whole unit")
	assert.Equal(t, 150, chart.BarHeight(rub(20000), 150))
	assert.Equal(t, 2, chart.BarHeight(rub(300), 150))
	assert.Equal(t, 0, chart.BarHeight(core.Money{}, 150))

	empty := BuildChart(nil, ChartBars)
	assert.Empty(t, empty.Bars)
	assert.Equal(t, rub(1), empty.Scale)

	small := BuildChart([]CategoryStat{{Category: "Tip", Expense: core.Money{Cents: 50}}}, ChartBars)
	assert.Equal(t, rub(1), small.Scale)
	assert.Equal(t, 75, small.BarHeight(core.Money{Cents: 50}, 150))

	many := make([]CategoryStat, 12)
	assert.Len(t, BuildChart(many, ChartBars).Bars, ChartBars)
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(1, "Food", 300, core.Expense, core.NewDate(2025, 11, 29)),
		tx(2, "Salary", 20000, core.Income, core.NewDate(2025, 11, 28)),
		tx(3, "Rent", 9000, core.Expense, core.NewDate(2025, 8, 1)),
	}

	week := Build(txs, core.PeriodWeek, now)
	assert.Equal(t, core.PeriodWeek, week.Period)
	assert.Equal(t, 2, week.Totals.Count)
	assert.Equal(t, rub(19700), week.Totals.Balance)
	require.Len(t, week.Categories, 2)
	assert.Equal(t, "Salary", week.Categories[0].Category)

	all := Build(txs, core.PeriodAll, now)
	assert.Equal(t, 3, all.Totals.Count)
	assert.Len(t, all.Chart.Bars, 3)
}

func TestBalance(t *testing.T) {
	income, expense, balance := Balance([]core.Transaction{
		tx(1, "Food", 300, core.Expense, core.NewDate(2025, 11, 29)),
		tx(2, "Salary", 20000, core.Income, core.NewDate(2025, 11, 28)),
	})
	assert.Equal(t, rub(20000), income)
	assert.Equal(t, rub(300), expense)
	assert.Equal(t, rub(19700), balance)
}
