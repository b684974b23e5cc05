package core

import (
	"fmt"
	"strings"
	"time"
)

// Period selects how far back statistics look.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
	PeriodAll     Period = "all"
)

// DefaultPeriod is what the statistics view opens with.
const DefaultPeriod = PeriodMonth

// Periods lists the selectable periods in display order.
func Periods() []Period {
	return []Period{PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll}
}

// ParsePeriod accepts a period name; empty input selects DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return DefaultPeriod, nil
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Cutoff returns the first calendar day kept by the period, counted back
// from today. ok is false for PeriodAll, which keeps everything.
func (p Period) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	today := Today(now).Time
	switch p {
	case PeriodWeek:
		return today.AddDate(0, 0, -7), true
	case PeriodMonth:
		return today.AddDate(0, -1, 0), true
	case PeriodQuarter:
		return today.AddDate(0, -3, 0), true
	case PeriodYear:
		return today.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Filter keeps the transactions dated on or after the cutoff. The input
// order is preserved and the input slice is not modified.
func (p Period) Filter(txs []Transaction, now time.Time) []Transaction {
	cutoff, ok := p.Cutoff(now)
	if !ok {
		return txs
	}
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Label is the human readable name of the period.
func (p Period) Label() string {
	switch p {
	case PeriodWeek:
		return "Week"
	case PeriodMonth:
		return "Month"
	case PeriodQuarter:
		return "Quarter"
	case PeriodYear:
		return "Year"
	case PeriodAll:
		return "All time"
	}
	return string(p)
}
