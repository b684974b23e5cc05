package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"300", 30000, true},
		{"20000", 2000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"11258999068426.24", 1 << 50, true},
		{"11258999068426.25", 0, false},
		{"184467440737095516.17", 0, false}, // 2^64+1 cents would wrap to 1
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	m := Money{Cents: 2000000}
	if got := m.String(); got != "20000.00" {
		t.Fatalf("String() = %q", got)
	}
	if got := m.Format("USD"); got != "$20,000.00" {
		t.Fatalf("Format(USD) = %q", got)
	}
	if got := m.Format(""); got == "" {
		t.Fatalf("Format with default currency returned empty string")
	}
}

func TestDecimalToCents(t *testing.T) {
	cases := []struct {
		in        string
		allowZero bool
		out       int64
		ok        bool
	}{
		{"0", true, 0, true},
		{"0", false, 0, false},
		{"0.004", true, 0, true},
		{"12.345", false, 1235, true},
		{"-0.01", true, 0, false},
		{"11258999068426.24", false, 1 << 50, true},
		{"11258999068426.25", true, 0, false},
		{"184467440737095516.17", true, 0, false},
		{"99999999999999999999999", true, 0, false},
	}
	for _, tc := range cases {
		got, err := DecimalToCents(decimal.RequireFromString(tc.in), tc.allowZero)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err != ErrInvalidAmount {
			t.Fatalf("%q expected ErrInvalidAmount, got %d (err=%v)", tc.in, got, err)
		}
	}
}

func TestMoneyCheckedAdd(t *testing.T) {
	sum, err := Money{Cents: 150}.CheckedAdd(Money{Cents: 250})
	if err != nil || sum.Cents != 400 {
		t.Fatalf("CheckedAdd = %d, %v", sum.Cents, err)
	}
	if _, err := (Money{Cents: MaxCents}).CheckedAdd(Money{Cents: 1}); err != ErrInvalidAmount {
		t.Fatalf("CheckedAdd past the limit: err = %v", err)
	}
	if _, err := (Money{Cents: 1 << 62}).CheckedAdd(Money{Cents: 1 << 62}); err != ErrInvalidAmount {
		t.Fatalf("CheckedAdd overflowing int64: err = %v", err)
	}
}
