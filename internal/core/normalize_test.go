package core

import (
	"math"
	"testing"
)

func money(cents int64) Money { return Money{Cents: cents} }

func TestMonthlyEquivalent(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		freq   Frequency
		want   float64
	}{
		{"daily is amount times 30", 10, Daily, 300},
		{"monthly is unchanged", 42.5, Monthly, 42.5},
		{"yearly is amount over 12", 120, Yearly, 10},
		{"unknown frequency degrades to monthly", 7, Frequency("weekly"), 7},
		{"zero amount", 0, Daily, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MonthlyEquivalent(tc.amount, tc.freq)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("MonthlyEquivalent(%v, %q) = %v, want %v", tc.amount, tc.freq, got, tc.want)
			}
		})
	}
}

func TestNormalizeExpenses_Empty(t *testing.T) {
	total, cats := NormalizeExpenses(nil)
	if total != 0 {
		t.Errorf("total = %v, want 0", total)
	}
	if cats == nil || len(cats) != 0 {
		t.Errorf("categories = %v, want empty map", cats)
	}
}

func TestNormalizeExpenses_Aggregation(t *testing.T) {
	expenses := []Expense{
		{Title: "coffee", Category: "Food", Amount: money(300), Frequency: Daily},      // 3.00/day -> 90
		{Title: "rent", Category: "Housing", Amount: money(80000), Frequency: Monthly}, // 800
		{Title: "insurance", Category: "Housing", Amount: money(60000), Frequency: Yearly}, // 600/yr -> 50
		{Title: "misc", Category: "", Amount: money(1200), Frequency: Monthly},         // 12 -> Other
	}

	total, cats := NormalizeExpenses(expenses)

	if want := 90.0 + 800.0 + 50.0 + 12.0; math.Abs(total-want) > 1e-9 {
		t.Fatalf("total = %v, want %v", total, want)
	}
	if got := cats["Food"]; math.Abs(got-90) > 1e-9 {
		t.Errorf("Food = %v, want 90", got)
	}
	if got := cats["Housing"]; math.Abs(got-850) > 1e-9 {
		t.Errorf("Housing = %v, want 850", got)
	}
	if got := cats[DefaultCategory]; math.Abs(got-12) > 1e-9 {
		t.Errorf("%s = %v, want 12", DefaultCategory, got)
	}
	if len(cats) != 3 {
		t.Errorf("got %d categories, want 3", len(cats))
	}
}

// The total must always equal the sum of the per-category subtotals.
func TestNormalizeExpenses_TotalMatchesCategorySum(t *testing.T) {
	sets := [][]Expense{
		nil,
		{{Category: "A", Amount: money(101), Frequency: Daily}},
		{
			{Category: "A", Amount: money(12345), Frequency: Yearly},
			{Category: "B", Amount: money(999), Frequency: Monthly},
			{Category: "", Amount: money(1), Frequency: Daily},
			{Category: "A", Amount: money(250), Frequency: Monthly},
		},
	}
	for i, set := range sets {
		total, cats := NormalizeExpenses(set)
		sum := 0.0
		for _, v := range cats {
			sum += v
		}
		if math.Abs(total-sum) > 1e-9 {
			t.Errorf("set %d: total %v != category sum %v", i, total, sum)
		}
	}
}

func TestMonthlySavingRate(t *testing.T) {
	if got := MonthlySavingRate(3000, 1800); got != 1200 {
		t.Errorf("MonthlySavingRate(3000, 1800) = %v, want 1200", got)
	}
	if got := MonthlySavingRate(1000, 1500); got != -500 {
		t.Errorf("MonthlySavingRate(1000, 1500) = %v, want -500", got)
	}
}
