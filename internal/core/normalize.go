package core

// Conversion factors to a uniform 30-day month.
const (
	daysPerMonth   = 30.0
	monthsPerYear  = 12.0
	avgMonthLength = 30.44 // mean Gregorian month, used by the predictor
)

// NormalizeExpenses converts each expense to its monthly-equivalent
// amount and aggregates the result: the grand total and a per-category
// breakdown. Expenses without a category count under DefaultCategory.
//
// An empty input yields a zero total and an empty (non-nil) map.
func NormalizeExpenses(expenses []Expense) (float64, map[string]float64) {
	total := 0.0
	byCategory := make(map[string]float64, len(expenses))
	for _, e := range expenses {
		m := MonthlyEquivalent(e.Amount.Amount(), e.Frequency)
		total += m
		key := e.Category
		if key == "" {
			key = DefaultCategory
		}
		byCategory[key] += m
	}
	return total, byCategory
}

// MonthlyEquivalent converts an amount recorded at the given frequency
// to its per-month value. Unknown frequencies are treated as monthly.
func MonthlyEquivalent(amount float64, f Frequency) float64 {
	switch f.Normalized() {
	case Daily:
		return amount * daysPerMonth
	case Yearly:
		return amount / monthsPerYear
	default:
		return amount
	}
}

// MonthlySavingRate derives the rate fed to the predictor from the
// user's stated income and the normalized expense total. All callers
// (dashboard, CSV, PDF) must go through this single derivation so the
// three views can never disagree.
func MonthlySavingRate(monthlyIncome, monthlyExpenseTotal float64) float64 {
	return monthlyIncome - monthlyExpenseTotal
}
