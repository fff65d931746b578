package sheet

import "testing"

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base", "Forecasts", 2025, "2025 Forecasts"},
		{"already prefixed", "2024 Forecasts", 2025, "2024 Forecasts"},
		{"empty", "", 2025, ""},
		{"whitespace trimmed", "  Forecasts ", 2025, "2025 Forecasts"},
		{"short name", "FC", 2025, "2025 FC"},
		{"numeric but not a year", "1234 rows", 2025, "2025 1234 rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}
