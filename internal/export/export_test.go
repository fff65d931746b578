package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"finplan/internal/core"
	"finplan/internal/services"
	"finplan/internal/storage"
)

func sampleForecast(t *testing.T) services.Forecast {
	t.Helper()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	goals := []core.Goal{
		{ID: 1, Title: "Bike", Target: core.Money{Cents: 50000}, Priority: 1, CreatedAt: now.AddDate(0, -1, 0)},
		{ID: 2, Title: "Car", Target: core.Money{Cents: 800000}, Priority: 2, CreatedAt: now.AddDate(0, -2, 0)},
	}

	return services.Forecast{
		User:              storage.User{Name: "Amy"},
		GeneratedAt:       now,
		MonthlyIncome:     3000,
		MonthlyExpenses:   1140,
		MonthlySavingRate: 1860,
		CurrentSavings:    600,
		Expenses: []core.Expense{
			{Title: "rent", Category: "Housing", Amount: core.Money{Cents: 100000}, Frequency: core.Monthly, RecordedAt: now.AddDate(0, 0, -10)},
			{Title: "coffee, beans", Category: "Food", Amount: core.Money{Cents: 300}, Frequency: core.Daily, Description: "daily fix", RecordedAt: now.AddDate(0, 0, -3)},
		},
		Predictions: core.PredictGoals(now, 1860, 600, goals),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleForecast(t)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse generated CSV: %v", err)
	}

	// Section markers and headers in order.
	if records[0][0] != "Expenses" {
		t.Errorf("first row = %v, want Expenses marker", records[0])
	}
	if got := strings.Join(records[1], ","); got != "Title,Amount,Frequency,Description,Date" {
		t.Errorf("expense header = %q", got)
	}

	// Expense rows survive commas in titles.
	if records[3][0] != "coffee, beans" || records[3][3] != "daily fix" {
		t.Errorf("expense row = %v", records[3])
	}
	if records[2][1] != "1000.00" || records[2][2] != "monthly" {
		t.Errorf("expense row = %v", records[2])
	}

	var goalSection int
	for i, rec := range records {
		if len(rec) == 1 && rec[0] == "Goals" {
			goalSection = i
			break
		}
	}
	if goalSection == 0 {
		t.Fatal("no Goals section in CSV")
	}

	bikeRow := records[goalSection+2]
	if bikeRow[0] != "Bike" || bikeRow[1] != "500.00" {
		t.Errorf("goal row = %v", bikeRow)
	}
	if want := "You can afford 'Bike' now!"; bikeRow[3] != want {
		t.Errorf("goal status = %q, want %q", bikeRow[3], want)
	}

	carRow := records[goalSection+3]
	if !strings.HasPrefix(carRow[3], "You can afford 'Car' by ") {
		t.Errorf("goal status = %q, want predicted date message", carRow[3])
	}
}

func TestWriteCSV_Summary(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleForecast(t)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Monthly Income,3000.00",
		"Monthly Expenses,1140.00",
		"Monthly Savings,1860.00",
		"Current Savings,600.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("CSV missing summary line %q", want)
		}
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleForecast(t)); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with PDF magic, got %q", out[:min(8, len(out))])
	}
	if len(out) < 1000 {
		t.Errorf("PDF suspiciously small: %d bytes", len(out))
	}
}

func TestWritePDF_EmptyForecast(t *testing.T) {
	var buf bytes.Buffer
	fc := services.Forecast{User: storage.User{Name: "Empty"}}
	if err := WritePDF(&buf, fc); err != nil {
		t.Fatalf("WritePDF on empty forecast: %v", err)
	}
}
