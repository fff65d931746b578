// Package sheet appends finished forecast summaries to a Google
// Sheet. The sink is optional: when no spreadsheet is configured the
// worker simply skips it.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finplan/internal/services"
)

// ForecastSink receives a forecast after a report job completes.
type ForecastSink interface {
	AppendForecast(ctx context.Context, fc services.Forecast) error
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ForecastSink = (*Client)(nil)

// New creates a Sheets client with service account credentials read
// from the environment (GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS).
// The target sheet name is prefixed with the current year unless it
// already carries one.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Forecasts"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     yearPrefixedName(sheetName, time.Now().Year()),
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendForecast writes one summary row per forecast: timestamp, user,
// the monthly aggregates, and the status line of each goal.
func (c *Client) AppendForecast(ctx context.Context, fc services.Forecast) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	statuses := make([]string, 0, len(fc.Predictions))
	for _, p := range fc.Predictions {
		statuses = append(statuses, p.Message())
	}

	row := []any{
		fc.GeneratedAt.Format(time.RFC3339),
		fc.User.Email,
		fc.MonthlyIncome,
		fc.MonthlyExpenses,
		fc.MonthlySavingRate,
		fc.CurrentSavings,
		strings.Join(statuses, " | "),
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append forecast row to %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Appended forecast row to sheet",
		"sheet", c.sheetName,
		"user_id", fc.User.ID)
	return nil
}

// yearPrefixedName prefixes the current year unless the name already
// starts with a plausible one ("2025 Forecasts" stays as is).
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
