// Package backup appends snapshot summary rows to a Google Sheets
// spreadsheet. The backup worker drives it from snapshot-saved events;
// a lost row never affects the tracker.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsWriter appends one row per snapshot to a single backup sheet.
type SheetsWriter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates a writer using environment variables.
// Required: BACKUP_SPREADSHEET_ID.
// Optional: BACKUP_SHEET_NAME (default "Backup") and one of
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewFromEnv(ctx context.Context) (*SheetsWriter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("BACKUP_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing BACKUP_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("BACKUP_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Backup"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsWriter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
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
		return nil, errors.New("no service account credentials configured")
	}

	svc, err := gsheet.NewService(ctx, goption.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendSummary appends one backup row: timestamp, monthly total,
// annual total, combined obligation, all in RON.
func (w *SheetsWriter) AppendSummary(ctx context.Context, savedAt time.Time, monthlyRON, annualRON, obligationRON float64) error {
	if w.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:D", w.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		savedAt.UTC().Format(time.RFC3339),
		monthlyRON,
		annualRON,
		obligationRON,
	}}}

	_, err := w.svc.Spreadsheets.Values.Append(w.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append backup row to %s: %w", w.sheetName, err)
	}
	return nil
}
