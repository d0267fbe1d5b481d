// Package sheets exports booked transactions to a Google Sheets spreadsheet
// for reporting outside the tracker.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"carteira/internal/config"
	"carteira/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewExporter builds a Sheets client from service account credentials,
// inline JSON taking precedence over a credentials file.
func NewExporter(ctx context.Context, cfg *config.Config) (*Exporter, error) {
	if cfg.SheetsSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case cfg.GoogleCredentialsJSON != "":
		credentialsJSON = []byte(cfg.GoogleCredentialsJSON)
	case cfg.GoogleCredentialsFile != "":
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing Google credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SheetsSpreadsheetID,
		"sheet", cfg.SheetsSheetName)

	return &Exporter{
		svc:           svc,
		spreadsheetID: cfg.SheetsSpreadsheetID,
		sheetName:     cfg.SheetsSheetName,
	}, nil
}

// AppendTransaction writes one booked transaction as a row:
// date, title, direction, amount, category id, description.
func (e *Exporter) AppendTransaction(ctx context.Context, tx core.LedgerTransaction) error {
	return e.AppendTransactions(ctx, []core.LedgerTransaction{tx})
}

// AppendTransactions writes a batch of transactions in a single append
// call, one row each.
func (e *Exporter) AppendTransactions(ctx context.Context, txs []core.LedgerTransaction) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(txs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.Format("2006-01-02"),
			tx.Title,
			string(tx.Direction),
			tx.Amount.Format(),
			tx.CategoryID,
			tx.Description,
		})
	}

	rng := fmt.Sprintf("%s!A:F", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "Transactions exported to sheet",
		"rows", len(rows),
		"sheet", e.sheetName)

	return nil
}

// AppendRollup writes a month rollup summary row: month, total, paid,
// overdue, upcoming.
func (e *Exporter) AppendRollup(ctx context.Context, r core.Rollup) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		string(r.Month),
		r.Total.Amount.Format(),
		r.Paid.Amount.Format(),
		r.Overdue.Amount.Format(),
		r.Upcoming.Amount.Format(),
	}

	rng := fmt.Sprintf("%s!A:E", e.sheetName)
	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append rollup to sheet %s: %w", e.sheetName, err)
	}

	return nil
}
