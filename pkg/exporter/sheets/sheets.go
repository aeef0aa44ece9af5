// Package sheets implements an Exporter that writes breakdowns to a
// Google Sheet with one tab per month.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/exporter/report"
)

// Exporter writes breakdown batches to Google Sheets, one tab per month.
type Exporter struct {
	client      *sheets.Service
	spreadsheet *sheets.Spreadsheet
	logger      *slog.Logger
}

// Config holds configuration for the Sheets exporter.
type Config struct {
	// SpreadsheetTitle is the title for a new spreadsheet (if
	// SpreadsheetID is empty).
	SpreadsheetTitle string
	// SpreadsheetID is the ID of an existing spreadsheet to use.
	SpreadsheetID string
}

// New creates a new Sheets exporter over an OAuth-authorized HTTP client.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := sheets.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	e := &Exporter{client: client, logger: logger}

	spreadsheet, err := e.initSpreadsheet(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}
	e.spreadsheet = spreadsheet

	logger.Info("sheets exporter initialized", "spreadsheet_id", spreadsheet.SpreadsheetId)
	return e, nil
}

func (e *Exporter) initSpreadsheet(ctx context.Context, cfg Config) (*sheets.Spreadsheet, error) {
	if cfg.SpreadsheetID != "" {
		spreadsheet, err := e.client.Spreadsheets.Get(cfg.SpreadsheetID).Context(ctx).Do()
		if err == nil {
			e.logger.Info("using existing spreadsheet",
				"title", spreadsheet.Properties.Title,
				"id", cfg.SpreadsheetID,
			)
			return spreadsheet, nil
		}
		e.logger.Warn("failed to get spreadsheet, will create new one", "id", cfg.SpreadsheetID, "error", err)
	}

	title := cfg.SpreadsheetTitle
	if title == "" {
		title = "Order Breakdowns"
	}
	spreadsheet, err := e.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	e.logger.Info("created new spreadsheet", "title", title, "id", spreadsheet.SpreadsheetId)
	return spreadsheet, nil
}

// Export collects the full batch, groups it by month and writes one tab
// per month. The batch is needed up front both for the monthly grouping
// and for the per-label pivot columns.
func (e *Exporter) Export(ctx context.Context, in <-chan *api.Breakdown) error {
	var breakdowns []*api.Breakdown
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-in:
			if !ok {
				return e.writeAll(ctx, breakdowns)
			}
			breakdowns = append(breakdowns, b)
		}
	}
}

func (e *Exporter) writeAll(ctx context.Context, breakdowns []*api.Breakdown) error {
	if len(breakdowns) == 0 {
		e.logger.Info("no breakdowns to export, skipping sheets write")
		return nil
	}

	groups, months := report.ByMonth(breakdowns)
	for _, month := range months {
		if err := e.writeMonth(ctx, month, groups[month]); err != nil {
			return fmt.Errorf("writing month %s: %w", month, err)
		}
	}

	e.logger.Info("sheets export complete",
		"spreadsheet_id", e.spreadsheet.SpreadsheetId,
		"months", len(months),
		"orders", len(breakdowns),
	)
	return nil
}

func (e *Exporter) writeMonth(ctx context.Context, month string, breakdowns []*api.Breakdown) error {
	if err := e.ensureSheet(ctx, month); err != nil {
		return err
	}

	table := report.Build(breakdowns)

	values := make([][]any, 0, len(table.Rows)+2)
	values = append(values, toAnyRow(table.Header))
	for _, row := range table.Rows {
		values = append(values, toAnyRow(row))
	}
	values = append(values, toAnyRow(table.Totals))

	writeRange := fmt.Sprintf("'%s'!A1", month)
	req := sheets.ValueRange{Values: values}

	err := retry.Do(
		func() error {
			_, err := e.client.Spreadsheets.Values.Update(e.spreadsheet.SpreadsheetId, writeRange, &req).
				ValueInputOption("USER_ENTERED").
				Context(ctx).
				Do()
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				e.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(3),
		retry.Delay(60*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("updating sheet values: %w", err)
	}

	e.logger.Debug("wrote month tab", "month", month, "rows", len(values))
	return nil
}

// ensureSheet adds a tab named after the month unless it already exists.
func (e *Exporter) ensureSheet(ctx context.Context, name string) error {
	for _, sheet := range e.spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	resp, err := e.client.Spreadsheets.BatchUpdate(e.spreadsheet.SpreadsheetId, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding sheet %q: %w", name, err)
	}

	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			e.spreadsheet.Sheets = append(e.spreadsheet.Sheets, &sheets.Sheet{
				Properties: r.AddSheet.Properties,
			})
		}
	}
	return nil
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (e *Exporter) SpreadsheetID() string {
	if e.spreadsheet == nil {
		return ""
	}
	return e.spreadsheet.SpreadsheetId
}

func toAnyRow(row []string) []any {
	out := make([]any, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
