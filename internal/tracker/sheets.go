package tracker

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/pkg/logger"
)

// SheetColumns defines the column headers of the flow tracking sheet
var SheetColumns = []string{
	"Session ID",
	"Recorded At",
	"Protocol Title",
	"Valid",
	"Phases",
	"Bonuses",
	"Guarantees",
	"Complexity",
	"Recommended Event",
	"Main Strategy",
	"Generation Status",
	"Error",
}

// lastColumn is the column letter of the last header
const lastColumn = "L"

// SheetsTracker appends CPL flow summaries to a Google Sheet
type SheetsTracker struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetsTracker creates a tracker. It returns nil when the tracker is disabled
// Client options replace the configured credentials
func NewSheetsTracker(ctx context.Context, cfg config.TrackerConfig, log *logger.Logger, opts ...option.ClientOption) (*SheetsTracker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("tracker.spreadsheet_id is required when the tracker is enabled")
	}

	if len(opts) == 0 {
		auth, err := credentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, auth)
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "CPL"
	}

	return &SheetsTracker{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		log:           log.WithComponent("sheets-tracker"),
	}, nil
}

// credentials builds a token source from the service account JSON or the credentials file
func credentials(ctx context.Context, cfg config.TrackerConfig) (option.ClientOption, error) {
	data := []byte(cfg.ServiceAccountJSON)
	if len(data) == 0 {
		if cfg.CredentialsFile == "" {
			return nil, fmt.Errorf("no Google credentials provided: set credentials_file or service_account_json")
		}
		var err error
		data, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials: %w", err)
	}
	return option.WithTokenSource(creds.TokenSource), nil
}

// InitializeSheet creates the sheet and its header row when missing
func (t *SheetsTracker) InitializeSheet(ctx context.Context) error {
	if err := t.ensureSheetExists(ctx); err != nil {
		return err
	}

	readRange := fmt.Sprintf("%s!A1:%s1", t.sheetName, lastColumn)
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	if len(resp.Values) == 0 {
		t.log.Info().Msg("Initializing sheet with headers")
		return t.writeHeaders(ctx)
	}
	return nil
}

func (t *SheetsTracker) ensureSheetExists(ctx context.Context) error {
	spreadsheet, err := t.service.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == t.sheetName {
			return nil
		}
	}

	t.log.Info().Str("sheet", t.sheetName).Msg("Creating new sheet")
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: t.sheetName,
					},
				},
			},
		},
	}

	if _, err := t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	return nil
}

func (t *SheetsTracker) writeHeaders(ctx context.Context) error {
	headerRow := make([]interface{}, 0, len(SheetColumns))
	for _, col := range SheetColumns {
		headerRow = append(headerRow, col)
	}

	writeRange := fmt.Sprintf("%s!A1", t.sheetName)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{headerRow},
	}

	_, err := t.service.Spreadsheets.Values.Update(t.spreadsheetID, writeRange, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	return nil
}

// AppendFlow appends one row summarizing a CPL flow result
func (t *SheetsTracker) AppendFlow(ctx context.Context, result *models.FlowResult) error {
	appendRange := fmt.Sprintf("%s!A:%s", t.sheetName, lastColumn)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{flowRow(result)},
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, appendRange, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	t.log.Debug().Str("session_id", result.Validation.SessionID).Msg("Flow summary tracked")
	return nil
}

func flowRow(result *models.FlowResult) []interface{} {
	summary := result.Summary
	errMsg := result.Validation.Error
	if errMsg == "" {
		errMsg = summary.Error
	}
	status := result.Metadata.GenerationStatus
	if status == "" {
		status = result.Metadata.Status
	}

	return []interface{}{
		result.Validation.SessionID,
		formatTime(result.Validation.Timestamp),
		summary.ProtocolTitle,
		result.Validation.IsValid,
		summary.TotalPhases,
		summary.TotalBonuses,
		summary.TotalGuarantees,
		summary.ComplexityLevel,
		summary.RecommendedEvent,
		summary.MainStrategy,
		status,
		errMsg,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
