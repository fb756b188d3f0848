package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"farmledger/internal/core"
	ports "farmledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// valueInputOption stores cells as typed, so user text such as "=IMPORTXML(...)"
// is never evaluated as a formula.
const valueInputOption = "RAW"

var (
	expenseHeader = []any{"ID", "Owner", "Date", "Category", "Item", "Amount", "Description"}
	incomeHeader  = []any{"Owner", "Crop Sales", "Other Income"}
)

// Ensure interface conformance
var _ ports.LedgerMirror = (*Client)(nil)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	ExpensesSheet   string
	IncomeSheet     string
	CredentialsJSON string
	CredentialsFile string
}

// values is the slice of the Sheets values API the mirror uses.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Clear(ctx context.Context, rng string) error
}

// Client mirrors the ledger into two sheets: one row per expense keyed by
// id in column A, and one row per owner for income.
type Client struct {
	mu            sync.Mutex
	values        values
	expensesSheet string
	incomeSheet   string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg), nil
}

func newClient(v values, cfg Config) *Client {
	c := &Client{values: v, expensesSheet: cfg.ExpensesSheet, incomeSheet: cfg.IncomeSheet}
	if c.expensesSheet == "" {
		c.expensesSheet = "Expenses"
	}
	if c.incomeSheet == "" {
		c.incomeSheet = "Income"
	}
	return c
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file path; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

func (c *Client) UpsertExpense(ctx context.Context, e core.Expense) error {
	row := []any{e.ID, e.OwnerID, e.Date.String(), e.Category.Label(), e.Item, e.Amount.String(), e.Description}
	ref, err := c.upsert(ctx, c.expensesSheet, "G", expenseHeader, e.ID, row)
	if err != nil {
		return fmt.Errorf("mirror expense %s: %w", e.ID, err)
	}
	slog.InfoContext(ctx, "Mirrored expense", "expense_id", e.ID, "sheets_ref", ref)
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.values.Get(ctx, fmt.Sprintf("%s!A:A", c.expensesSheet))
	if err != nil {
		return fmt.Errorf("read %s ids: %w", c.expensesSheet, err)
	}
	idx := findRow(keys, id)
	if idx < 0 {
		slog.InfoContext(ctx, "Expense not mirrored, nothing to delete", "expense_id", id)
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:G%d", c.expensesSheet, idx+1, idx+1)
	if err := c.values.Clear(ctx, rng); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Removed mirrored expense", "expense_id", id, "sheets_ref", rng)
	return nil
}

func (c *Client) UpsertIncome(ctx context.Context, inc core.Income) error {
	row := []any{inc.OwnerID, inc.CropSales.String(), inc.OtherIncome.String()}
	if _, err := c.upsert(ctx, c.incomeSheet, "C", incomeHeader, inc.OwnerID, row); err != nil {
		return fmt.Errorf("mirror income of %s: %w", inc.OwnerID, err)
	}
	return nil
}

// upsert writes row over the row whose column A equals key, or into the
// first free row below the header.
func (c *Client) upsert(ctx context.Context, sheet, lastCol string, header []any, key string, row []any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.values.Get(ctx, fmt.Sprintf("%s!A:A", sheet))
	if err != nil {
		return "", fmt.Errorf("read %s keys: %w", sheet, err)
	}
	if len(keys) == 0 {
		hdr := fmt.Sprintf("%s!A1:%s1", sheet, lastCol)
		if err := c.values.Update(ctx, hdr, [][]any{header}); err != nil {
			return "", fmt.Errorf("write header %s: %w", hdr, err)
		}
		keys = [][]any{{header[0]}}
	}

	idx := findRow(keys, key)
	if idx < 0 {
		idx = freeRow(keys)
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, idx+1, lastCol, idx+1)
	if err := c.values.Update(ctx, rng, [][]any{row}); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

// findRow returns the zero-based index of the row keyed by key, skipping
// the header, or -1.
func findRow(rows [][]any, key string) int {
	for i := 1; i < len(rows); i++ {
		if cell(rows[i]) == key {
			return i
		}
	}
	return -1
}

// freeRow returns the first blank row below the header, or the row after
// the last one.
func freeRow(rows [][]any) int {
	for i := 1; i < len(rows); i++ {
		if cell(rows[i]) == "" {
			return i
		}
	}
	if len(rows) == 0 {
		return 1
	}
	return len(rows)
}

func cell(row []any) string {
	if len(row) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[0]))
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (v *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(v.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := v.svc.Spreadsheets.Values.Update(v.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	return err
}

func (v *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := v.svc.Spreadsheets.Values.Clear(v.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
