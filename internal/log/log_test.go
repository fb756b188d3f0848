package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	logger.Fields(context.Background(), slog.LevelInfo, "Expense created", NewFields().
		WithOperation(OpCreate).
		WithOwner("alice").
		WithExpense("e1", "seeds", 1050))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentLedger || rec[FieldOwnerID] != "alice" || rec[FieldExpenseID] != "e1" {
		t.Errorf("unexpected record %v", rec)
	}
	if rec[FieldAmountCents] != float64(1050) {
		t.Errorf("amount = %v", rec[FieldAmountCents])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if buf.Len() == 0 {
		t.Error("warn line not written")
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithOwner("").WithError(nil, ErrorTypeInternal)
	if len(f) != 0 {
		t.Errorf("empty owner and nil error should add nothing, got %v", f)
	}
	f = NewFields().WithError(errors.New("boom"), ErrorTypeDatabase).WithHTTPResponse(503, 12)
	if f[FieldErrorType] != ErrorTypeDatabase || f[FieldSuccess] != false {
		t.Errorf("unexpected fields %v", f)
	}
	kv := NewFields().WithComponent("b").WithOperation("a").ToSlice()
	if kv[0] != FieldComponent || kv[2] != FieldOperation {
		t.Errorf("ToSlice should sort keys, got %v", kv)
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()).Logger == nil {
		t.Fatal("expected default logger")
	}
	l := New(Config{Component: ComponentHTTP}).With(FieldRequestID, "req_1")
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Error("logger not carried by context")
	}
	if l.WithComponent(ComponentAuth).Component() != ComponentAuth {
		t.Error("WithComponent did not switch component")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "x": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
