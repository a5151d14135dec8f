package output

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTableFormatter_Books(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, sampleBooks()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}

	header := strings.Fields(lines[0])
	want := []string{"ID", "TITLE", "AUTHOR", "GENRE", "YEAR", "PRICE", "AVAILABLE"}
	if strings.Join(header, " ") != strings.Join(want, " ") {
		t.Errorf("header = %v, want %v", header, want)
	}
	if strings.Contains(buf.String(), "Spice") {
		t.Error("description should only appear in wide mode")
	}
	if !strings.Contains(lines[1], "9.50") || !strings.Contains(lines[1], "yes") {
		t.Errorf("row = %q, want fixed price and availability", lines[1])
	}
	if !strings.Contains(lines[2], "-") || !strings.Contains(lines[2], "no") {
		t.Errorf("row = %q, want placeholders for empty fields", lines[2])
	}
}

func TestTableFormatter_Wide(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, sampleBooks()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "DESCRIPTION") || !strings.Contains(buf.String(), "Spice and sand") {
		t.Errorf("wide output missing description:\n%s", buf.String())
	}
}

func TestTableFormatter_SingleRecord(t *testing.T) {
	var buf bytes.Buffer
	book := sampleBooks()[0]
	if err := (&TableFormatter{Wide: true}).Format(&buf, &book); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"FIELD", "id", "title", "Dune", "price", "9.50", "description"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, sampleBooks()[:0]); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := strings.TrimSpace(buf.String()); !strings.HasPrefix(got, "ID") || strings.Contains(got, "\n") {
		t.Errorf("empty list should render only the header, got %q", got)
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{NoHeaders: true}).Format(&buf, sampleBooks()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "TITLE") {
		t.Error("headers should be omitted")
	}
}

func TestTableFormatter_Map(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, map[string]string{"state": "Authenticated"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "KEY") || !strings.Contains(buf.String(), "Authenticated") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTableFormatter_Table(t *testing.T) {
	var tbl Table
	tbl.SetHeaders("NAME", "VALUE")
	tbl.AddRow("state", "Unauthenticated")

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, &tbl); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "NAME   VALUE\nstate  Unauthenticated\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestTableFormatter_ScalarFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCell(t *testing.T) {
	when := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	var nilPtr *string

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "Dune", "Dune"},
		{"empty string", "", "-"},
		{"int", 1965, "1965"},
		{"zero int", 0, "-"},
		{"float", 1.5, "1.50"},
		{"decimal", decimal.RequireFromString("12.345"), "12.35"},
		{"true", true, "yes"},
		{"false", false, "no"},
		{"time", when, "2025-06-01 09:30"},
		{"zero time", time.Time{}, "-"},
		{"slice", []int{1, 2}, "[2 items]"},
		{"empty slice", []int{}, "-"},
		{"nil pointer", nilPtr, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cell(reflect.ValueOf(tt.in)); got != tt.want {
				t.Errorf("cell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumnTitle(t *testing.T) {
	tests := map[string]string{
		"title":     "TITLE",
		"createdAt": "CREATED_AT",
		"ID":        "ID",
		"isbn13":    "ISBN13",
	}
	for in, want := range tests {
		if got := columnTitle(in); got != want {
			t.Errorf("columnTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
