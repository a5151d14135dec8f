package output

import (
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// TableFormatter renders records as aligned columns. A slice becomes one
// row per element, a single struct or map becomes field/value rows, and
// anything else falls back to JSON.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	var tbl *Table
	switch d := data.(type) {
	case *Table:
		tbl = d
	case Table:
		tbl = &d
	default:
		var ok bool
		if tbl, ok = buildTable(reflect.ValueOf(data), f.Wide); !ok {
			return (&JSONFormatter{}).Format(w, data)
		}
	}
	return tbl.write(w, !f.NoHeaders)
}

// Table is a header row plus string cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// SetHeaders replaces the header row.
func (t *Table) SetHeaders(headers ...string) { t.Headers = headers }

// AddRow appends one row.
func (t *Table) AddRow(cells ...string) { t.Rows = append(t.Rows, cells) }

// Render writes the table with its header row.
func (t *Table) Render(w io.Writer) error { return t.write(w, true) }

func (t *Table) write(w io.Writer, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// field is one displayable struct field.
type field struct {
	index int
	name  string
}

// visibleFields honours `table:"-"` (never shown) and `table:"wide"`
// (shown with -w only). Names come from the json tag.
func visibleFields(t reflect.Type, wide bool) []field {
	var out []field
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		switch sf.Tag.Get("table") {
		case "-":
			continue
		case "wide":
			if !wide {
				continue
			}
		}
		name := sf.Name
		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = tag
		}
		out = append(out, field{index: i, name: strings.TrimLeft(name, "_")})
	}
	return out
}

func isRecord(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && t != decimalType
}

func buildTable(v reflect.Value, wide bool) (*Table, bool) {
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	tbl := &Table{}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elem := v.Type().Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if !isRecord(elem) {
			tbl.SetHeaders("VALUE")
			for i := range v.Len() {
				tbl.AddRow(cell(v.Index(i)))
			}
			return tbl, true
		}

		fields := visibleFields(elem, wide)
		for _, f := range fields {
			tbl.Headers = append(tbl.Headers, columnTitle(f.name))
		}
		for i := range v.Len() {
			rec := reflect.Indirect(v.Index(i))
			if !rec.IsValid() {
				continue
			}
			row := make([]string, len(fields))
			for j, f := range fields {
				row[j] = cell(rec.Field(f.index))
			}
			tbl.AddRow(row...)
		}
		return tbl, true

	case reflect.Map:
		tbl.SetHeaders("KEY", "VALUE")
		iter := v.MapRange()
		for iter.Next() {
			tbl.AddRow(cell(iter.Key()), cell(iter.Value()))
		}
		return tbl, true

	case reflect.Struct:
		tbl.SetHeaders("FIELD", "VALUE")
		for _, f := range visibleFields(v.Type(), wide) {
			tbl.AddRow(f.name, cell(v.Field(f.index)))
		}
		return tbl, true
	}
	return nil, false
}

// cell renders one value. Empty strings, zero ints and zero times show
// as "-" so columns stay aligned; prices keep two decimals.
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if k := v.Kind(); k == reflect.Interface || k == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Type() {
	case timeType:
		if t := v.Interface().(time.Time); !t.IsZero() {
			return t.Format("2006-01-02 15:04")
		}
		return "-"
	case decimalType:
		return v.Interface().(decimal.Decimal).StringFixed(2)
	}

	switch v.Kind() {
	case reflect.String:
		return orDash(v.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() == 0 {
			return "-"
		}
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Bool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	}
	return fmt.Sprint(v.Interface())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// columnTitle turns a field name into a header: createdAt is CREATED_AT.
func columnTitle(name string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range name {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
		prev = r
	}
	return b.String()
}
