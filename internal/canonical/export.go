package canonical

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"filing-backend/internal/shared/telemetry"
)

type sheet struct {
	name string
	rows any
}

// ExportXLSX renders the profile as a workbook with one sheet per section.
func ExportXLSX(p Profile) ([]byte, error) {
	start := time.Now()
	p.normalize()
	sheets := []sheet{
		{"Personal", optional(p.PersonalInfo)},
		{"Spouse", optional(p.SpouseInfo)},
		{"Marriage", optional(p.MarriageInfo)},
		{"Court", optional(p.CourtInfo)},
		{"Income", p.Incomes},
		{"Expenses", p.Expenses},
		{"Children", p.Children},
		{"Employers", p.Employers},
		{"Assets", p.Assets},
		{"Debts", p.Debts},
	}

	f := excelize.NewFile()
	defer f.Close()
	const defaultSheet = "Sheet1"
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return nil, fmt.Errorf("xlsx sheet %s: %w", s.name, err)
		}
		writeSheet(f, s.name, s.rows)
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, fmt.Errorf("xlsx delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheets[0].name); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	telemetry.Info("canonical.export.xlsx.ok", map[string]any{
		"sheets":     len(sheets),
		"bytes":      buf.Len(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return buf.Bytes(), nil
}

// optional turns a nil singleton into an empty sheet and a set one into a one-row slice.
func optional(v any) any {
	rv := reflect.ValueOf(v)
	slice := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), 0, 1)
	if !rv.IsNil() {
		slice = reflect.Append(slice, rv.Elem())
	}
	return slice.Interface()
}

// writeSheet writes a header row from the json tags of the element type and
// one row per element. Nil pointers become blank cells.
func writeSheet(f *excelize.File, name string, rows any) {
	rv := reflect.ValueOf(rows)
	et := rv.Type().Elem()

	var cols []int
	col := 1
	for i := 0; i < et.NumField(); i++ {
		tag := strings.Split(et.Field(i).Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, i)
		cell, _ := excelize.CoordinatesToCellName(col, 1)
		_ = f.SetCellValue(name, cell, tag)
		col++
	}

	for r := 0; r < rv.Len(); r++ {
		item := rv.Index(r)
		for c, fieldIdx := range cols {
			v := item.Field(fieldIdx)
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					continue
				}
				v = v.Elem()
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(name, cell, v.Interface())
		}
	}
	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols))
		_ = f.SetColWidth(name, "A", last, 20)
	}
}
