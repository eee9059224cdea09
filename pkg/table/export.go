package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

// exportSheet is the worksheet name used for excel exports.
const exportSheet = "Sheet1"

// exportExt maps the export types that can be produced here to file
// extensions. The remaining widget types are browser-only.
var exportExt = map[string]string{
	"csv":   ".csv",
	"json":  ".json",
	"txt":   ".txt",
	"excel": ".xlsx",
	"xlsx":  ".xlsx",
}

// ExportFileName returns the file name for an export of type typ.
func ExportFileName(opts Options, typ string) string {
	name := opts.ExportOptions.FileName
	if name == "" {
		name = DefaultExportName
	}
	return name + exportExt[typ]
}

// Export writes t in the given export type. The header row carries column
// titles; cells are written as they were read.
func Export(w io.Writer, t *Table, typ string) error {
	if t == nil {
		t = &Table{}
	}
	switch typ {
	case "csv":
		return exportDelimited(w, t, ',')
	case "txt":
		return exportDelimited(w, t, '\t')
	case "json":
		return exportJSON(w, t)
	case "excel", "xlsx":
		return exportExcel(w, t)
	default:
		return tverrors.New(tverrors.ErrCodeUnsupported, "export type %q is not supported outside the browser", typ)
	}
}

// ExportTypeSupported reports whether Export can produce typ.
func ExportTypeSupported(typ string) bool {
	_, ok := exportExt[typ]
	return ok
}

func exportDelimited(w io.Writer, t *Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(titles(t)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(values(t, row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportJSON(w io.Writer, t *Table) error {
	rows := t.Rows
	if rows == nil {
		rows = []map[string]string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func exportExcel(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, titles(t)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, i+2, values(t, row)); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, n int, cells []string) error {
	start, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return f.SetSheetRow(exportSheet, start, &row)
}

func titles(t *Table) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Title
	}
	return out
}

func values(t *Table, row map[string]string) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = strings.TrimSpace(row[c.Field])
	}
	return out
}
