package table

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

func exportSample(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromCSV("001", strings.NewReader("sentence,tag_type\n\"a, b\",declarative\nc,interrogative\n"))
	if err != nil {
		t.Fatalf("FromCSV() error: %v", err)
	}
	return tbl
}

func TestExportDelimited(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"csv", "Sentence,Tag Type\n\"a, b\",declarative\nc,interrogative\n"},
		{"txt", "Sentence\tTag Type\na, b\tdeclarative\nc\tinterrogative\n"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, exportSample(t), tt.typ); err != nil {
				t.Fatalf("Export() error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Export() =\n%q\nwant\n%q", buf.String(), tt.want)
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, exportSample(t), "json"); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(rows) != 2 || rows[1]["tag_type"] != "interrogative" {
		t.Errorf("rows = %v", rows)
	}

	buf.Reset()
	if err := Export(&buf, nil, "json"); err != nil {
		t.Fatalf("Export(nil) error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Export(nil) = %q, want []", buf.String())
	}
}

func TestExportExcel(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, exportSample(t), "excel"); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if strings.Join(rows[0], "|") != "Sentence|Tag Type" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "a, b" {
		t.Errorf("cell A2 = %q", rows[1][0])
	}
}

func TestExportUnsupported(t *testing.T) {
	err := Export(&bytes.Buffer{}, exportSample(t), "pdf")
	if !tverrors.Is(err, tverrors.ErrCodeUnsupported) {
		t.Errorf("Export(pdf) error = %v, want UNSUPPORTED", err)
	}
	if ExportTypeSupported("pdf") || !ExportTypeSupported("xlsx") {
		t.Error("ExportTypeSupported() mismatch")
	}
}

func TestExportFileName(t *testing.T) {
	opts := DefaultOptions()
	if got := ExportFileName(opts, "excel"); got != "result.xlsx" {
		t.Errorf("ExportFileName(excel) = %q", got)
	}
	opts = opts.Merge(Overrides{ExportName: "tags"})
	if got := ExportFileName(opts, "csv"); got != "tags.csv" {
		t.Errorf("ExportFileName(csv) = %q", got)
	}
}
