package table

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/matzehuels/tagviewer/pkg/comment"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

// Column describes one table column as the display widget expects it.
type Column struct {
	Field      string `json:"field"`
	Title      string `json:"title"`
	Sortable   bool   `json:"sortable"`
	Searchable bool   `json:"searchable"`
	Switchable bool   `json:"switchable"`
	Visible    bool   `json:"visible"`
}

// NewColumn returns a visible, sortable, searchable column titled after its
// field.
func NewColumn(field string) Column {
	return Column{
		Field:      field,
		Title:      TitleCase(field),
		Sortable:   true,
		Searchable: true,
		Switchable: true,
		Visible:    true,
	}
}

// Table is a named list of rows keyed by column field.
type Table struct {
	Name    string              `json:"name"`
	Columns []Column            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Fields returns the column fields in order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Field
	}
	return out
}

// ColumnIndex returns the position of field, or -1.
func (t *Table) ColumnIndex(field string) int {
	for i, c := range t.Columns {
		if c.Field == field {
			return i
		}
	}
	return -1
}

// Cell returns the comment target for one cell. The reference is taken from
// the table data, so it does not depend on which columns are shown.
func (t *Table) Cell(row int, field string) (comment.Detail, error) {
	if row < 0 || row >= len(t.Rows) {
		return comment.Detail{}, tverrors.New(tverrors.ErrCodeNotFound, "table %s has no row %d", t.Name, row)
	}
	idx := t.ColumnIndex(field)
	if idx < 0 {
		return comment.Detail{}, tverrors.New(tverrors.ErrCodeNotFound, "table %s has no field %q", t.Name, field)
	}
	return comment.Detail{
		TableName: t.Name,
		RowIndex:  row,
		CellIndex: idx,
		Field:     field,
		Value:     t.Rows[row][field],
	}, nil
}

// FromCSV reads a table whose first record is the header. Empty records are
// skipped; short records leave the missing fields empty.
func FromCSV(name string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Name: name}, nil
	}
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeInvalidFormat, err, "read header of %s", name)
	}

	t := &Table{Name: name}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			return nil, tverrors.New(tverrors.ErrCodeInvalidFormat, "%s: column %d has no header", name, i+1)
		}
		if t.ColumnIndex(h) >= 0 {
			return nil, tverrors.New(tverrors.ErrCodeInvalidFormat, "%s: duplicate column %q", name, h)
		}
		t.Columns = append(t.Columns, NewColumn(h))
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, tverrors.Wrap(tverrors.ErrCodeInvalidFormat, err, "read %s", name)
		}
		if blank(rec) {
			continue
		}
		row := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(rec) {
				row[c.Field] = rec[i]
			} else {
				row[c.Field] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

var wordStart = regexp.MustCompile(`(^|\s)\w`)

// TitleCase turns a field name into a column title: underscores become
// spaces and the first letter of every word is upper-cased. Other letters
// keep their case.
func TitleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return wordStart.ReplaceAllStringFunc(s, func(m string) string {
		r := []rune(m)
		r[len(r)-1] = unicode.ToUpper(r[len(r)-1])
		return string(r)
	})
}
