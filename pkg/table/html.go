package table

import (
	"html/template"
	"io"
	"strings"
)

var tableTmpl = template.Must(template.New("table").Parse(
	`<table class="table table-hover" data-tablename="{{.Name}}">` +
		`<thead><tr>{{range .Columns}}<th data-field="{{.Field}}">{{.Title}}</th>{{end}}</tr></thead>` +
		`<tbody>{{range $i, $row := .Rows}}<tr data-index="{{$i}}">` +
		`{{range $.Columns}}<td data-row="{{$i}}" data-field="{{.Field}}">{{index $row .Field}}</td>{{end}}` +
		`</tr>{{end}}</tbody></table>`))

var metaTmpl = template.Must(template.New("meta").Parse(
	`{{range .}}<b>{{.Head}}</b>{{if .Text}} {{.Text}}{{end}}<br>{{end}}`))

// WriteHTML writes t as an HTML table. Every cell carries its row index and
// field so that comment targets can be resolved from the markup.
func WriteHTML(w io.Writer, t *Table) error {
	if t == nil {
		t = &Table{}
	}
	return tableTmpl.Execute(w, t)
}

// MetaLine is one description line: an emphasized head followed by text.
type MetaLine struct {
	Head string `json:"head"`
	Text string `json:"text"`
}

// MetaLines turns a meta table into description lines. The first column of
// each row becomes the head; the remaining non-empty values form the text.
func MetaLines(t *Table) []MetaLine {
	if t == nil || len(t.Columns) == 0 {
		return nil
	}
	lines := make([]MetaLine, 0, len(t.Rows))
	for _, row := range t.Rows {
		var rest []string
		for _, c := range t.Columns[1:] {
			if v := strings.TrimSpace(row[c.Field]); v != "" {
				rest = append(rest, v)
			}
		}
		lines = append(lines, MetaLine{
			Head: row[t.Columns[0].Field],
			Text: strings.Join(rest, " "),
		})
	}
	return lines
}

// WriteMetaHTML writes meta lines separated by <br>.
func WriteMetaHTML(w io.Writer, lines []MetaLine) error {
	return metaTmpl.Execute(w, lines)
}
