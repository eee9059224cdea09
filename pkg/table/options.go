package table

import (
	"slices"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

// DefaultExportName is the base name of exported files.
const DefaultExportName = "result"

// ExportTypes lists the export formats the widget understands.
var ExportTypes = []string{"csv", "json", "txt", "excel", "xlsx", "xml", "sql", "doc", "pdf", "png"}

// Options are the widget display options sent with every table.
type Options struct {
	Search                  bool          `json:"search"`
	SearchHighlight         bool          `json:"searchHighlight"`
	ShowColumns             bool          `json:"showColumns"`
	StickyHeader            bool          `json:"stickyHeader"`
	StickyHeaderOffsetLeft  int           `json:"stickyHeaderOffsetLeft"`
	StickyHeaderOffsetRight int           `json:"stickyHeaderOffsetRight"`
	Resizable               bool          `json:"resizable"`
	Pagination              bool          `json:"pagination"`
	PageSize                int           `json:"pageSize,omitempty"`
	ShowToggle              bool          `json:"showToggle"`
	DetailView              bool          `json:"detailView"`
	ShowExport              bool          `json:"showExport"`
	ExportTypes             []string      `json:"exportTypes"`
	ExportOptions           ExportOptions `json:"exportOptions"`
}

// ExportOptions configures exported files.
type ExportOptions struct {
	FileName string `json:"fileName"`
}

// DefaultOptions returns the stock display options: no search box, search
// highlighting on, column picker, sticky resizable header, no pagination,
// export as csv, json, txt or excel.
func DefaultOptions() Options {
	return Options{
		SearchHighlight: true,
		ShowColumns:     true,
		StickyHeader:    true,
		Resizable:       true,
		ShowExport:      true,
		ExportTypes:     []string{"csv", "json", "txt", "excel"},
		ExportOptions:   ExportOptions{FileName: DefaultExportName},
	}
}

// Overrides changes selected options. Nil and empty fields keep the value
// they are merged into.
type Overrides struct {
	Search       *bool    `toml:"search" json:"search,omitempty"`
	Pagination   *bool    `toml:"pagination" json:"pagination,omitempty"`
	PageSize     int      `toml:"page_size" json:"pageSize,omitempty"`
	StickyHeader *bool    `toml:"sticky_header" json:"stickyHeader,omitempty"`
	ShowExport   *bool    `toml:"show_export" json:"showExport,omitempty"`
	ExportTypes  []string `toml:"export_types" json:"exportTypes,omitempty"`
	ExportName   string   `toml:"export_name" json:"exportName,omitempty"`
}

// Validate rejects unknown export types and negative page sizes.
func (ov Overrides) Validate() error {
	for _, t := range ov.ExportTypes {
		if !slices.Contains(ExportTypes, t) {
			return tverrors.New(tverrors.ErrCodeInvalidInput, "unknown export type %q", t)
		}
	}
	if ov.PageSize < 0 {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "page size cannot be negative")
	}
	return nil
}

// Merge returns o with ov applied on top.
func (o Options) Merge(ov Overrides) Options {
	if ov.Search != nil {
		o.Search = *ov.Search
	}
	if ov.Pagination != nil {
		o.Pagination = *ov.Pagination
	}
	if ov.PageSize > 0 {
		o.PageSize = ov.PageSize
	}
	if ov.StickyHeader != nil {
		o.StickyHeader = *ov.StickyHeader
	}
	if ov.ShowExport != nil {
		o.ShowExport = *ov.ShowExport
	}
	if len(ov.ExportTypes) > 0 {
		o.ExportTypes = slices.Clone(ov.ExportTypes)
	}
	if ov.ExportName != "" {
		o.ExportOptions.FileName = ov.ExportName
	}
	return o
}

// Descriptor is the document the display widget is initialised with.
type Descriptor struct {
	Name    string              `json:"tablename"`
	Columns []Column            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Options Options             `json:"options"`
	Meta    []MetaLine          `json:"meta,omitempty"`
}

// Descriptor combines t with the options. A nil table yields an empty
// descriptor rather than a null one.
func (o Options) Descriptor(t *Table) Descriptor {
	d := Descriptor{Options: o, Columns: []Column{}, Rows: []map[string]string{}}
	if t == nil {
		return d
	}
	d.Name = t.Name
	if t.Columns != nil {
		d.Columns = t.Columns
	}
	if t.Rows != nil {
		d.Rows = t.Rows
	}
	return d
}
