// Package table loads tag tables from CSV and prepares them for display.
//
// A tag is published as two CSV files in a data directory:
//
//	table_<id>.csv   the tag's rows, first line is the header
//	meta_<id>.csv    free-form description lines
//
// and the directory's meta.csv lists every tag (first column is the id).
// A [Source] reads those files from a local directory ([DirSource]) or a
// remote base URL ([RemoteSource]); [LoadTag] fetches both files of a tag
// concurrently.
//
// A loaded [Table] is handed to the browser widget as a descriptor built by
// [Options.Descriptor], written as plain HTML by [WriteHTML], exported as a
// file by [Export], or turned into a comment target with [Table.Cell].
package table
