// Package comment submits reviewer comments about individual table cells.
//
// A comment targets one cell, identified by a [Detail] that is built from
// the table itself (see table.Table.Cell) rather than from where the cell
// happens to be drawn. A [Submission] bundles the detail with the comment
// text and an optional [Action] and is posted to the comment endpoint as a
// form:
//
//	tablename=<name>&action=<create|edit|delete>&comment=<text>&detail=<json>
//
// The endpoint answers with a [Response]. A response with success=false is
// returned together with a COMMENT_REJECTED error so callers can show the
// message and still branch on the failure.
package comment
