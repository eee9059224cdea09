package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tagviewer/pkg/table"
)

// defaultPreviewRows is the number of rows printed by "tags show".
const defaultPreviewRows = 20

// tagsCommand groups the tag table commands.
func (c *CLI) tagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Browse the tag tables",
	}

	cmd.AddCommand(c.tagsListCommand())
	cmd.AddCommand(c.tagsShowCommand())
	cmd.AddCommand(c.tagsCompareCommand())
	cmd.AddCommand(c.tagsPickCommand())
	cmd.AddCommand(c.tagsExportCommand())

	return cmd
}

func (c *CLI) tagsListCommand() *cobra.Command {
	var (
		data   dataFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tags of the index file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, ch, err := c.newSource(ctx, data)
			if err != nil {
				return err
			}
			defer ch.Close()

			index, err := table.ListTags(ctx, src)
			if err != nil {
				return err
			}
			if asJSON {
				return c.writeDescriptor(cmd.OutOrStdout(), index, nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(index, 0))
			printDetail("%d tags in %s", len(index.Rows), src)
			return nil
		},
	}
	data.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the widget descriptor as JSON")
	return cmd
}

func (c *CLI) tagsShowCommand() *cobra.Command {
	var (
		data   dataFlags
		asJSON bool
		asHTML bool
		rows   int
	)
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one tag's description and table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && asHTML {
				return fmt.Errorf("--json and --html are mutually exclusive")
			}
			ctx := cmd.Context()
			tag, err := c.loadTag(ctx, data, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return c.writeDescriptor(out, tag.Table, tag.Meta)
			case asHTML:
				return writeTagHTML(out, tag)
			default:
				printTag(out, tag, rows)
				return nil
			}
		},
	}
	data.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the widget descriptor as JSON")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the description and table as HTML")
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultPreviewRows, "rows to preview (0 for all)")
	return cmd
}

func (c *CLI) tagsCompareCommand() *cobra.Command {
	var (
		data   dataFlags
		asJSON bool
		rows   int
	)
	cmd := &cobra.Command{
		Use:   "compare <id>...",
		Short: fmt.Sprintf("Show up to %d tags one after another", table.MaxCompare),
		Args:  cobra.RangeArgs(1, table.MaxCompare),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tags, err := c.loadTags(ctx, data, args)
			if err != nil {
				return err
			}
			return c.printTags(cmd.OutOrStdout(), tags, asJSON, rows)
		},
	}
	data.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the widget descriptors as JSON")
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultPreviewRows, "rows to preview per tag (0 for all)")
	return cmd
}

func (c *CLI) tagsPickCommand() *cobra.Command {
	var (
		data dataFlags
		rows int
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick tags interactively and show them",
		Long: fmt.Sprintf(`Pick tags interactively and show them.

Space marks up to %d tags for comparison, enter shows the marked tags (or the
one under the cursor).`, table.MaxCompare),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, ch, err := c.newSource(ctx, data)
			if err != nil {
				return err
			}
			defer ch.Close()

			index, err := table.ListTags(ctx, src)
			if err != nil {
				return err
			}
			if len(table.TagIDs(index)) == 0 {
				printWarning("No tags in %s", src)
				return nil
			}

			final, err := tea.NewProgram(NewTagListModel(index), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			m := final.(TagListModel)
			if len(m.Selected) == 0 {
				return nil
			}

			tags, err := table.LoadTags(ctx, src, m.Selected)
			if err != nil {
				return err
			}
			return c.printTags(cmd.OutOrStdout(), tags, false, rows)
		},
	}
	data.register(cmd)
	cmd.Flags().IntVarP(&rows, "rows", "n", defaultPreviewRows, "rows to preview per tag (0 for all)")
	return cmd
}

func (c *CLI) tagsExportCommand() *cobra.Command {
	var (
		data   dataFlags
		typ    string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a tag table as csv, json, txt or excel",
		Long: `Export a tag table as csv, json, txt or excel.

Without -o the file is named after the configured export name (table.export_name)
in the current directory; "-o -" writes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !table.ExportTypeSupported(typ) {
				return fmt.Errorf("unsupported export type %q (want csv, json, txt or excel)", typ)
			}
			tag, err := c.loadTag(cmd.Context(), data, args[0])
			if err != nil {
				return err
			}

			if output == "-" {
				return table.Export(cmd.OutOrStdout(), tag.Table, typ)
			}
			if output == "" {
				output = table.ExportFileName(c.tableOptions(), typ)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := table.Export(f, tag.Table, typ); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess("Exported %d rows", len(tag.Table.Rows))
			printFile(output)
			return nil
		},
	}
	data.register(cmd)
	cmd.Flags().StringVarP(&typ, "type", "t", "csv", "export type: csv, json, txt, excel")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (- for stdout)")
	return cmd
}

// =============================================================================
// Loading
// =============================================================================

func (c *CLI) loadTag(ctx context.Context, data dataFlags, id string) (*table.Tag, error) {
	tags, err := c.loadTags(ctx, data, []string{id})
	if err != nil {
		return nil, err
	}
	return tags[0], nil
}

func (c *CLI) loadTags(ctx context.Context, data dataFlags, ids []string) ([]*table.Tag, error) {
	src, ch, err := c.newSource(ctx, data)
	if err != nil {
		return nil, err
	}
	defer ch.Close()

	prog := newProgress(c.Logger)
	tags, err := table.LoadTags(ctx, src, ids)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d tag(s) from %s", len(tags), src))
	return tags, nil
}

// =============================================================================
// Output
// =============================================================================

func (c *CLI) tableOptions() table.Options {
	cfg, err := c.loadConfig()
	if err != nil {
		return table.DefaultOptions()
	}
	return cfg.TableOptions()
}

func (c *CLI) writeDescriptor(w io.Writer, t, meta *table.Table) error {
	d := c.tableOptions().Descriptor(t)
	d.Meta = table.MetaLines(meta)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func (c *CLI) printTags(w io.Writer, tags []*table.Tag, asJSON bool, rows int) error {
	if asJSON {
		out := make([]table.Descriptor, len(tags))
		for i, t := range tags {
			out[i] = t.Descriptor(c.tableOptions())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"tags": out})
	}
	for i, t := range tags {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printTag(w, t, rows)
	}
	return nil
}

func writeTagHTML(w io.Writer, tag *table.Tag) error {
	if err := table.WriteMetaHTML(w, table.MetaLines(tag.Meta)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if err := table.WriteHTML(w, tag.Table); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// printTag prints the description lines, then the table preview.
func printTag(w io.Writer, tag *table.Tag, rows int) {
	fmt.Fprintln(w, StyleTitle.Render("Tag "+tag.ID))
	for _, line := range table.MetaLines(tag.Meta) {
		text := styleMetaHead.Render(line.Head)
		if line.Text != "" {
			text += " " + line.Text
		}
		fmt.Fprintln(w, text)
	}
	fmt.Fprintln(w, renderTable(tag.Table, rows))
	if rows > 0 && len(tag.Table.Rows) > rows {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d of %d rows", rows, len(tag.Table.Rows))))
	}
}

// renderTable draws t with rounded borders. A positive limit truncates the
// rows; the first column is the row index so comment targets can be read off.
func renderTable(t *table.Table, limit int) string {
	headers := append([]string{"#"}, columnTitles(t)...)
	n := len(t.Rows)
	if limit > 0 && n > limit {
		n = limit
	}

	rows := make([][]string, n)
	for i := range n {
		row := make([]string, 0, len(headers))
		row = append(row, fmt.Sprint(i))
		for _, f := range t.Fields() {
			row = append(row, t.Rows[i][f])
		}
		rows[i] = row
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	indexStyle := cellStyle.Foreground(colorDim)

	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return indexStyle
			default:
				return cellStyle
			}
		}).
		Render()
}

func columnTitles(t *table.Table) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Title
	}
	return out
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
