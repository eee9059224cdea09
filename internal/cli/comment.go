package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tagviewer/pkg/comment"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

// commentCommand posts a comment on one table cell.
func (c *CLI) commentCommand() *cobra.Command {
	var (
		data     dataFlags
		endpoint string
		action   string
		message  string
		row      int
		field    string
		extra    string
	)

	cmd := &cobra.Command{
		Use:   "comment <tag-id>",
		Short: "Comment on a table cell",
		Long: fmt.Sprintf(`Comment on a table cell.

The cell is looked up in the tag's table, so the row index and field must
exist. The comment is posted to the configured endpoint together with the
cell's current value. Actions (optional): %s.`, strings.Join(actionNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			act, err := comment.ParseAction(action)
			if err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = cfg.Comment.Endpoint
			}
			if endpoint == "" {
				return tverrors.New(tverrors.ErrCodeInvalidInput, "no comment endpoint: set comment.endpoint or pass --endpoint")
			}
			client, err := comment.NewClient(endpoint, cfg.Comment.Timeout, c.Logger)
			if err != nil {
				return err
			}

			tag, err := c.loadTag(ctx, data, args[0])
			if err != nil {
				return err
			}
			detail, err := tag.Table.Cell(row, field)
			if err != nil {
				return err
			}
			detail.Extra = extra

			sub := comment.Submission{TableName: tag.ID, Action: act, Comment: message, Detail: detail}
			if err := sub.Validate(); err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, "Posting comment...")
			spinner.Start()
			resp, err := client.Post(ctx, sub)
			if err != nil {
				spinner.StopWithError("Comment not accepted")
				if resp != nil && resp.Message != "" {
					printDetail("%s", resp.Message)
				}
				return err
			}
			spinner.Stop()

			printSuccess("%s", responseMessage(resp))
			printKeyValue("Table", tag.ID)
			printKeyValue("Cell", fmt.Sprintf("row %d, %s", detail.RowIndex, detail.Field))
			printKeyValue("Value", detail.Value)
			return nil
		},
	}

	data.register(cmd)
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "comment endpoint URL (default: comment.endpoint from the config)")
	cmd.Flags().StringVarP(&action, "action", "a", string(comment.ActionNone), "suggested action: "+strings.Join(actionNames(), ", "))
	cmd.Flags().StringVarP(&message, "message", "m", "", "comment text")
	cmd.Flags().IntVarP(&row, "row", "r", 0, "row index (as shown by 'tags show')")
	cmd.Flags().StringVarP(&field, "field", "f", "", "column field of the cell")
	cmd.Flags().StringVar(&extra, "extra", "", "free-form context sent with the cell")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func actionNames() []string {
	names := make([]string, len(comment.Actions))
	for i, a := range comment.Actions {
		names[i] = string(a)
	}
	return names
}

func responseMessage(r *comment.Response) string {
	if r == nil || r.Message == "" {
		return "Comment posted"
	}
	return r.Message
}
