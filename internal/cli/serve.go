package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tagviewer/internal/server"
	"github.com/matzehuels/tagviewer/pkg/comment"
	"github.com/matzehuels/tagviewer/pkg/pipeline"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		data dataFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph and tag table API over HTTP",
		Long: `Serve the graph and tag table API over HTTP.

Routes:
  POST /api/graph            render relation lines (or DOT) as svg, png, pdf or dot
  POST /api/graph/translate  DOT description and diagnostics as JSON
  GET  /api/tags             the tag index
  GET  /api/tags/{id}        one tag's table descriptor
  GET  /api/tags/{id}/export one tag's table as csv, json, txt or excel
  GET  /api/compare?ids=a,b  up to four tag descriptors
  POST /api/comment          forward a comment to the configured endpoint
  GET  /tags/{id}            one tag as an HTML fragment
  GET  /healthz              liveness

The server shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), data, addr)
		},
	}

	data.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, data dataFlags, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	src, ch, err := c.newSource(ctx, data)
	if err != nil {
		return err
	}
	defer ch.Close()

	var comments *comment.Client
	if cfg.Comment.Endpoint != "" {
		comments, err = comment.NewClient(cfg.Comment.Endpoint, cfg.Comment.Timeout, c.Logger)
		if err != nil {
			return err
		}
	} else {
		c.Logger.Warn("comment.endpoint not set, POST /api/comment is disabled")
	}

	keyer := c.newKeyer(cfg)
	srv := server.New(server.Options{
		Addr:            addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		Runner:          pipeline.NewRunner(ch, keyer, c.Logger),
		Source:          src,
		TableOptions:    cfg.TableOptions(),
		Comments:        comments,
		Cache:           ch,
		Keyer:           keyer,
		CacheTTL:        cfg.Cache.TTL,
		Logger:          c.Logger,
	})

	printInfo("Serving %s on %s", StyleHighlight.Render(src.String()), StyleLink.Render("http://"+addr))
	return srv.Run(ctx)
}
