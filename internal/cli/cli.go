// Package cli implements the tagviewer command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tagviewer/pkg/buildinfo"
	"github.com/matzehuels/tagviewer/pkg/cache"
	"github.com/matzehuels/tagviewer/pkg/config"
	"github.com/matzehuels/tagviewer/pkg/pipeline"
	"github.com/matzehuels/tagviewer/pkg/table"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "tagviewer"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tagviewer renders dependency relations and browses tag tables",
		Long: `Tagviewer turns dependency relation lines into node-link diagrams and
serves annotated tag tables, with comments forwarded to a review endpoint.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tagviewer/config.toml)")

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.translateCommand())
	root.AddCommand(c.tagsCommand())
	root.AddCommand(c.commentCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration once per process. Unknown keys are logged.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, unknown, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	for _, key := range unknown {
		c.Logger.Warn("unknown config key", "key", key)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, c.newKeyer(cfg), c.Logger), nil
}

// newCache opens the configured backend. A file cache that cannot be
// located degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newKeyer scopes keys by the configured prefix so several deployments can
// share one Redis instance.
func (c *CLI) newKeyer(cfg *config.Config) cache.Keyer {
	if cfg.Cache.Backend == config.CacheRedis && cfg.Cache.Prefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// dataFlags overrides the configured data location.
type dataFlags struct {
	dir     string
	remote  string
	refresh bool
	noCache bool
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "data", "", "data directory with meta.csv and table_<id>.csv")
	cmd.Flags().StringVar(&f.remote, "remote", "", "base URL to read the data files from")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached remote files")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// newSource returns the tag data source. Remote files share the configured
// cache.
func (c *CLI) newSource(ctx context.Context, f dataFlags) (table.Source, cache.Cache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, remote := cfg.Data.Dir, cfg.Data.RemoteURL
	if f.dir != "" {
		dir, remote = f.dir, ""
	}
	if f.remote != "" {
		remote = f.remote
	}

	ch, err := c.newCache(ctx, cfg, f.noCache)
	if err != nil {
		return nil, nil, err
	}
	src, err := table.NewSource(dir, remote, ch, cfg.Cache.TTL)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	if rs, ok := src.(*table.RemoteSource); ok {
		rs.SetRefresh(f.refresh)
	}
	c.Logger.Debug("data source", "source", src.String())
	return src, ch, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/tagviewer/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
