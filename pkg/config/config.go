// Package config loads tagviewer's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/tagviewer/config.toml (falling back to
// ~/.config/tagviewer/config.toml) unless a path is given explicitly:
//
//	[server]
//	addr = ":8080"
//
//	[data]
//	dir = "data"
//	remote_url = "https://raw.githubusercontent.com/org/repo/master/data"
//
//	[comment]
//	endpoint = "https://tags.example.org/api/comment"
//	timeout = "15s"
//
//	[cache]
//	backend = "file"   # file, redis or none
//	ttl = "24h"
//
//	[table]
//	search = true
//	export_types = ["csv", "json"]
//	export_name = "tags"
//
// Missing keys take the values from [Default].
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/table"
)

const appName = "tagviewer"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full configuration.
type Config struct {
	Server  Server          `toml:"server"`
	Data    Data            `toml:"data"`
	Comment Comment         `toml:"comment"`
	Cache   Cache           `toml:"cache"`
	Table   table.Overrides `toml:"table"`
}

// Server configures `tagviewer serve`.
type Server struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
}

// Data locates the tag CSV files. RemoteURL wins over Dir when both are set.
type Data struct {
	Dir       string `toml:"dir"`
	RemoteURL string `toml:"remote_url"`
}

// Comment configures the comment endpoint.
type Comment struct {
	Endpoint string        `toml:"endpoint"`
	Timeout  time.Duration `toml:"timeout"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Data.Dir == "" && c.Data.RemoteURL == "" {
		c.Data.Dir = "data"
	}
	if c.Comment.Timeout == 0 {
		c.Comment.Timeout = 15 * time.Second
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = appName + ":"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "server.addr cannot be empty")
	}
	if c.Server.ShutdownTimeout < 0 || c.Comment.Timeout < 0 || c.Cache.TTL < 0 {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "durations cannot be negative")
	}
	if c.Data.RemoteURL != "" {
		if err := tverrors.ValidateURL(c.Data.RemoteURL); err != nil {
			return tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "data.remote_url")
		}
	}
	if c.Comment.Endpoint != "" {
		if err := tverrors.ValidateURL(c.Comment.Endpoint); err != nil {
			return tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "comment.endpoint")
		}
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return tverrors.New(tverrors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
	}
	if err := c.Table.Validate(); err != nil {
		return tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "table")
	}
	return nil
}

// TableOptions returns the widget options with the configured overrides.
func (c *Config) TableOptions() table.Options {
	return table.DefaultOptions().Merge(c.Table)
}

// DefaultPath returns the config file location following the XDG layout.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path, or the default location when path is empty.
// A missing default file yields the defaults; a missing explicit file is an
// error. Unknown keys are returned so the caller can warn about them.
func Load(path string) (*Config, []string, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil, nil
		}
		path = p
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, tverrors.Wrap(tverrors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, nil, tverrors.Wrap(tverrors.ErrCodeInternal, err, "open config")
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses TOML from r, applies defaults and validates the result.
func Decode(r io.Reader) (*Config, []string, error) {
	var c Config
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, nil, tverrors.Wrap(tverrors.ErrCodeInvalidFormat, err, "parse config")
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, unknown, err
	}
	return &c, unknown, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
