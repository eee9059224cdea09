package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/tagviewer/pkg/cache"
	"github.com/matzehuels/tagviewer/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// A Runner keeps no per-run state; one Runner may serve many goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of cached artifacts.
	TTL time.Duration

	renders singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLArtifact,
	}
}

// Execute translates the input and renders every requested format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte, len(opts.Formats)),
		ETags:     make(map[string]string, len(opts.Formats)),
	}

	start := time.Now()
	dot, tr, err := Translate(ctx, opts)
	result.Translation = tr
	if tr != nil {
		result.Stats.Nodes = tr.Nodes
		result.Stats.Edges = tr.Edges
		result.Stats.Skipped = tr.Skipped()
		result.Stats.Warnings = tr.Warnings()
	}
	if err != nil {
		return result, err
	}
	result.DOT = dot
	result.DOTHash = cache.Hash([]byte(dot))
	result.Stats.TranslateTime = time.Since(start)

	if tr != nil {
		r.Logger.Info("translated relations",
			"nodes", tr.Nodes,
			"edges", tr.Edges,
			"skipped", tr.Skipped(),
			"warnings", tr.Warnings())
		for _, d := range tr.Diagnostics {
			r.Logger.Debug("diagnostic", "line", d.Line, "kind", d.Kind, "text", d.Text)
		}
	}

	start = time.Now()
	images, hits := 0, 0
	for _, format := range opts.Formats {
		if format != FormatDOT {
			images++
		}
		data, hit, err := r.RenderWithCacheInfo(ctx, dot, result.DOTHash, format, opts)
		if err != nil {
			return result, err
		}
		result.Artifacts[format] = data
		result.ETags[format] = etag(r.Keyer.ArtifactKey(result.DOTHash, opts.ArtifactKeyOpts(format)))
		if hit {
			hits++
			result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
		}
	}
	result.CacheInfo.RenderHit = images > 0 && hits == images
	result.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", len(result.CacheInfo.Hits),
		"duration", result.Stats.RenderTime)

	return result, nil
}

// RenderWithCacheInfo renders one format, consulting the cache first. The
// "dot" format is returned as is and never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, dot, dotHash, format string, opts Options) ([]byte, bool, error) {
	if format == FormatDOT {
		return []byte(dot), false, nil
	}
	if dotHash == "" {
		dotHash = cache.Hash([]byte(dot))
	}
	key := r.Keyer.ArtifactKey(dotHash, opts.ArtifactKeyOpts(format))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return data, true, nil
		} else if err != nil {
			r.Logger.Warn("cache read failed", "format", format, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Callers share one render; each stops waiting on its own context.
	rctx := context.WithoutCancel(ctx)
	ch := r.renders.DoChan(key, func() (any, error) {
		data, err := Render(rctx, dot, format, opts)
		if err != nil {
			return nil, err
		}
		if err := r.Cache.Set(rctx, key, data, r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			observability.Cache().OnCacheSet(rctx, "artifact", len(data))
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			r.Logger.Debug("shared in-flight render", "format", format)
		}
		return res.Val.([]byte), false, nil
	}
}

func etag(key string) string {
	return `"` + cache.Hash([]byte(key))[:32] + `"`
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
