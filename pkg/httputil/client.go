package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/tagviewer/pkg/cache"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/observability"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps response bodies read into memory.
const maxBodySize = 32 << 20

// Client performs HTTP requests with retry, default headers and optional
// response caching.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client. A nil cache disables caching. Headers are
// applied to every request; pass nil if none are needed.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     ttl,
		headers: headers,
	}
}

// SetHTTPClient replaces the underlying *http.Client.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Fetch GETs rawURL and returns the body. Successful responses are cached;
// refresh bypasses the cache read.
func (c *Client) Fetch(ctx context.Context, rawURL string, refresh bool) ([]byte, error) {
	key := c.keyer.HTTPKey("get", rawURL)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, "http")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}

	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, rawURL, nil, nil)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(io.LimitReader(body, maxBodySize))
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
	}
	return data, nil
}

// PostForm POSTs form as application/x-www-form-urlencoded and decodes the
// JSON response into v. Extra headers override the client defaults.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string, v any) error {
	encoded := form.Encode()
	hdr := map[string]string{"Content-Type": "application/x-www-form-urlencoded", "Accept": "application/json"}
	for k, val := range headers {
		hdr[k] = val
	}

	return RetryWithBackoff(ctx, func() error {
		body, err := c.do(ctx, http.MethodPost, rawURL, strings.NewReader(encoded), hdr)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(io.LimitReader(body, maxBodySize)).Decode(v); err != nil {
			return tverrors.Wrap(tverrors.ErrCodeNetwork, err, "decode response from %s", rawURL)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, tverrors.Wrap(tverrors.ErrCodeInvalidInput, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, tverrors.Wrap(tverrors.ErrCodeTimeout, err, "%s %s", method, rawURL)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(tverrors.Wrap(tverrors.ErrCodeNetwork, err, "%s %s", method, rawURL))
	}
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return tverrors.New(tverrors.ErrCodeNotFound, "not found: %s", rawURL)
	case code >= 500:
		return Retryable(tverrors.New(tverrors.ErrCodeNetwork, "status %d from %s", code, rawURL))
	default:
		return tverrors.New(tverrors.ErrCodeNetwork, "status %d from %s", code, rawURL)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
