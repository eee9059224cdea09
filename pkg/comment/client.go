package comment

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/tagviewer/pkg/buildinfo"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
	"github.com/matzehuels/tagviewer/pkg/httputil"
)

// RequestIDHeader carries the per-submission id. Retries of the same
// submission reuse it so the endpoint can drop duplicates.
const RequestIDHeader = "X-Request-ID"

// Client posts submissions to a comment endpoint.
type Client struct {
	endpoint string
	http     *httputil.Client
	logger   *log.Logger
	newID    func() string
}

// NewClient returns a Client for endpoint. A zero timeout uses
// [httputil.DefaultTimeout]; a nil logger discards output.
func NewClient(endpoint string, timeout time.Duration, logger *log.Logger) (*Client, error) {
	if err := tverrors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = httputil.DefaultTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	hc := httputil.NewClient(nil, 0, map[string]string{"User-Agent": buildinfo.UserAgent()})
	hc.SetHTTPClient(&http.Client{Timeout: timeout})

	return &Client{
		endpoint: endpoint,
		http:     hc,
		logger:   logger,
		newID:    uuid.NewString,
	}, nil
}

// Endpoint returns the URL submissions are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Post validates and sends s. When the endpoint answers success=false the
// decoded response is returned along with a COMMENT_REJECTED error.
func (c *Client) Post(ctx context.Context, s Submission) (*Response, error) {
	if s.Detail.TableName == "" {
		s.Detail.TableName = s.TableName
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	form, err := s.Form()
	if err != nil {
		return nil, err
	}

	id := c.newID()
	c.logger.Debug("posting comment", "table", s.TableName, "row", s.Detail.RowIndex, "field", s.Detail.Field, "request_id", id)

	var resp Response
	if err := c.http.PostForm(ctx, c.endpoint, form, map[string]string{RequestIDHeader: id}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "comment rejected"
		}
		return &resp, tverrors.New(tverrors.ErrCodeCommentRejected, "%s", msg)
	}

	c.logger.Info("comment accepted", "table", s.TableName, "request_id", id)
	return &resp, nil
}
