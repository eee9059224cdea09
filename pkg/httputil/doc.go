// Package httputil provides the HTTP plumbing shared by the remote tag
// source and the comment client.
//
// # Client
//
// [Client] performs GET and form POST requests with default headers, maps
// response codes onto pkg/errors codes and retries transient failures:
//
//   - network errors and 5xx responses are retried
//   - 404 becomes NOT_FOUND
//   - other non-2xx responses become NETWORK_ERROR without retry
//
// GET responses can be cached through a pkg/cache backend:
//
//	client := httputil.NewClient(c, 24*time.Hour, nil)
//	data, err := client.Fetch(ctx, "https://example.org/data/meta.csv", false)
//
// # Retry
//
// [Retry] runs a function with exponential backoff, retrying only errors
// wrapped with [RetryableError]:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return httputil.Retryable(doRequest())
//	})
package httputil
