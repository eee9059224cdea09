package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/tagviewer/pkg/cache"
	tverrors "github.com/matzehuels/tagviewer/pkg/errors"
)

func TestClientFetch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "tagviewer-test" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte("id,name\n001,voice\n"))
	}))
	defer server.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	client := NewClient(c, time.Hour, map[string]string{"User-Agent": "tagviewer-test"})
	client.SetHTTPClient(server.Client())

	ctx := context.Background()
	data, err := client.Fetch(ctx, server.URL+"/meta.csv", false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "id,name\n001,voice\n" {
		t.Errorf("Fetch() = %q", data)
	}

	if _, err := client.Fetch(ctx, server.URL+"/meta.csv", false); err != nil {
		t.Fatalf("second Fetch() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("second Fetch should hit the cache, server saw %d calls", calls.Load())
	}

	if _, err := client.Fetch(ctx, server.URL+"/meta.csv", true); err != nil {
		t.Fatalf("refresh Fetch() error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("refresh should bypass the cache, server saw %d calls", calls.Load())
	}
}

func TestClientFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(nil, 0, nil)
	client.SetHTTPClient(server.Client())

	_, err := client.Fetch(context.Background(), server.URL+"/missing.csv", false)
	if !tverrors.Is(err, tverrors.ErrCodeNotFound) {
		t.Errorf("Fetch() error = %v, want NOT_FOUND", err)
	}
	if IsRetryable(err) {
		t.Error("404 should not be retryable")
	}
}

func TestClientFetchClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(nil, 0, nil)
	client.SetHTTPClient(server.Client())

	_, err := client.Fetch(context.Background(), server.URL, false)
	if !tverrors.Is(err, tverrors.ErrCodeNetwork) {
		t.Errorf("Fetch() error = %v, want NETWORK_ERROR", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx should not be retried, server saw %d calls", calls.Load())
	}
}

func TestClientPostForm(t *testing.T) {
	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if got := r.Header.Get("X-Request-ID"); got != "abc" {
			t.Errorf("X-Request-ID = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "message": "got ` + r.PostForm.Get("comment") + `"}`))
	}))
	defer server.Close()

	client := NewClient(nil, 0, nil)
	client.SetHTTPClient(server.Client())

	var resp response
	form := url.Values{"comment": {"hello"}}
	if err := client.PostForm(context.Background(), server.URL, form, map[string]string{"X-Request-ID": "abc"}, &resp); err != nil {
		t.Fatalf("PostForm() error: %v", err)
	}
	if !resp.Success || resp.Message != "got hello" {
		t.Errorf("PostForm() response = %+v", resp)
	}
}

func TestClientPostFormBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	client := NewClient(nil, 0, nil)
	client.SetHTTPClient(server.Client())

	var v map[string]any
	err := client.PostForm(context.Background(), server.URL, url.Values{}, nil, &v)
	if !tverrors.Is(err, tverrors.ErrCodeNetwork) {
		t.Errorf("PostForm() error = %v, want NETWORK_ERROR", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		retryable bool
	}{
		{200, false, false},
		{204, false, false},
		{404, true, false},
		{400, true, false},
		{500, true, true},
		{503, true, true},
	}
	for _, tt := range tests {
		err := checkStatus(tt.code, "http://x")
		if (err != nil) != tt.wantErr {
			t.Errorf("checkStatus(%d) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("checkStatus(%d) retryable = %v, want %v", tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	base := errors.New("connection reset")
	err := Retryable(base)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != base.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if IsRetryable(base) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("bad request")
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("eventual success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 2, time.Millisecond, func() error {
		calls++
		return Retryable(errors.New("down"))
	})
	if err == nil || calls != 2 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Second, func() error {
		return Retryable(errors.New("down"))
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
