package fhirsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchFunc returns the raw search bundle of one page. next is empty for the
// first page; since, when set, restricts the search to resources changed at
// or after that instant.
type FetchFunc func(ctx context.Context, since *time.Time, pageSize int, next string) ([]byte, error)

// HTTPFetcher searches a FHIR endpoint with a bearer token.
type HTTPFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(baseURL, token string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

// For returns the FetchFunc that pages through resources of kind, oldest
// first.
func (f *HTTPFetcher) For(kind Kind) FetchFunc {
	return func(ctx context.Context, since *time.Time, pageSize int, next string) ([]byte, error) {
		target := next
		if target == "" {
			target = f.searchURL(kind, since, pageSize)
		} else if !strings.Contains(target, "://") {
			target = f.BaseURL + "/" + strings.TrimLeft(target, "/")
		}
		return f.get(ctx, target)
	}
}

func (f *HTTPFetcher) searchURL(kind Kind, since *time.Time, pageSize int) string {
	q := url.Values{}
	q.Set("_count", strconv.Itoa(pageSize))
	q.Set("_sort", kind.sinceParam())
	if since != nil {
		q.Set(kind.sinceParam(), "ge"+since.UTC().Format(time.RFC3339))
	}
	return f.BaseURL + "/" + string(kind) + "?" + q.Encode()
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/fhir+json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	return body, nil
}
