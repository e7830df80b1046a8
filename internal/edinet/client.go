package edinet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/metrics"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.edinet-fsa.go.jp/api/v2"

// Client talks to the EDINET v2 API with pacing and retries.
type Client struct {
	baseURL     string
	apiKey      string
	userAgent   string
	minInterval time.Duration
	maxAttempts int
	httpClient  *http.Client

	mu       sync.Mutex
	lastCall time.Time
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	APIKey      string
	UserAgent   string
	MinInterval time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// NewClient constructs a Client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	minInterval := opts.MinInterval
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "kabu-insight-batch/1.0"
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      opts.APIKey,
		userAgent:   userAgent,
		minInterval: minInterval,
		maxAttempts: maxAttempts,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// ListDocuments returns the disclosure list for one date (YYYY-MM-DD).
// type=2 requests full metadata records.
func (c *Client) ListDocuments(ctx context.Context, dateISO string) ([]Document, error) {
	if strings.TrimSpace(dateISO) == "" {
		return nil, fmt.Errorf("date is required")
	}
	query := url.Values{}
	query.Set("date", dateISO)
	query.Set("type", "2")
	if c.apiKey != "" {
		query.Set("Subscription-Key", c.apiKey)
	}
	endpoint := c.baseURL + "/documents.json?" + query.Encode()

	body, err := c.doWithRetry(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}

	var parsed ListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: list documents date=%s: %v", ErrBadResponse, dateISO, err)
	}
	return parsed.Results, nil
}

// GetDocument downloads a document archive. docType is one of DocTypeZip,
// DocTypePDF, DocTypeCSV.
func (c *Client) GetDocument(ctx context.Context, docID string, docType int) ([]byte, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, fmt.Errorf("docID is required")
	}
	query := url.Values{}
	query.Set("type", strconv.Itoa(docType))
	if c.apiKey != "" {
		query.Set("Subscription-Key", c.apiKey)
	}
	endpoint := c.baseURL + "/documents/" + url.PathEscape(docID) + "?" + query.Encode()

	return c.doWithRetry(ctx, endpoint, "")
}

func (c *Client) doWithRetry(ctx context.Context, endpoint, accept string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncEdinetRetry()
			// Exponential backoff: 1s, 2s, 4s, ...
			delay := time.Duration(1<<uint(attempt-2)) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		c.pace(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, retryable, err := c.doOnce(ctx, endpoint, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		telemetry.Warn("edinet.retry", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	return nil, fmt.Errorf("%w: after %d attempts: %v", ErrUnavailable, c.maxAttempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, endpoint, accept string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "ja,en;q=0.8")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	metrics.IncEdinetRequest()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("edinet request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: status 404", ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("edinet status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("edinet read body: %w", err)
	}
	return data, false, nil
}

// pace enforces the minimum interval between EDINET calls.
func (c *Client) pace(ctx context.Context) {
	c.mu.Lock()
	wait := c.minInterval - time.Since(c.lastCall)
	if wait > 0 {
		c.mu.Unlock()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		c.mu.Lock()
	}
	c.lastCall = time.Now()
	c.mu.Unlock()
}
