package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultURL serves a JSON array of YYYY-MM-DD strings
	DefaultURL = "https://content.capta.co/Recruitment/WorkingDays.json"

	DefaultTimeout = 5 * time.Second

	userAgent = "WorkingDaysAPI/1.0"

	// maxResponseSize caps the body read from the remote source
	maxResponseSize = 1 * 1024 * 1024
)

// Fetcher retrieves the remote holiday list
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context) ([]string, error)

// Fetch calls f(ctx)
func (f FetcherFunc) Fetch(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// HTTPFetcher implements Fetcher with a single GET against a fixed URL
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPFetcher creates a fetcher bounded by timeout per request
func NewHTTPFetcher(url string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPFetcher{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch downloads and decodes the holiday list
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	f.logger.Debug("Fetching holidays", zap.String("url", f.url))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var dates []string
	if err := json.Unmarshal(body, &dates); err != nil {
		return nil, fmt.Errorf("failed to parse holiday JSON: %w", err)
	}

	return dates, nil
}
