package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const DefaultFetchTimeout = 15 * time.Second

// FetchError reports a failed fetch: network failure, timeout or an HTTP
// status other than 2xx and 304. StatusCode is 0 when no response arrived.
type FetchError struct {
	Feed       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchResult is either a fresh document or a "not modified" signal.
type FetchResult struct {
	Data        []byte
	NotModified bool
	StatusCode  int
}

// FetchState holds the cache validators and last outcome for one source.
type FetchState struct {
	ETag          string
	LastModified  string
	LastCheckedAt *time.Time
	LastStatus    int
	LastError     string
}

// Fetcher issues conditional GETs and owns the validators of every source.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	timeout    time.Duration

	mu     sync.RWMutex
	states map[string]*FetchState
}

// NewFetcher creates a fetcher. fetchRate caps requests per second across all
// sources; zero or less disables the cap.
func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration, fetchRate float64) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if fetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(fetchRate), 1)
	}

	return &Fetcher{
		httpClient: httpClient,
		limiter:    limiter,
		userAgent:  userAgent,
		timeout:    timeout,
		states:     make(map[string]*FetchState),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, feedConfig *Config) (*FetchResult, error) {
	timeout := f.timeout
	if feedConfig.Settings.Timeout > 0 {
		timeout = time.Duration(feedConfig.Settings.Timeout) * time.Second
	}

	// The timeout covers the request only, not the wait for a rate limit token.
	if err := f.limiter.Wait(ctx); err != nil {
		err = &FetchError{Feed: feedConfig.Name, URL: feedConfig.URL, Err: fmt.Errorf("rate limit wait: %w", err)}
		f.record(feedConfig.Name, nil, err)
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := f.fetch(timeoutCtx, feedConfig)
	f.record(feedConfig.Name, result, err)
	return result, err
}

func (f *Fetcher) fetch(ctx context.Context, feedConfig *Config) (*FetchResult, error) {
	fetchErr := func(statusCode int, err error) *FetchError {
		return &FetchError{Feed: feedConfig.Name, URL: feedConfig.URL, StatusCode: statusCode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedConfig.URL, nil)
	if err != nil {
		return nil, fetchErr(0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/atom+xml, application/rss+xml, application/xml;q=0.9, */*;q=0.8")

	validators := f.State(feedConfig.Name)
	if validators.ETag != "" {
		req.Header.Set("If-None-Match", validators.ETag)
	}
	if validators.LastModified != "" {
		req.Header.Set("If-Modified-Since", validators.LastModified)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fetchErr(0, fmt.Errorf("failed to fetch feed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &FetchResult{NotModified: true, StatusCode: resp.StatusCode}, nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fetchErr(resp.StatusCode, errors.New(resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchErr(resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	// A changed document may drop a validator, so absent headers clear the stored value.
	f.mu.Lock()
	state := f.stateLocked(feedConfig.Name)
	state.ETag = strings.TrimSpace(resp.Header.Get("ETag"))
	state.LastModified = strings.TrimSpace(resp.Header.Get("Last-Modified"))
	f.mu.Unlock()

	return &FetchResult{Data: data, StatusCode: resp.StatusCode}, nil
}

func (f *Fetcher) record(feedName string, result *FetchResult, err error) {
	now := time.Now().UTC()

	f.mu.Lock()
	defer f.mu.Unlock()

	state := f.stateLocked(feedName)
	state.LastCheckedAt = &now
	state.LastError = ""
	state.LastStatus = 0

	if result != nil {
		state.LastStatus = result.StatusCode
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		state.LastStatus = fetchErr.StatusCode
	}
	if err != nil {
		state.LastError = err.Error()
	}
}

func (f *Fetcher) stateLocked(feedName string) *FetchState {
	state, ok := f.states[feedName]
	if !ok {
		state = &FetchState{}
		f.states[feedName] = state
	}
	return state
}

// State returns a copy of the source's validators and last outcome.
func (f *Fetcher) State(feedName string) FetchState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state, ok := f.states[feedName]
	if !ok {
		return FetchState{}
	}
	stateCopy := *state
	if state.LastCheckedAt != nil {
		checkedAt := *state.LastCheckedAt
		stateCopy.LastCheckedAt = &checkedAt
	}
	return stateCopy
}

// CloseIdleConnections releases pooled connections held by the HTTP client.
func (f *Fetcher) CloseIdleConnections() {
	f.httpClient.CloseIdleConnections()
}
