// Package request is the shared outbound HTTP client: one sequential
// queue per provider host, optional retries, cooldowns and usage tracking.
package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"plantguide/pkg/tracker"
	"plantguide/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("PlantGuide/%s", version.Version)

// ErrCooldown is returned without a network call while a provider is
// backing off after failures.
var ErrCooldown = errors.New("provider in cooldown")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

// ClientConfig holds the client's tuning knobs.
type ClientConfig struct {
	Retries   int           // extra attempts on 429/5xx/transport errors
	Timeout   time.Duration // per attempt
	BaseDelay time.Duration // retry and cooldown base delay
	MaxDelay  time.Duration
	UserAgent string
}

// Client handles HTTP requests with queuing and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	retries    int
	baseDelay  time.Duration
	userAgent  string

	// Queues per provider (host)
	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req      *http.Request
	headers  map[string]string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client. A nil tracker disables usage tracking.
func New(t *tracker.Tracker, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = time.Minute
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tracker:    t,
		backoff:    NewProviderBackoff(cfg.BaseDelay, cfg.MaxDelay),
		retries:    cfg.Retries,
		baseDelay:  cfg.BaseDelay,
		userAgent:  cfg.UserAgent,
		queues:     make(map[string]chan job),
	}
}

// GetWithHeaders performs a queued GET request with custom headers.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := ProviderName(parsedURL.Host)

	if ok, wait := c.backoff.Ready(provider); !ok {
		slog.Debug("Request skipped, provider cooling down", "provider", provider, "wait", wait.Round(time.Millisecond))
		return nil, fmt.Errorf("%s: %w", provider, ErrCooldown)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, headers: headers, respChan: respChan})

	select {
	case <-ctx.Done():
	case res := <-respChan:
		if res.err == nil || ctx.Err() == nil {
			return res.body, res.err
		}
	}
	c.track(func(t *tracker.Tracker) { t.TrackCanceled(provider) })
	return nil, ctx.Err()
}

// ProviderName groups hosts into tracker/queue names.
func ProviderName(host string) string {
	if strings.HasSuffix(host, "translate.googleapis.com") {
		return "translate"
	}
	if strings.HasSuffix(host, "speech.platform.bing.com") {
		return "edge-tts"
	}
	return host
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		if j.req.Context().Err() != nil {
			slog.Debug("Job dropped from queue (context expired)", "provider", provider, "error", j.req.Context().Err())
			j.respChan <- jobResult{err: j.req.Context().Err()}
			continue
		}

		uaSet := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaSet = true
			}
		}
		if !uaSet {
			j.req.Header.Set("User-Agent", c.userAgent)
		}

		body, err := c.executeWithBackoff(j.req)
		switch {
		case err == nil:
			c.backoff.RecordSuccess(provider)
			c.track(func(t *tracker.Tracker) { t.TrackAPISuccess(provider) })
		case j.req.Context().Err() != nil:
			// Caller gave up; not the provider's fault
		default:
			c.backoff.RecordFailure(provider)
			c.track(func(t *tracker.Tracker) { t.TrackAPIFailure(provider) })
		}

		j.respChan <- jobResult{body: body, err: err}
	}
}

func (c *Client) track(fn func(*tracker.Tracker)) {
	if c.tracker != nil {
		fn(c.tracker)
	}
}

// executeWithBackoff attempts the request, retrying 429/5xx and transport
// errors with exponential delays.
func (c *Client) executeWithBackoff(req *http.Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			sleepDur := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseDelay
			select {
			case <-time.After(sleepDur):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			slog.Warn("Request failed", "host", req.URL.Host, "attempt", attempt+1, "error", err)
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			slog.Warn("API Backoff", "status", resp.StatusCode, "host", req.URL.Host, "attempt", attempt+1)
			lastErr = &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}

	return nil, lastErr
}
