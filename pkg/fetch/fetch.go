// Package fetch performs the HTTP GET + JSON decode round trips shared by the
// live and history clients, classifying failures as TransportError or ParseError.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/yegors/vatsim-utils/pkg/logger"
)

// DefaultUserAgent identifies this library to upstream
const DefaultUserAgent = "github.com/yegors/vatsim-utils"

// Options configures a Getter
type Options struct {
	Timeout           time.Duration // per-request timeout, 0 = none
	UserAgent         string
	RequestsPerSecond float64      // 0 disables client-side throttling
	Burst             int          // limiter burst, defaults to 1
	HTTPClient        *http.Client // overrides Timeout when set
}

// Getter issues GET requests against upstream
type Getter struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// New creates a Getter
func New(opts Options, log *logger.Logger) *Getter {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Getter{
		httpClient: httpClient,
		userAgent:  userAgent,
		limiter:    limiter,
		logger:     log.Named("fetch"),
	}
}

// Get returns the body of a 2xx response to a GET of url
func (g *Getter) Get(ctx context.Context, url string) ([]byte, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: url, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Debug("Request failed",
			logger.String("url", url),
			logger.Error(err))
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		g.logger.Debug("Unexpected status code",
			logger.String("url", url),
			logger.Int("status_code", resp.StatusCode))
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	g.logger.Debug("Fetched",
		logger.String("url", url),
		logger.Int("bytes", len(body)),
		logger.Duration("duration", time.Since(start)))

	return body, nil
}

// GetJSON fetches url and decodes the body into target
func (g *Getter) GetJSON(ctx context.Context, url string, target any) error {
	body, err := g.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return &ParseError{URL: url, Err: fmt.Errorf("failed to parse JSON: %w", err)}
	}
	return nil
}
