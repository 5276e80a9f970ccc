package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yegors/vatsim-utils/pkg/fetch"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

const (
	// DefaultStatusURL is the endpoint discovery document
	DefaultStatusURL = "https://status.vatsim.net/status.json"
	// DefaultFreshness matches the upstream publication interval
	DefaultFreshness = 15 * time.Second
	// DefaultTimeout bounds a single fetch
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrNoDataURL is returned when the status document lists no v3 feed
	ErrNoDataURL = errors.New("could not retrieve a V3 URL from the status page")
	// ErrNoTransceiversURL is returned when the status document lists no transceivers feed
	ErrNoTransceiversURL = errors.New("could not retrieve a transceivers URL from the status page")
	// ErrNoMETARURL is returned when the status document lists no METAR service
	ErrNoMETARURL = errors.New("could not retrieve a METAR URL from the status page")
)

// Config configures the live client and cache
type Config struct {
	StatusURL       string        // Discovery document, used when a feed URL is not set
	DataURL         string        // Live-data feed; discovered from StatusURL when empty
	TransceiversURL string        // Transceivers feed; discovered from StatusURL when empty
	METARURL        string        // Weather reports; discovered from StatusURL when empty
	Freshness       time.Duration // Maximum age of a cached snapshot
	Timeout         time.Duration // Per-fetch timeout
	UserAgent       string
}

// DefaultConfig returns the configuration used for unset fields
func DefaultConfig() Config {
	return Config{
		StatusURL: DefaultStatusURL,
		Freshness: DefaultFreshness,
		Timeout:   DefaultTimeout,
		UserAgent: fetch.DefaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StatusURL == "" {
		c.StatusURL = def.StatusURL
	}
	if c.Freshness <= 0 {
		c.Freshness = def.Freshness
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}

// Client talks to the live endpoints without any caching
type Client struct {
	config Config
	getter *fetch.Getter
	logger *logger.Logger

	mu   sync.Mutex
	urls endpointSet
}

// NewClient creates a live API client
func NewClient(config Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	config = config.withDefaults()
	return &Client{
		config: config,
		getter: fetch.New(fetch.Options{
			Timeout:   config.Timeout,
			UserAgent: config.UserAgent,
		}, log),
		logger: log.Named("live-client"),
		urls: endpointSet{
			data:         config.DataURL,
			transceivers: config.TransceiversURL,
			metar:        config.METARURL,
		},
	}
}

// Status fetches the endpoint discovery document
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.getter.GetJSON(ctx, c.config.StatusURL, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type feed int

const (
	feedData feed = iota
	feedTransceivers
	feedMETAR
)

type endpointSet struct {
	data         string
	transceivers string
	metar        string
}

func (e endpointSet) get(f feed) string {
	switch f {
	case feedData:
		return e.data
	case feedTransceivers:
		return e.transceivers
	default:
		return e.metar
	}
}

func pick(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[rand.IntN(len(urls))]
}

// endpoint resolves a feed URL, consulting the status document only when it
// is not yet known. Discovery failures are not remembered.
func (c *Client) endpoint(ctx context.Context, f feed) (string, error) {
	c.mu.Lock()
	u := c.urls.get(f)
	c.mu.Unlock()

	if u != "" {
		return u, nil
	}

	c.logger.Debug("Resolving live endpoints from status page",
		logger.String("status_url", c.config.StatusURL))

	status, err := c.Status(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.urls.data == "" {
		c.urls.data = pick(status.Data.V3)
	}
	if c.urls.transceivers == "" {
		c.urls.transceivers = pick(status.Data.Transceivers)
	}
	if c.urls.metar == "" {
		c.urls.metar = pick(status.Metar)
	}

	c.logger.Debug("Live endpoints resolved",
		logger.String("v3_url", c.urls.data),
		logger.String("transceivers_url", c.urls.transceivers),
		logger.String("metar_url", c.urls.metar))

	return c.urls.get(f), nil
}

// DataURL returns the resolved live-data URL
func (c *Client) DataURL(ctx context.Context) (string, error) {
	dataURL, err := c.endpoint(ctx, feedData)
	if err != nil {
		return "", err
	}
	if dataURL == "" {
		return "", &fetch.ParseError{URL: c.config.StatusURL, Err: ErrNoDataURL}
	}
	return dataURL, nil
}

// FetchData returns the raw live-data document
func (c *Client) FetchData(ctx context.Context) ([]byte, error) {
	dataURL, err := c.DataURL(ctx)
	if err != nil {
		return nil, err
	}
	return c.getter.Get(ctx, dataURL)
}

// FetchTransceivers returns the current radio positions of every client
func (c *Client) FetchTransceivers(ctx context.Context) ([]Transceiver, error) {
	transceiversURL, err := c.endpoint(ctx, feedTransceivers)
	if err != nil {
		return nil, err
	}
	if transceiversURL == "" {
		return nil, &fetch.ParseError{URL: c.config.StatusURL, Err: ErrNoTransceiversURL}
	}

	body, err := c.getter.Get(ctx, transceiversURL)
	if err != nil {
		return nil, err
	}

	var out []Transceiver
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &fetch.ParseError{URL: transceiversURL, Err: fmt.Errorf("failed to parse transceivers: %w", err)}
	}
	if out == nil {
		out = []Transceiver{}
	}
	return out, nil
}
