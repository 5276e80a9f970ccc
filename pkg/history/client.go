// Package history queries the VATSIM REST API on api.vatsim.net: member
// ratings, past connections, ATC sessions, flight plans and facility
// staffing. Every call is a single stateless request.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/vatsim-utils/pkg/fetch"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

const (
	// DefaultBaseURL is the root of the query API
	DefaultBaseURL = "https://api.vatsim.net/api"
	// DefaultStatsURL is the root of the member statistics pages
	DefaultStatsURL = "https://stats.vatsim.net/stats"
	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second
)

// Config configures the query API client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64 // Client-side throttle, 0 disables
	Burst             int
}

// DefaultConfig returns the configuration used for unset fields
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: fetch.DefaultUserAgent,
	}
}

// Filter narrows ATC session and facility queries
type Filter struct {
	Callsign string    // Position specifier, ATC sessions only
	Start    time.Time // Earliest session date
	End      time.Time // Latest session date
	Page     int
}

// Client talks to the query API
type Client struct {
	config Config
	getter *fetch.Getter
	logger *logger.Logger
}

// NewClient creates a query API client
func NewClient(config Config, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		getter: fetch.New(fetch.Options{
			Timeout:           config.Timeout,
			UserAgent:         config.UserAgent,
			RequestsPerSecond: config.RequestsPerSecond,
			Burst:             config.Burst,
		}, log),
		logger: log.Named("history-client"),
	}
}

// QueryPage runs q and decodes one page of results. A page with no results
// is returned as an empty, non-nil Results slice.
func QueryPage[T any](ctx context.Context, c *Client, q Query) (*Paginated[T], error) {
	url, err := q.URL(c.config.BaseURL)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Querying history",
		logger.String("kind", string(q.Kind)),
		logger.Int64("cid", q.CID),
		logger.String("callsign", q.Callsign),
		logger.Int("page", q.Page))

	var page Paginated[T]
	if err := c.getter.GetJSON(ctx, url, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return &page, nil
}

// Connections lists a member's past network connections, newest first
func (c *Client) Connections(ctx context.Context, cid int64, page int) (*Paginated[ConnectionEntry], error) {
	return QueryPage[ConnectionEntry](ctx, c, Query{Kind: KindConnections, CID: cid, Page: page})
}

// FlightPlans lists the flight plans a member has filed
func (c *Client) FlightPlans(ctx context.Context, cid int64, page int) (*Paginated[RestFlightPlan], error) {
	return QueryPage[RestFlightPlan](ctx, c, Query{Kind: KindFlightPlans, CID: cid, Page: page})
}

// ATCSessions lists a member's ATC sessions, optionally narrowed to a position
// and date range
func (c *Client) ATCSessions(ctx context.Context, cid int64, f Filter) (*Paginated[AtcSessionEntry], error) {
	return QueryPage[AtcSessionEntry](ctx, c, Query{
		Kind:     KindATCSessions,
		CID:      cid,
		Callsign: f.Callsign,
		Start:    f.Start,
		End:      f.End,
		Page:     f.Page,
	})
}

// FacilityHistory lists past sessions on a position such as "SAN_TWR". The
// filter's Callsign is ignored.
func (c *Client) FacilityHistory(ctx context.Context, callsign string, f Filter) (*Paginated[AtcSessionEntry], error) {
	return QueryPage[AtcSessionEntry](ctx, c, Query{
		Kind:     KindFacility,
		Callsign: callsign,
		Start:    f.Start,
		End:      f.End,
		Page:     f.Page,
	})
}

// UserRatings returns a member's current ratings
func (c *Client) UserRatings(ctx context.Context, cid int64) (*UserRatingsSimple, error) {
	if cid <= 0 {
		return nil, fmt.Errorf("%w: ratings require a CID", ErrInvalidQuery)
	}
	var out UserRatingsSimple
	if err := c.getter.GetJSON(ctx, c.config.BaseURL+"/ratings/"+strconv.FormatInt(cid, 10)+"/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RatingTimes returns the hours a member has logged per rating
func (c *Client) RatingTimes(ctx context.Context, cid int64) (*RatingsTimeData, error) {
	if cid <= 0 {
		return nil, fmt.Errorf("%w: rating times require a CID", ErrInvalidQuery)
	}
	var out RatingsTimeData
	if err := c.getter.GetJSON(ctx, c.config.BaseURL+"/ratings/"+strconv.FormatInt(cid, 10)+"/rating_times", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Regions lists the VATSIM regions
func (c *Client) Regions(ctx context.Context) ([]Region, error) {
	var out []Region
	if err := c.getter.GetJSON(ctx, c.config.BaseURL+"/regions/", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Region{}
	}
	return out, nil
}

// OnlineFacilities lists the positions currently staffed by ATC
func (c *Client) OnlineFacilities(ctx context.Context) ([]Facility, error) {
	var out []Facility
	if err := c.getter.GetJSON(ctx, c.config.BaseURL+"/facilities/", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Facility{}
	}
	return out, nil
}

// StatsURL returns the stats.vatsim.net page of a member
func StatsURL(cid int64) string {
	return DefaultStatsURL + "/" + strconv.FormatInt(cid, 10)
}
