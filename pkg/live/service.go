package live

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/yegors/vatsim-utils/pkg/airports"
	"github.com/yegors/vatsim-utils/pkg/fetch"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

// FetchFunc returns the raw live-data document
type FetchFunc func(ctx context.Context) ([]byte, error)

// Option customises a Service
type Option func(*Service)

// WithClock replaces the wall clock used for freshness and fetched-at stamps
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFetchFunc replaces the HTTP fetch of the live-data document
func WithFetchFunc(fn FetchFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.fetchFn = fn
		}
	}
}

// WithAirports sets the coordinate table used to enrich facility views
func WithAirports(table *airports.Table) Option {
	return func(s *Service) {
		if table != nil {
			s.airports = table
		}
	}
}

// WithClient replaces the upstream client
func WithClient(client *Client) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// flightKey is shared by every caller so that at most one fetch is in flight
const flightKey = "live"

type flightResult struct {
	snap    *Snapshot
	fetched bool
}

// Service owns the live snapshot cache and serves views over it
type Service struct {
	config   Config
	client   *Client
	fetchFn  FetchFunc
	airports *airports.Table
	store    *Store
	clock    func() time.Time
	logger   *logger.Logger

	group      singleflight.Group
	fetchCount atomic.Int64
}

// NewService creates a live-data service. Nothing is fetched until the first call.
func NewService(config Config, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	config = config.withDefaults()

	s := &Service{
		config: config,
		store:  NewStore(),
		clock:  time.Now,
		logger: log.Named("live-service"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		s.client = NewClient(config, log)
	}
	if s.fetchFn == nil {
		s.fetchFn = s.client.FetchData
	}
	if s.airports == nil {
		s.airports = airports.Default()
	}

	return s
}

// Snapshot returns the current snapshot, fetching a new one when the cache is
// empty, older than the freshness window, or force is set.
//
// Concurrent callers share a single in-flight fetch. The fetch itself is not
// cancelled when the caller that started it goes away; each caller stops
// waiting when its own ctx is done.
func (s *Service) Snapshot(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		if snap := s.store.Fresh(s.clock(), s.config.Freshness); snap != nil {
			return snap, nil
		}
	}

	for {
		ch := s.group.DoChan(flightKey, func() (any, error) {
			if !force {
				// Another flight may have published while we were queuing
				if snap := s.store.Fresh(s.clock(), s.config.Freshness); snap != nil {
					return flightResult{snap: snap}, nil
				}
			}
			snap, err := s.refresh(ctx)
			if err != nil {
				return nil, err
			}
			return flightResult{snap: snap, fetched: true}, nil
		})

		select {
		case <-ctx.Done():
			return nil, &fetch.TransportError{URL: s.source(), Err: ctx.Err()}
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			r := res.Val.(flightResult)
			if force && !r.fetched {
				// Joined a flight that served from cache; a forced call must hit upstream
				continue
			}
			return r.snap, nil
		}
	}
}

// refresh performs one fetch-parse-publish cycle
func (s *Service) refresh(ctx context.Context) (*Snapshot, error) {
	log := s.logger.With(logger.String("fetch_id", uuid.NewString()))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.Timeout)
	defer cancel()

	start := time.Now()
	s.fetchCount.Add(1)
	log.Debug("Fetching live data", logger.String("source", s.source()))

	body, err := s.fetchFn(ctx)
	now := s.clock()
	if err != nil {
		err = s.classify(err)
		s.store.RecordFailure(now, err)
		log.Warn("Live data fetch failed",
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return nil, err
	}

	snap, err := Parse(body, now)
	if err != nil {
		perr := &fetch.ParseError{URL: s.source(), Err: err}
		s.store.RecordFailure(now, perr)
		log.Error("Live data did not match the expected schema",
			logger.Int("bytes", len(body)),
			logger.Error(err))
		return nil, perr
	}

	held, replaced := s.store.Publish(snap, now)
	if !replaced {
		log.Warn("Upstream served an older publication, keeping held snapshot",
			logger.String("received_update", snap.General.Update),
			logger.String("held_update", held.General.Update))
		return held, nil
	}

	log.Info("Live data updated",
		logger.String("update", snap.General.Update),
		logger.Int("pilots", len(snap.Pilots)),
		logger.Int("controllers", len(snap.Controllers)),
		logger.Int("atis", len(snap.ATIS)),
		logger.Duration("duration", time.Since(start)))

	return held, nil
}

// classify maps an arbitrary fetch error onto the transport/parse taxonomy
func (s *Service) classify(err error) error {
	if errors.Is(err, fetch.ErrTransport) || errors.Is(err, fetch.ErrParse) {
		return err
	}
	return &fetch.TransportError{URL: s.source(), Err: err}
}

func (s *Service) source() string {
	if s.config.DataURL != "" {
		return s.config.DataURL
	}
	return s.config.StatusURL
}

// Cached returns the held snapshot without any network access
func (s *Service) Cached() (*Snapshot, bool) {
	snap := s.store.Load()
	return snap, snap != nil
}

// Pilot finds a pilot in the current snapshot by exact callsign
func (s *Service) Pilot(ctx context.Context, callsign string) (Pilot, bool, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return Pilot{}, false, err
	}
	p, ok := snap.PilotByCallsign(callsign)
	return p, ok, nil
}

// PilotByCID finds a pilot in the current snapshot by network ID
func (s *Service) PilotByCID(ctx context.Context, cid int64) (Pilot, bool, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return Pilot{}, false, err
	}
	p, ok := snap.PilotByCID(cid)
	return p, ok, nil
}

// Controller finds a controller in the current snapshot by exact callsign
func (s *Service) Controller(ctx context.Context, callsign string) (Controller, bool, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return Controller{}, false, err
	}
	c, ok := snap.ControllerByCallsign(callsign)
	return c, ok, nil
}

// ATISText returns the current ATIS broadcast for a facility
func (s *Service) ATISText(ctx context.Context, facility string) (string, bool, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return "", false, err
	}
	text, ok := snap.ATISText(facility)
	return text, ok, nil
}

// Facility lists everyone at a facility. When the code is a known airport the
// view carries its location and, for a positive radius, the pilots within
// radiusNM of it.
func (s *Service) Facility(ctx context.Context, code string, radiusNM float64) (FacilityView, error) {
	snap, err := s.Snapshot(ctx, false)
	if err != nil {
		return FacilityView{}, err
	}

	view := snap.AtFacility(code)
	if coord, ok := s.airports.Lookup(code); ok {
		view.Location = &coord
		if radiusNM > 0 {
			view.Nearby = snap.PilotsWithin(coord, radiusNM)
		}
	}
	return view, nil
}

// Transceivers fetches the radio positions of every connected client. The
// result is not cached.
func (s *Service) Transceivers(ctx context.Context) ([]Transceiver, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	return s.client.FetchTransceivers(ctx)
}

// CacheStats describes the cache state
type CacheStats struct {
	HasData             bool          `json:"has_data"`
	Update              string        `json:"update,omitempty"`
	UpdateTimestamp     time.Time     `json:"update_timestamp,omitempty"`
	FetchedAt           time.Time     `json:"fetched_at,omitempty"`
	Age                 time.Duration `json:"age"`
	LastAttempt         time.Time     `json:"last_attempt,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	FetchCount          int64         `json:"fetch_count"`
	Freshness           time.Duration `json:"freshness"`
}

// Stats returns cache statistics
func (s *Service) Stats() CacheStats {
	state := s.store.State()
	stats := CacheStats{
		LastAttempt:         state.LastAttempt,
		ConsecutiveFailures: state.ConsecutiveFailures,
		FetchCount:          s.fetchCount.Load(),
		Freshness:           s.config.Freshness,
	}
	if state.LastError != nil {
		stats.LastError = state.LastError.Error()
	}
	if snap := state.Snapshot; snap != nil {
		stats.HasData = true
		stats.Update = snap.General.Update
		stats.UpdateTimestamp = snap.General.UpdateTimestamp
		stats.FetchedAt = snap.FetchedAt
		stats.Age = snap.Age(s.clock())
	}
	return stats
}
