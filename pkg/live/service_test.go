package live

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yegors/vatsim-utils/internal/upstreamtest"
	"github.com/yegors/vatsim-utils/pkg/airports"
	"github.com/yegors/vatsim-utils/pkg/fetch"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeFeed serves a settable body or error and counts calls. When gate is
// set every call blocks until the gate is closed or its ctx is done.
type fakeFeed struct {
	mu    sync.Mutex
	body  []byte
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (f *fakeFeed) set(body []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body, f.err = body, err
}

func (f *fakeFeed) fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body, f.err
}

func newTestService(t *testing.T, feed *fakeFeed, clock *fakeClock, cfg Config) *Service {
	t.Helper()
	return NewService(cfg, logger.NewNop(),
		WithClock(clock.Now),
		WithFetchFunc(feed.fetch),
	)
}

func TestSnapshotServedFromCacheWithinWindow(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{Freshness: 15 * time.Second})

	first, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	for i := 0; i < 14; i++ {
		clock.Advance(time.Second)
		snap, err := svc.Snapshot(context.Background(), false)
		if err != nil {
			t.Fatalf("Snapshot %d failed: %v", i, err)
		}
		if snap != first {
			t.Fatalf("Expected call %d to return the cached snapshot", i)
		}
	}

	if got := feed.calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", got)
	}
}

func TestSnapshotRefetchesAfterWindow(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{Freshness: 15 * time.Second})

	first, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	clock.Advance(15 * time.Second)
	feed.set(upstreamtest.LiveData(published.Add(15*time.Second)), nil)

	second, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got := feed.calls.Load(); got != 2 {
		t.Errorf("Expected 2 fetches, got %d", got)
	}
	if second == first {
		t.Error("Expected a new snapshot after the window elapsed")
	}
	if !second.FetchedAt.After(first.FetchedAt) {
		t.Errorf("Expected fetched-at to increase, got %v then %v", first.FetchedAt, second.FetchedAt)
	}
	if second.General.Update != "20240101120030" {
		t.Errorf("Expected update 20240101120030, got %s", second.General.Update)
	}
}

func TestForcedSnapshotAlwaysFetches(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{})

	if _, err := svc.Snapshot(context.Background(), false); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := svc.Snapshot(context.Background(), true); err != nil {
		t.Fatalf("forced Snapshot failed: %v", err)
	}
	if got := feed.calls.Load(); got != 2 {
		t.Errorf("Expected a forced call to fetch inside the window, got %d fetches", got)
	}
}

func TestTransportFailureKeepsPriorSnapshot(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{Freshness: 15 * time.Second})

	prior, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	clock.Advance(20 * time.Second)
	feed.set(nil, &fetch.TransportError{URL: "http://upstream", Err: errors.New("connection refused")})

	// The call that hits upstream surfaces the failure
	if _, err := svc.Snapshot(context.Background(), false); !errors.Is(err, fetch.ErrTransport) {
		t.Fatalf("Expected TransportError, got %v", err)
	}

	// The next non-forcing call is served the last good snapshot
	clock.Advance(time.Second)
	snap, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected the prior snapshot, got error %v", err)
	}
	if snap != prior {
		t.Error("Expected the prior snapshot instance")
	}

	// A forced refresh reports the failure
	_, err = svc.Snapshot(context.Background(), true)
	if !errors.Is(err, fetch.ErrTransport) {
		t.Fatalf("Expected TransportError from forced refresh, got %v", err)
	}
	if errors.Is(err, fetch.ErrParse) {
		t.Error("Expected a transport failure not to be classified as a parse failure")
	}

	cached, ok := svc.Cached()
	if !ok || cached != prior {
		t.Error("Expected Cached to still return the prior snapshot")
	}
	if got := feed.calls.Load(); got != 3 {
		t.Errorf("Expected 3 fetches, got %d", got)
	}

	stats := svc.Stats()
	if stats.ConsecutiveFailures != 2 || stats.LastError == "" {
		t.Errorf("Expected 2 recorded failures, got %+v", stats)
	}
}

func TestParseFailureKeepsPriorSnapshot(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{Freshness: 15 * time.Second})

	prior, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	broken := mutate(t, func(d map[string]any) { delete(d, "controllers") })
	feed.set(broken, nil)

	_, err = svc.Snapshot(context.Background(), true)
	if !errors.Is(err, fetch.ErrParse) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if errors.Is(err, fetch.ErrTransport) {
		t.Error("Expected a parse failure not to be classified as a transport failure")
	}
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Path != "controllers" {
		t.Errorf("Expected missing controllers diagnostic, got %v", err)
	}

	snap, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected the prior snapshot to stay servable, got %v", err)
	}
	if snap != prior {
		t.Error("Expected the prior snapshot instance")
	}
	if len(snap.Controllers) != 3 {
		t.Errorf("Expected the prior snapshot to be intact, got %d controllers", len(snap.Controllers))
	}
}

func TestEmptyFeedIsValid(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.EmptyLiveData(published)}
	svc := newTestService(t, feed, clock, Config{})

	snap, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected an empty feed to parse, got %v", err)
	}
	if !snap.IsEmpty() {
		t.Error("Expected an empty snapshot")
	}

	_, ok, err := svc.Pilot(context.Background(), "AAL123")
	if err != nil || ok {
		t.Errorf("Expected a lookup miss, got found=%v err=%v", ok, err)
	}
}

func TestOlderPublicationDoesNotReplaceSnapshot(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published.Add(time.Minute))}
	svc := newTestService(t, feed, clock, Config{Freshness: 15 * time.Second})

	newer, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	clock.Advance(16 * time.Second)
	feed.set(upstreamtest.LiveData(published), nil)

	got, err := svc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got != newer {
		t.Error("Expected the newer publication to remain held")
	}

	// The rejected attempt still counts towards freshness
	clock.Advance(time.Second)
	if _, err := svc.Snapshot(context.Background(), false); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got := feed.calls.Load(); got != 2 {
		t.Errorf("Expected 2 fetches, got %d", got)
	}
}

func TestUnclassifiedFetchErrorIsTransport(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{err: errors.New("dns lookup failed")}
	svc := newTestService(t, feed, clock, Config{DataURL: "http://example.invalid/v3.json"})

	_, err := svc.Snapshot(context.Background(), false)
	var te *fetch.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
	if te.URL != "http://example.invalid/v3.json" {
		t.Errorf("Expected URL to name the data feed, got %s", te.URL)
	}
	if _, ok := svc.Cached(); ok {
		t.Error("Expected no snapshot after a failed first fetch")
	}
}

func TestFetchTimeout(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published), gate: make(chan struct{})}
	svc := newTestService(t, feed, clock, Config{Timeout: 20 * time.Millisecond})

	_, err := svc.Snapshot(context.Background(), false)
	if !errors.Is(err, fetch.ErrTransport) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected the timeout to be visible, got %v", err)
	}
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published), gate: make(chan struct{})}
	svc := newTestService(t, feed, clock, Config{})

	const callers = 25
	results := make([]*Snapshot, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Snapshot(context.Background(), false)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(feed.gate)
	wg.Wait()

	if got := feed.calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i] != results[0] {
			t.Fatalf("Expected caller %d to observe the same snapshot", i)
		}
		if len(results[i].Pilots) != 5 || len(results[i].Controllers) != 3 || len(results[i].ATIS) != 2 {
			t.Fatalf("caller %d observed a partially populated snapshot", i)
		}
	}
}

func TestCallerCancellationDoesNotAbortSharedFetch(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published), gate: make(chan struct{})}
	svc := newTestService(t, feed, clock, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(ctx, false)
		firstErr <- err
	}()

	deadline := time.Now().Add(time.Second)
	for feed.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("fetch never started")
		}
		time.Sleep(time.Millisecond)
	}

	second := make(chan *Snapshot, 1)
	go func() {
		snap, _ := svc.Snapshot(context.Background(), false)
		second <- snap
	}()

	cancel()
	err := <-firstErr
	if !errors.Is(err, fetch.ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancelled TransportError, got %v", err)
	}

	close(feed.gate)
	snap := <-second
	if snap == nil {
		t.Fatal("Expected the remaining caller to receive the snapshot")
	}
	if got := feed.calls.Load(); got != 1 {
		t.Errorf("Expected the shared fetch to complete once, got %d fetches", got)
	}
}

func TestServiceAccessors(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{})
	ctx := context.Background()

	p, ok, err := svc.Pilot(ctx, "SWA456")
	if err != nil || !ok || p.CID != 1234568 {
		t.Errorf("Expected SWA456, got %+v found=%v err=%v", p, ok, err)
	}

	p, ok, err = svc.PilotByCID(ctx, 1234570)
	if err != nil || !ok || p.Callsign != "DAL789" {
		t.Errorf("Expected DAL789, got %q found=%v err=%v", p.Callsign, ok, err)
	}

	c, ok, err := svc.Controller(ctx, "LAX_CTR")
	if err != nil || !ok || c.Facility != FacilityCenter {
		t.Errorf("Expected LAX_CTR, got %+v found=%v err=%v", c, ok, err)
	}

	text, ok, err := svc.ATISText(ctx, "KSAN")
	if err != nil || !ok || text == "" {
		t.Errorf("Expected KSAN ATIS, got %q found=%v err=%v", text, ok, err)
	}

	view, err := svc.Facility(ctx, "KSAN", 30)
	if err != nil {
		t.Fatalf("Facility failed: %v", err)
	}
	want, _ := airports.Lookup("KSAN")
	if view.Location == nil || *view.Location != want {
		t.Errorf("Expected location %v, got %v", want, view.Location)
	}
	if len(view.Nearby) != 3 || view.Nearby[0].Callsign != "N172SP" {
		t.Errorf("Expected 3 nearby pilots starting with N172SP, got %v", callsigns(view.Nearby, pilotCallsign))
	}

	// Sectors have no coordinate entry
	view, err = svc.Facility(ctx, "LAX", 30)
	if err != nil {
		t.Fatalf("Facility failed: %v", err)
	}
	if view.Location != nil || view.Nearby != nil {
		t.Errorf("Expected no location for LAX, got %v", view.Location)
	}
	if len(view.Controllers) != 1 {
		t.Errorf("Expected LAX_CTR in the LAX view, got %d controllers", len(view.Controllers))
	}

	if got := feed.calls.Load(); got != 1 {
		t.Errorf("Expected accessors to share one fetch, got %d", got)
	}
}

func TestServiceWithCustomAirports(t *testing.T) {
	table, err := airports.NewTable(strings.NewReader("ident,latitude,longitude\nKSAN,10.0,10.0\n"))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := NewService(Config{}, nil, WithClock(clock.Now), WithFetchFunc(feed.fetch), WithAirports(table))

	view, err := svc.Facility(context.Background(), "KSAN", 30)
	if err != nil {
		t.Fatalf("Facility failed: %v", err)
	}
	if view.Location == nil || view.Location.Latitude != 10 {
		t.Errorf("Expected the injected coordinate, got %v", view.Location)
	}
	if len(view.Nearby) != 0 {
		t.Errorf("Expected nobody near the injected coordinate, got %d", len(view.Nearby))
	}
}

func TestStats(t *testing.T) {
	clock := newFakeClock(published)
	feed := &fakeFeed{body: upstreamtest.LiveData(published)}
	svc := newTestService(t, feed, clock, Config{})

	if stats := svc.Stats(); stats.HasData || stats.FetchCount != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	if _, err := svc.Snapshot(context.Background(), false); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	clock.Advance(5 * time.Second)

	stats := svc.Stats()
	if !stats.HasData || stats.Update != "20240101120015" {
		t.Errorf("Expected update 20240101120015, got %+v", stats)
	}
	if stats.Age != 5*time.Second {
		t.Errorf("Expected age 5s, got %v", stats.Age)
	}
	if stats.FetchCount != 1 || stats.Freshness != DefaultFreshness {
		t.Errorf("Expected 1 fetch with default freshness, got %+v", stats)
	}
}

func TestServiceAgainstUpstream(t *testing.T) {
	srv := upstreamtest.New(t)
	srv.Set(upstreamtest.PathData, http.StatusOK, upstreamtest.LiveData(published))

	svc := NewService(Config{StatusURL: srv.StatusURL()}, logger.NewNop())
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, false)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Pilots) != 5 {
		t.Errorf("Expected 5 pilots, got %d", len(snap.Pilots))
	}
	if _, err := svc.Snapshot(ctx, false); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if hits := srv.Hits(upstreamtest.PathData); hits != 1 {
		t.Errorf("Expected 1 data request, got %d", hits)
	}

	srv.Set(upstreamtest.PathData, http.StatusServiceUnavailable, nil)
	_, err = svc.Snapshot(ctx, true)
	var te *fetch.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 TransportError, got %v", err)
	}
	if te.URL != srv.DataURL() {
		t.Errorf("Expected the discovered data URL, got %s", te.URL)
	}

	transceivers, err := svc.Transceivers(ctx)
	if err != nil {
		t.Fatalf("Transceivers failed: %v", err)
	}
	if len(transceivers) != 2 || len(transceivers[1].Transceivers) != 2 {
		t.Errorf("Expected 2 transceiver groups, got %+v", transceivers)
	}
	if hits := srv.Hits(upstreamtest.PathStatus); hits != 1 {
		t.Errorf("Expected the status document to be fetched once, got %d", hits)
	}
}
