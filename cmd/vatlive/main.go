package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yegors/vatsim-utils/pkg/airports"
	"github.com/yegors/vatsim-utils/pkg/config"
	"github.com/yegors/vatsim-utils/pkg/geometry"
	"github.com/yegors/vatsim-utils/pkg/history"
	"github.com/yegors/vatsim-utils/pkg/live"
	"github.com/yegors/vatsim-utils/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

type options struct {
	configPath   string
	callsign     string
	facility     string
	radiusNM     float64
	distance     string
	metar        string
	cid          int64
	transceivers bool
	stats        bool
	force        bool
}

func main() {
	// Parse command line flags
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.StringVar(&opts.callsign, "callsign", "", "Show the pilot or controller connected under this callsign")
	flag.StringVar(&opts.facility, "facility", "", "Show everyone at a facility, e.g. KSAN")
	flag.Float64Var(&opts.radiusNM, "radius", 30, "Radius in nautical miles for pilots near -facility")
	flag.StringVar(&opts.distance, "distance", "", "Great-circle distance between two airports, e.g. KSAN,KLAX")
	flag.StringVar(&opts.metar, "metar", "", "Show the current METAR of a station, e.g. KSAN")
	flag.Int64Var(&opts.cid, "cid", 0, "Show ratings and recent connections of a member")
	flag.BoolVar(&opts.transceivers, "transceivers", false, "Show transceivers of -callsign")
	flag.BoolVar(&opts.stats, "stats", false, "Show cache statistics after the query")
	flag.BoolVar(&opts.force, "force", false, "Bypass the cache freshness window")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Debug("Starting vatlive",
		logger.String("version", Version),
		logger.String("config_path", opts.configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log, os.Stdout); err != nil {
		log.Error("Query failed", logger.Error(err))
		stop()
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *logger.Logger, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if opts.distance != "" {
		return printDistance(enc, opts.distance)
	}

	if opts.cid > 0 {
		return printMember(ctx, enc, history.NewClient(cfg.HistoryClientConfig(), log), opts.cid)
	}

	svc := live.NewService(cfg.LiveClientConfig(), log)

	if opts.metar != "" {
		return printMETAR(ctx, enc, svc, opts.metar)
	}

	snap, err := svc.Snapshot(ctx, opts.force)
	if err != nil {
		return err
	}

	switch {
	case opts.callsign != "" && opts.transceivers:
		all, err := svc.Transceivers(ctx)
		if err != nil {
			return err
		}
		for _, t := range all {
			if t.Callsign == opts.callsign {
				return enc.Encode(t)
			}
		}
		return fmt.Errorf("no transceivers for %s", opts.callsign)

	case opts.callsign != "":
		if p, ok := snap.PilotByCallsign(opts.callsign); ok {
			if err := enc.Encode(p); err != nil {
				return err
			}
		} else if c, ok := snap.ControllerByCallsign(opts.callsign); ok {
			if err := enc.Encode(c); err != nil {
				return err
			}
		} else if a, ok := snap.ATISByCallsign(opts.callsign); ok {
			if err := enc.Encode(a); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("%s is not connected", opts.callsign)
		}

	case opts.facility != "":
		view, err := svc.Facility(ctx, opts.facility, opts.radiusNM)
		if err != nil {
			return err
		}
		if err := enc.Encode(view); err != nil {
			return err
		}

	default:
		summary := map[string]any{
			"update":      snap.General.Update,
			"pilots":      len(snap.Pilots),
			"controllers": len(snap.Controllers),
			"atis":        len(snap.ATIS),
			"servers":     len(snap.Servers),
		}
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}

	if opts.stats {
		return enc.Encode(svc.Stats())
	}
	return nil
}

func printDistance(enc *json.Encoder, pair string) error {
	from, to, ok := strings.Cut(pair, ",")
	if !ok {
		return fmt.Errorf("expected two airports separated by a comma, got %q", pair)
	}
	a, ok := airports.Lookup(from)
	if !ok {
		return fmt.Errorf("unknown airport %s", from)
	}
	b, ok := airports.Lookup(to)
	if !ok {
		return fmt.Errorf("unknown airport %s", to)
	}
	return enc.Encode(map[string]any{
		"from":        strings.ToUpper(strings.TrimSpace(from)),
		"to":          strings.ToUpper(strings.TrimSpace(to)),
		"distance_nm": geometry.Distance(a, b),
		"bearing":     geometry.InitialBearing(a, b),
	})
}

func printMember(ctx context.Context, enc *json.Encoder, client *history.Client, cid int64) error {
	ratings, err := client.UserRatings(ctx, cid)
	if err != nil {
		return err
	}
	connections, err := client.Connections(ctx, cid, 0)
	if err != nil {
		return err
	}
	return enc.Encode(map[string]any{
		"ratings":     ratings,
		"connections": connections,
		"stats_url":   history.StatsURL(cid),
	})
}

func printMETAR(ctx context.Context, enc *json.Encoder, svc *live.Service, station string) error {
	m, ok, err := svc.METAR(ctx, station)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no METAR for %s", station)
	}

	out := map[string]any{"station": m.Station, "raw": m.Raw}
	if t, ok := m.Temperature(); ok {
		out["temperature_c"] = t
	}
	if d, ok := m.Dewpoint(); ok {
		out["dewpoint_c"] = d
	}
	if q, ok := m.AltimeterHPa(); ok {
		out["altimeter_hpa"] = q
	}
	return enc.Encode(out)
}
