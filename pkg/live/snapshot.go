package live

import (
	"sort"
	"strings"
	"time"

	"github.com/mohae/deepcopy"

	"github.com/yegors/vatsim-utils/pkg/geometry"
)

// Snapshot is one parsed capture of the live feed.
//
// A Snapshot is never modified after it is published. The exported slices are
// shared between every caller holding the same snapshot and must be treated
// as read-only; the lookup methods return detached copies.
type Snapshot struct {
	General      General             `json:"general"`
	FetchedAt    time.Time           `json:"fetched_at"`
	Pilots       []Pilot             `json:"pilots"`
	Controllers  []Controller        `json:"controllers"`
	ATIS         []ATIS              `json:"atis"`
	Servers      []Server            `json:"servers"`
	Facilities   []ReferenceItem     `json:"facilities,omitempty"`
	Ratings      []ReferenceItem     `json:"ratings,omitempty"`
	PilotRatings []ReferenceNameItem `json:"pilot_ratings,omitempty"`

	pilotsByCallsign      map[string]int
	pilotsByCID           map[int64]int
	controllersByCallsign map[string]int
	atisByCallsign        map[string]int
}

type snapshotData struct {
	General      General
	FetchedAt    time.Time
	Pilots       []Pilot
	Controllers  []Controller
	ATIS         []ATIS
	Servers      []Server
	Facilities   []ReferenceItem
	Ratings      []ReferenceItem
	PilotRatings []ReferenceNameItem
}

// newSnapshot builds the indexes before the value is handed to anyone
func newSnapshot(d snapshotData) *Snapshot {
	s := &Snapshot{
		General:               d.General,
		FetchedAt:             d.FetchedAt,
		Pilots:                d.Pilots,
		Controllers:           d.Controllers,
		ATIS:                  d.ATIS,
		Servers:               d.Servers,
		Facilities:            d.Facilities,
		Ratings:               d.Ratings,
		PilotRatings:          d.PilotRatings,
		pilotsByCallsign:      make(map[string]int, len(d.Pilots)),
		pilotsByCID:           make(map[int64]int, len(d.Pilots)),
		controllersByCallsign: make(map[string]int, len(d.Controllers)),
		atisByCallsign:        make(map[string]int, len(d.ATIS)),
	}

	// First occurrence wins on duplicate keys
	for i, p := range s.Pilots {
		if _, ok := s.pilotsByCallsign[p.Callsign]; !ok {
			s.pilotsByCallsign[p.Callsign] = i
		}
		if _, ok := s.pilotsByCID[p.CID]; !ok {
			s.pilotsByCID[p.CID] = i
		}
	}
	for i, c := range s.Controllers {
		if _, ok := s.controllersByCallsign[c.Callsign]; !ok {
			s.controllersByCallsign[c.Callsign] = i
		}
	}
	for i, a := range s.ATIS {
		if _, ok := s.atisByCallsign[a.Callsign]; !ok {
			s.atisByCallsign[a.Callsign] = i
		}
	}

	return s
}

// Marker returns the upstream publication time this snapshot corresponds to
func (s *Snapshot) Marker() time.Time {
	return s.General.UpdateTimestamp
}

// Age returns how long ago the snapshot was fetched
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// IsEmpty reports whether nobody is connected
func (s *Snapshot) IsEmpty() bool {
	return len(s.Pilots) == 0 && len(s.Controllers) == 0 && len(s.ATIS) == 0
}

// PilotByCallsign finds a pilot by exact, case-sensitive callsign
func (s *Snapshot) PilotByCallsign(callsign string) (Pilot, bool) {
	i, ok := s.pilotsByCallsign[callsign]
	if !ok {
		return Pilot{}, false
	}
	return clone(s.Pilots[i]), true
}

// PilotByCID finds a pilot by network ID
func (s *Snapshot) PilotByCID(cid int64) (Pilot, bool) {
	i, ok := s.pilotsByCID[cid]
	if !ok {
		return Pilot{}, false
	}
	return clone(s.Pilots[i]), true
}

// ControllerByCallsign finds a controller by exact, case-sensitive callsign
func (s *Snapshot) ControllerByCallsign(callsign string) (Controller, bool) {
	i, ok := s.controllersByCallsign[callsign]
	if !ok {
		return Controller{}, false
	}
	return clone(s.Controllers[i]), true
}

// ATISByCallsign finds an ATIS station by exact, case-sensitive callsign
func (s *Snapshot) ATISByCallsign(callsign string) (ATIS, bool) {
	i, ok := s.atisByCallsign[callsign]
	if !ok {
		return ATIS{}, false
	}
	return clone(s.ATIS[i]), true
}

// ControllersByFacilityType lists controllers working the given position type
func (s *Snapshot) ControllersByFacilityType(ft FacilityType) []Controller {
	var out []Controller
	for _, c := range s.Controllers {
		if c.Facility == ft {
			out = append(out, clone(c))
		}
	}
	return out
}

// ATISFor lists ATIS stations serving a facility, e.g. "KSAN" matches
// KSAN_ATIS, KSAN_D_ATIS and KSAN_A_ATIS
func (s *Snapshot) ATISFor(facility string) []ATIS {
	var out []ATIS
	for _, a := range s.ATIS {
		if MatchesFacility(a.Callsign, facility) {
			out = append(out, clone(a))
		}
	}
	return out
}

// ATISText returns the broadcast text of every ATIS station serving the
// facility, one station per line
func (s *Snapshot) ATISText(facility string) (string, bool) {
	stations := s.ATISFor(facility)
	if len(stations) == 0 {
		return "", false
	}
	lines := make([]string, 0, len(stations))
	for _, a := range stations {
		lines = append(lines, strings.Join(a.TextATIS, " "))
	}
	return strings.Join(lines, "\n"), true
}

// FacilityView groups everyone associated with one airport or sector
type FacilityView struct {
	Code        string               `json:"code"`
	Location    *geometry.Coordinate `json:"location,omitempty"`
	Controllers []Controller         `json:"controllers"`
	ATIS        []ATIS               `json:"atis"`
	Departures  []Pilot              `json:"departures"`
	Arrivals    []Pilot              `json:"arrivals"`
	Nearby      []Pilot              `json:"nearby,omitempty"`
}

// IsEmpty reports whether nothing is associated with the facility
func (v FacilityView) IsEmpty() bool {
	return len(v.Controllers) == 0 && len(v.ATIS) == 0 && len(v.Departures) == 0 &&
		len(v.Arrivals) == 0 && len(v.Nearby) == 0
}

// AtFacility lists controllers and ATIS stations whose callsign belongs to the
// facility, plus pilots filed out of or into it
func (s *Snapshot) AtFacility(code string) FacilityView {
	code = strings.ToUpper(strings.TrimSpace(code))
	view := FacilityView{Code: code}

	for _, c := range s.Controllers {
		if MatchesFacility(c.Callsign, code) {
			view.Controllers = append(view.Controllers, clone(c))
		}
	}
	view.ATIS = s.ATISFor(code)

	for _, p := range s.Pilots {
		if p.FlightPlan == nil {
			continue
		}
		if strings.EqualFold(p.FlightPlan.Departure, code) {
			view.Departures = append(view.Departures, clone(p))
		}
		if strings.EqualFold(p.FlightPlan.Arrival, code) {
			view.Arrivals = append(view.Arrivals, clone(p))
		}
	}

	return view
}

// PilotsWithin lists pilots within radiusNM of center, nearest first
func (s *Snapshot) PilotsWithin(center geometry.Coordinate, radiusNM float64) []Pilot {
	type ranked struct {
		idx  int
		dist float64
	}
	var hits []ranked
	for i, p := range s.Pilots {
		if d := geometry.Distance(center, p.Position()); d <= radiusNM {
			hits = append(hits, ranked{idx: i, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]Pilot, 0, len(hits))
	for _, h := range hits {
		out = append(out, clone(s.Pilots[h.idx]))
	}
	return out
}

// MatchesFacility reports whether a callsign such as "SAN_TWR" or
// "KSAN_ATIS" belongs to the facility code. US fields are commonly staffed
// under the three-letter identifier, so "KSAN" also matches "SAN_*".
func MatchesFacility(callsign, code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false
	}
	prefix, _, _ := strings.Cut(callsign, "_")
	if prefix == code {
		return true
	}
	return len(code) == 4 && code[0] == 'K' && prefix == code[1:]
}

func clone[T any](v T) T {
	return deepcopy.Copy(v).(T)
}
