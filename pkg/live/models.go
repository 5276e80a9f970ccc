package live

import (
	"time"

	"github.com/yegors/vatsim-utils/pkg/geometry"
)

// General is the feed metadata block
type General struct {
	Version          int       `json:"version"`
	Reload           int       `json:"reload"`
	Update           string    `json:"update"`           // Publication marker, e.g. "20240101120015"
	UpdateTimestamp  time.Time `json:"update_timestamp"` // Publication time of this feed
	ConnectedClients int       `json:"connected_clients"`
	UniqueUsers      int       `json:"unique_users"`
}

// FlightPlan is the plan filed by a pilot
type FlightPlan struct {
	FlightRules         string `json:"flight_rules"`
	Aircraft            string `json:"aircraft"`
	AircraftFAA         string `json:"aircraft_faa"`
	AircraftShort       string `json:"aircraft_short"`
	Departure           string `json:"departure"`
	Arrival             string `json:"arrival"`
	Alternate           string `json:"alternate"`
	CruiseTAS           string `json:"cruise_tas"`
	Altitude            string `json:"altitude"`
	DepTime             string `json:"deptime"`
	EnrouteTime         string `json:"enroute_time"`
	FuelTime            string `json:"fuel_time"`
	Remarks             string `json:"remarks"`
	Route               string `json:"route"`
	RevisionID          int    `json:"revision_id"`
	AssignedTransponder string `json:"assigned_transponder"`
}

// Pilot is a connected pilot
type Pilot struct {
	CID            int64       `json:"cid"`
	Name           string      `json:"name"`
	Callsign       string      `json:"callsign"`
	Server         string      `json:"server"`
	PilotRating    int         `json:"pilot_rating"`
	MilitaryRating int         `json:"military_rating"`
	Latitude       float64     `json:"latitude"`
	Longitude      float64     `json:"longitude"`
	Altitude       int         `json:"altitude"`
	Groundspeed    int         `json:"groundspeed"`
	Transponder    string      `json:"transponder"`
	Heading        int         `json:"heading"`
	QNHInHg        float64     `json:"qnh_i_hg"`
	QNHMb          int         `json:"qnh_mb"`
	FlightPlan     *FlightPlan `json:"flight_plan,omitempty"` // nil when no plan is filed
	LogonTime      time.Time   `json:"logon_time"`
	LastUpdated    time.Time   `json:"last_updated"`
}

// Position returns the pilot's reported location
func (p Pilot) Position() geometry.Coordinate {
	return geometry.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// HasFlightPlan reports whether the pilot has filed
func (p Pilot) HasFlightPlan() bool {
	return p.FlightPlan != nil
}

// FacilityType is the numeric position type upstream assigns to controllers
type FacilityType int

const (
	FacilityObserver FacilityType = iota
	FacilityFSS
	FacilityDelivery
	FacilityGround
	FacilityTower
	FacilityApproach
	FacilityCenter
)

func (f FacilityType) String() string {
	switch f {
	case FacilityObserver:
		return "OBS"
	case FacilityFSS:
		return "FSS"
	case FacilityDelivery:
		return "DEL"
	case FacilityGround:
		return "GND"
	case FacilityTower:
		return "TWR"
	case FacilityApproach:
		return "APP"
	case FacilityCenter:
		return "CTR"
	default:
		return "UNKNOWN"
	}
}

// Controller is a connected ATC position
type Controller struct {
	CID         int64        `json:"cid"`
	Name        string       `json:"name"`
	Callsign    string       `json:"callsign"`
	Frequency   string       `json:"frequency"`
	Facility    FacilityType `json:"facility"`
	Rating      int          `json:"rating"`
	Server      string       `json:"server"`
	VisualRange int          `json:"visual_range"`
	TextATIS    []string     `json:"text_atis,omitempty"` // Controller info lines, nil when absent
	LogonTime   time.Time    `json:"logon_time"`
	LastUpdated time.Time    `json:"last_updated"`
}

// ATIS is a connected ATIS station
type ATIS struct {
	CID         int64        `json:"cid"`
	Name        string       `json:"name"`
	Callsign    string       `json:"callsign"`
	Frequency   string       `json:"frequency"`
	Facility    FacilityType `json:"facility"`
	Rating      int          `json:"rating"`
	Server      string       `json:"server"`
	VisualRange int          `json:"visual_range"`
	ATISCode    string       `json:"atis_code"`
	TextATIS    []string     `json:"text_atis,omitempty"`
	LogonTime   time.Time    `json:"logon_time"`
	LastUpdated time.Time    `json:"last_updated"`
}

// Server is an FSD server participants connect to
type Server struct {
	Ident                    string `json:"ident"`
	HostnameOrIP             string `json:"hostname_or_ip"`
	Location                 string `json:"location"`
	Name                     string `json:"name"`
	ClientsConnectionAllowed int    `json:"clients_connection_allowed"`
	ClientConnectionsAllowed bool   `json:"client_connections_allowed"`
	IsSweatbox               bool   `json:"is_sweatbox"`
}

// ReferenceItem is an entry of the facilities or ratings reference tables
type ReferenceItem struct {
	ID    int    `json:"id"`
	Short string `json:"short"`
	Long  string `json:"long"`
}

// ReferenceNameItem is an entry of the pilot ratings reference table
type ReferenceNameItem struct {
	ID        int    `json:"id"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
}

// TransceiverEntry is a single radio of a connected client
type TransceiverEntry struct {
	ID         int     `json:"id"`
	Frequency  int64   `json:"frequency"` // Hz
	LatDeg     float64 `json:"latDeg"`
	LonDeg     float64 `json:"lonDeg"`
	HeightMslM float64 `json:"heightMslM"`
	HeightAglM float64 `json:"heightAglM"`
}

// Transceiver groups the radios of one callsign
type Transceiver struct {
	Callsign     string             `json:"callsign"`
	Transceivers []TransceiverEntry `json:"transceivers"`
}

// Status is the endpoint discovery document
type Status struct {
	Data struct {
		V3              []string `json:"v3"`
		Transceivers    []string `json:"transceivers"`
		Servers         []string `json:"servers"`
		ServersSweatbox []string `json:"servers_sweatbox"`
		ServersAll      []string `json:"servers_all"`
	} `json:"data"`
	User  []string `json:"user"`
	Metar []string `json:"metar"`
}
