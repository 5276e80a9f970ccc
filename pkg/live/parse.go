package live

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// The raw* types are the permissive intermediate form of the feed. Required
// fields are pointers so that "absent" and "zero" can be told apart; unknown
// fields are dropped by encoding/json.

type rawDocument struct {
	General      *rawGeneral         `json:"general"`
	Pilots       *[]rawPilot         `json:"pilots"`
	Controllers  *[]rawController    `json:"controllers"`
	ATIS         *[]rawATIS          `json:"atis"`
	Servers      *[]rawServer        `json:"servers"`
	Facilities   []ReferenceItem     `json:"facilities"`
	Ratings      []ReferenceItem     `json:"ratings"`
	PilotRatings []ReferenceNameItem `json:"pilot_ratings"`
}

type rawGeneral struct {
	Version          int     `json:"version"`
	Reload           int     `json:"reload"`
	Update           *string `json:"update"`
	UpdateTimestamp  *string `json:"update_timestamp"`
	ConnectedClients int     `json:"connected_clients"`
	UniqueUsers      int     `json:"unique_users"`
}

type rawPilot struct {
	CID            *int64      `json:"cid"`
	Name           string      `json:"name"`
	Callsign       *string     `json:"callsign"`
	Server         string      `json:"server"`
	PilotRating    int         `json:"pilot_rating"`
	MilitaryRating int         `json:"military_rating"`
	Latitude       *float64    `json:"latitude"`
	Longitude      *float64    `json:"longitude"`
	Altitude       int         `json:"altitude"`
	Groundspeed    int         `json:"groundspeed"`
	Transponder    string      `json:"transponder"`
	Heading        int         `json:"heading"`
	QNHInHg        float64     `json:"qnh_i_hg"`
	QNHMb          int         `json:"qnh_mb"`
	FlightPlan     *FlightPlan `json:"flight_plan"`
	LogonTime      string      `json:"logon_time"`
	LastUpdated    string      `json:"last_updated"`
}

type rawController struct {
	CID         *int64   `json:"cid"`
	Name        string   `json:"name"`
	Callsign    *string  `json:"callsign"`
	Frequency   *string  `json:"frequency"`
	Facility    *int     `json:"facility"`
	Rating      int      `json:"rating"`
	Server      string   `json:"server"`
	VisualRange int      `json:"visual_range"`
	TextATIS    []string `json:"text_atis"`
	LogonTime   string   `json:"logon_time"`
	LastUpdated string   `json:"last_updated"`
}

type rawATIS struct {
	CID         *int64   `json:"cid"`
	Name        string   `json:"name"`
	Callsign    *string  `json:"callsign"`
	Frequency   string   `json:"frequency"`
	Facility    int      `json:"facility"`
	Rating      int      `json:"rating"`
	Server      string   `json:"server"`
	VisualRange int      `json:"visual_range"`
	ATISCode    *string  `json:"atis_code"`
	TextATIS    []string `json:"text_atis"`
	LogonTime   string   `json:"logon_time"`
	LastUpdated string   `json:"last_updated"`
}

type rawServer struct {
	Ident                    *string `json:"ident"`
	HostnameOrIP             *string `json:"hostname_or_ip"`
	Location                 string  `json:"location"`
	Name                     string  `json:"name"`
	ClientsConnectionAllowed int     `json:"clients_connection_allowed"`
	ClientConnectionsAllowed bool    `json:"client_connections_allowed"`
	IsSweatbox               bool    `json:"is_sweatbox"`
}

// MissingFieldError reports a required field absent from the feed
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Path)
}

// Parse decodes a live-data document into a Snapshot stamped with fetchedAt.
// The returned snapshot is complete; no partially built value escapes on error.
func Parse(body []byte, fetchedAt time.Time) (*Snapshot, error) {
	var doc rawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode live data: %w", err)
	}

	switch {
	case doc.General == nil:
		return nil, &MissingFieldError{Path: "general"}
	case doc.Pilots == nil:
		return nil, &MissingFieldError{Path: "pilots"}
	case doc.Controllers == nil:
		return nil, &MissingFieldError{Path: "controllers"}
	case doc.ATIS == nil:
		return nil, &MissingFieldError{Path: "atis"}
	case doc.Servers == nil:
		return nil, &MissingFieldError{Path: "servers"}
	}

	general, err := doc.General.project()
	if err != nil {
		return nil, err
	}

	pilots := make([]Pilot, 0, len(*doc.Pilots))
	for i, rp := range *doc.Pilots {
		p, err := rp.project(fmt.Sprintf("pilots[%d]", i))
		if err != nil {
			return nil, err
		}
		pilots = append(pilots, p)
	}

	controllers := make([]Controller, 0, len(*doc.Controllers))
	for i, rc := range *doc.Controllers {
		c, err := rc.project(fmt.Sprintf("controllers[%d]", i))
		if err != nil {
			return nil, err
		}
		controllers = append(controllers, c)
	}

	atis := make([]ATIS, 0, len(*doc.ATIS))
	for i, ra := range *doc.ATIS {
		a, err := ra.project(fmt.Sprintf("atis[%d]", i))
		if err != nil {
			return nil, err
		}
		atis = append(atis, a)
	}

	servers := make([]Server, 0, len(*doc.Servers))
	for i, rs := range *doc.Servers {
		s, err := rs.project(fmt.Sprintf("servers[%d]", i))
		if err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}

	sort.SliceStable(pilots, func(i, j int) bool { return pilots[i].Callsign < pilots[j].Callsign })
	sort.SliceStable(controllers, func(i, j int) bool { return controllers[i].Callsign < controllers[j].Callsign })
	sort.SliceStable(atis, func(i, j int) bool { return atis[i].Callsign < atis[j].Callsign })

	return newSnapshot(snapshotData{
		General:      general,
		FetchedAt:    fetchedAt,
		Pilots:       pilots,
		Controllers:  controllers,
		ATIS:         atis,
		Servers:      servers,
		Facilities:   doc.Facilities,
		Ratings:      doc.Ratings,
		PilotRatings: doc.PilotRatings,
	}), nil
}

func (g *rawGeneral) project() (General, error) {
	if g.Update == nil {
		return General{}, &MissingFieldError{Path: "general.update"}
	}
	if g.UpdateTimestamp == nil {
		return General{}, &MissingFieldError{Path: "general.update_timestamp"}
	}
	ts, err := time.Parse(time.RFC3339, *g.UpdateTimestamp)
	if err != nil {
		return General{}, fmt.Errorf("general.update_timestamp: %w", err)
	}
	return General{
		Version:          g.Version,
		Reload:           g.Reload,
		Update:           *g.Update,
		UpdateTimestamp:  ts,
		ConnectedClients: g.ConnectedClients,
		UniqueUsers:      g.UniqueUsers,
	}, nil
}

func (r *rawPilot) project(path string) (Pilot, error) {
	switch {
	case r.CID == nil:
		return Pilot{}, &MissingFieldError{Path: path + ".cid"}
	case r.Callsign == nil:
		return Pilot{}, &MissingFieldError{Path: path + ".callsign"}
	case r.Latitude == nil:
		return Pilot{}, &MissingFieldError{Path: path + ".latitude"}
	case r.Longitude == nil:
		return Pilot{}, &MissingFieldError{Path: path + ".longitude"}
	}

	logon, err := parseOptionalTime(path+".logon_time", r.LogonTime)
	if err != nil {
		return Pilot{}, err
	}
	updated, err := parseOptionalTime(path+".last_updated", r.LastUpdated)
	if err != nil {
		return Pilot{}, err
	}

	return Pilot{
		CID:            *r.CID,
		Name:           r.Name,
		Callsign:       *r.Callsign,
		Server:         r.Server,
		PilotRating:    r.PilotRating,
		MilitaryRating: r.MilitaryRating,
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		Altitude:       r.Altitude,
		Groundspeed:    r.Groundspeed,
		Transponder:    r.Transponder,
		Heading:        r.Heading,
		QNHInHg:        r.QNHInHg,
		QNHMb:          r.QNHMb,
		FlightPlan:     r.FlightPlan,
		LogonTime:      logon,
		LastUpdated:    updated,
	}, nil
}

func (r *rawController) project(path string) (Controller, error) {
	switch {
	case r.CID == nil:
		return Controller{}, &MissingFieldError{Path: path + ".cid"}
	case r.Callsign == nil:
		return Controller{}, &MissingFieldError{Path: path + ".callsign"}
	case r.Frequency == nil:
		return Controller{}, &MissingFieldError{Path: path + ".frequency"}
	case r.Facility == nil:
		return Controller{}, &MissingFieldError{Path: path + ".facility"}
	}

	logon, err := parseOptionalTime(path+".logon_time", r.LogonTime)
	if err != nil {
		return Controller{}, err
	}
	updated, err := parseOptionalTime(path+".last_updated", r.LastUpdated)
	if err != nil {
		return Controller{}, err
	}

	return Controller{
		CID:         *r.CID,
		Name:        r.Name,
		Callsign:    *r.Callsign,
		Frequency:   *r.Frequency,
		Facility:    FacilityType(*r.Facility),
		Rating:      r.Rating,
		Server:      r.Server,
		VisualRange: r.VisualRange,
		TextATIS:    r.TextATIS,
		LogonTime:   logon,
		LastUpdated: updated,
	}, nil
}

func (r *rawATIS) project(path string) (ATIS, error) {
	switch {
	case r.CID == nil:
		return ATIS{}, &MissingFieldError{Path: path + ".cid"}
	case r.Callsign == nil:
		return ATIS{}, &MissingFieldError{Path: path + ".callsign"}
	}

	logon, err := parseOptionalTime(path+".logon_time", r.LogonTime)
	if err != nil {
		return ATIS{}, err
	}
	updated, err := parseOptionalTime(path+".last_updated", r.LastUpdated)
	if err != nil {
		return ATIS{}, err
	}

	var code string
	if r.ATISCode != nil {
		code = *r.ATISCode
	}

	return ATIS{
		CID:         *r.CID,
		Name:        r.Name,
		Callsign:    *r.Callsign,
		Frequency:   r.Frequency,
		Facility:    FacilityType(r.Facility),
		Rating:      r.Rating,
		Server:      r.Server,
		VisualRange: r.VisualRange,
		ATISCode:    code,
		TextATIS:    r.TextATIS,
		LogonTime:   logon,
		LastUpdated: updated,
	}, nil
}

func (r *rawServer) project(path string) (Server, error) {
	switch {
	case r.Ident == nil:
		return Server{}, &MissingFieldError{Path: path + ".ident"}
	case r.HostnameOrIP == nil:
		return Server{}, &MissingFieldError{Path: path + ".hostname_or_ip"}
	}
	return Server{
		Ident:                    *r.Ident,
		HostnameOrIP:             *r.HostnameOrIP,
		Location:                 r.Location,
		Name:                     r.Name,
		ClientsConnectionAllowed: r.ClientsConnectionAllowed,
		ClientConnectionsAllowed: r.ClientConnectionsAllowed,
		IsSweatbox:               r.IsSweatbox,
	}, nil
}

// parseOptionalTime accepts an empty string as "not reported" but rejects
// values that are present and malformed
func parseOptionalTime(path, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
