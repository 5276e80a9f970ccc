package history

// Paginated is one page of a query API result set
type Paginated[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Results  []T    `json:"results"`
}

// HasNext reports whether another page follows
func (p *Paginated[T]) HasNext() bool {
	return p.Next != ""
}

// UserRatingsSimple is a member's current ratings and membership
type UserRatingsSimple struct {
	ID               string  `json:"id"`
	Rating           int     `json:"rating"`
	PilotRating      int     `json:"pilot_rating"`
	SuspDate         *string `json:"susp_date"`
	RegDate          string  `json:"reg_date"`
	Region           string  `json:"region"`
	Division         string  `json:"division"`
	Subdivision      string  `json:"subdivision"`
	LastRatingChange string  `json:"lastratingchange"`
}

// RatingsTimeData is the hours a member has logged per rating
type RatingsTimeData struct {
	ID    float64 `json:"id"`
	ATC   float64 `json:"atc"`
	Pilot float64 `json:"pilot"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
	C1    float64 `json:"c1"`
	C2    float64 `json:"c2"`
	C3    float64 `json:"c3"`
	I1    float64 `json:"i1"`
	I2    float64 `json:"i2"`
	I3    float64 `json:"i3"`
	SUP   float64 `json:"sup"`
	ADM   float64 `json:"adm"`
}

// ConnectionEntry is one past network connection
type ConnectionEntry struct {
	ID       int64   `json:"id"`
	VatsimID string  `json:"vatsim_id"`
	Type     int     `json:"type"`
	Rating   int     `json:"rating"`
	Callsign string  `json:"callsign"`
	Start    string  `json:"start"`
	End      *string `json:"end"` // nil while still connected
	Server   string  `json:"server"`
}

// AtcSessionEntry is one past ATC session with its activity counters
type AtcSessionEntry struct {
	ConnectionID           int64   `json:"connection_id"`
	Start                  string  `json:"start"`
	End                    string  `json:"end"`
	Server                 string  `json:"server"`
	VatsimID               string  `json:"vatsim_id"`
	Type                   int     `json:"type"`
	Rating                 int     `json:"rating"`
	Callsign               string  `json:"callsign"`
	MinutesOnCallsign      string  `json:"minutes_on_callsign"`
	TotalMinutesOnCallsign float64 `json:"total_minutes_on_callsign"`
	TotalAircraftTracked   int64   `json:"total_aircraft_tracked"`
	TotalAircraftSeen      int64   `json:"total_aircraft_seen"`
	TotalFlightsAmended    int64   `json:"total_flights_amended"`
	TotalHandoffsInitiated int64   `json:"total_handoffs_initiated"`
	TotalHandoffsReceived  int64   `json:"total_handoffs_received"`
	TotalHandoffsRefused   int64   `json:"total_handoffs_refused"`
	TotalSquawksAssigned   int64   `json:"total_squawks_assigned"`
	TotalCruiseAltsMod     int64   `json:"total_cruisealts_modified"`
	TotalTempAltsMod       int64   `json:"total_tempalts_modified"`
	TotalScratchpadMods    int64   `json:"total_scratchpadmods"`
	AircraftTracked        int64   `json:"aircrafttracked"`
	AircraftSeen           int64   `json:"aircraftseen"`
	FlightsAmended         int64   `json:"flightsamended"`
	HandoffsInitiated      int64   `json:"handoffsinitiated"`
	HandoffsReceived       int64   `json:"handoffsreceived"`
	HandoffsRefused        int64   `json:"handoffsrefused"`
	SquawksAssigned        int64   `json:"squawksassigned"`
	CruiseAltsModified     int64   `json:"cruisealtsmodified"`
	TempAltsModified       int64   `json:"tempaltsmodified"`
	ScratchpadMods         int64   `json:"scratchpadmods"`
}

// RestFlightPlan is a flight plan as recorded by the query API. Its fields
// differ from the live feed's FlightPlan.
type RestFlightPlan struct {
	ID                 int64  `json:"id"`
	ConnectionID       int64  `json:"connection_id"`
	VatsimID           string `json:"vatsim_id"`
	FlightType         string `json:"flight_type"`
	Callsign           string `json:"callsign"`
	Aircraft           string `json:"aircraft"`
	CruiseSpeed        string `json:"cruisespeed"`
	Departure          string `json:"dep"`
	Arrival            string `json:"arr"`
	Alternate          string `json:"alt"`
	Altitude           string `json:"altitude"`
	Remarks            string `json:"rmks"`
	Route              string `json:"route"`
	DepTime            string `json:"deptime"`
	HoursEnroute       int    `json:"hrsenroute"`
	MinutesEnroute     int    `json:"minenroute"`
	HoursFuel          int    `json:"hrsfuel"`
	MinutesFuel        int    `json:"minfuel"`
	Filed              string `json:"filed"`
	AssignedSquawk     string `json:"assignedsquawk"`
	ModifiedByCID      string `json:"modifiedbycid"`
	ModifiedByCallsign string `json:"modifiedbycallsign"`
}

// Region is a VATSIM region
type Region struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Director string `json:"director"`
}

// Facility is a position currently staffed by ATC
type Facility struct {
	ID        int64  `json:"id"`
	Callsign  string `json:"callsign"`
	Frequency string `json:"frequency"`
	VatsimID  string `json:"vatsim_id"`
	Rating    int    `json:"rating"`
	Start     string `json:"start"`
}
