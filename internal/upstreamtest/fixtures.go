package upstreamtest

import (
	"fmt"
	"time"
)

// StatusDocument returns a status document whose feeds live under base
func StatusDocument(base string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"v3":               []string{base + PathData},
			"transceivers":     []string{base + PathTransceivers},
			"servers":          []string{base + "/servers.json"},
			"servers_sweatbox": []string{base + "/sweatbox-servers.json"},
			"servers_all":      []string{base + "/all-servers.json"},
		},
		"user":  []string{base + "/api/v2/members"},
		"metar": []string{base + PathMETAR},
	}
}

// Marker formats a publication time the way upstream does in general.update
func Marker(published time.Time) string {
	return published.UTC().Format("20060102150405")
}

// LiveData returns a representative live-data document published at the
// given time. Records are deliberately out of callsign order and carry fields
// the parser does not know about.
//
// Pilots: SWA456 (KLAX-KSAN), AAL123 (KSAN-KLAX), N172SP (flight_plan null),
// DAL789 (KJFK-EGLL), N5432X (no flight_plan key).
// Controllers: SAN_TWR, LAX_CTR, SAN_GND (text_atis null).
// ATIS: KSAN_ATIS, KLAX_D_ATIS.
func LiveData(published time.Time) []byte {
	return []byte(fmt.Sprintf(liveDataTemplate, Marker(published), published.UTC().Format(time.RFC3339Nano)))
}

// EmptyLiveData returns a well-formed document with nobody connected
func EmptyLiveData(published time.Time) []byte {
	return []byte(fmt.Sprintf(`{
  "general": {
    "version": 3,
    "reload": 1,
    "update": %q,
    "update_timestamp": %q,
    "connected_clients": 0,
    "unique_users": 0
  },
  "pilots": [],
  "controllers": [],
  "atis": [],
  "servers": [],
  "prefiles": []
}`, Marker(published), published.UTC().Format(time.RFC3339Nano)))
}

// Transceivers returns a representative transceivers document
func Transceivers() []byte {
	return []byte(`[
  {
    "callsign": "SAN_TWR",
    "transceivers": [
      {"id": 0, "frequency": 118300000, "latDeg": 32.7338, "lonDeg": -117.1933, "heightMslM": 20.0, "heightAglM": 15.0}
    ]
  },
  {
    "callsign": "AAL123",
    "transceivers": [
      {"id": 0, "frequency": 118300000, "latDeg": 32.8, "lonDeg": -117.1, "heightMslM": 1500.2, "heightAglM": 1420.7},
      {"id": 1, "frequency": 121500000, "latDeg": 32.8, "lonDeg": -117.1, "heightMslM": 1500.2, "heightAglM": 1420.7}
    ]
  }
]`)
}

const liveDataTemplate = `{
  "general": {
    "version": 3,
    "reload": 1,
    "update": %q,
    "update_timestamp": %q,
    "connected_clients": 10,
    "unique_users": 10
  },
  "pilots": [
    {
      "cid": 1234568,
      "name": "Southwest Pilot",
      "callsign": "SWA456",
      "server": "USA-WEST",
      "pilot_rating": 1,
      "military_rating": 0,
      "latitude": 33.9,
      "longitude": -118.3,
      "altitude": 3000,
      "groundspeed": 210,
      "transponder": "4521",
      "heading": 140,
      "qnh_i_hg": 29.92,
      "qnh_mb": 1013,
      "flight_plan": {
        "flight_rules": "I",
        "aircraft": "B738/L",
        "aircraft_faa": "B738/L",
        "aircraft_short": "B738",
        "departure": "KLAX",
        "arrival": "KSAN",
        "alternate": "KONT",
        "cruise_tas": "440",
        "altitude": "17000",
        "deptime": "1200",
        "enroute_time": "0045",
        "fuel_time": "0300",
        "remarks": "/v/",
        "route": "SUMMR2 SUMMR",
        "revision_id": 1,
        "assigned_transponder": "4521"
      },
      "logon_time": "2024-01-01T11:30:00.0000000Z",
      "last_updated": "2024-01-01T12:00:10.0000000Z"
    },
    {
      "cid": 1234567,
      "name": "American Pilot",
      "callsign": "AAL123",
      "server": "USA-WEST",
      "pilot_rating": 3,
      "military_rating": 0,
      "latitude": 32.8,
      "longitude": -117.1,
      "altitude": 1500,
      "groundspeed": 180,
      "transponder": "2200",
      "heading": 290,
      "qnh_i_hg": 29.92,
      "qnh_mb": 1013,
      "flight_plan": {
        "flight_rules": "I",
        "aircraft": "A321/L",
        "aircraft_faa": "A321/L",
        "aircraft_short": "A321",
        "departure": "KSAN",
        "arrival": "KLAX",
        "alternate": "",
        "cruise_tas": "420",
        "altitude": "12000",
        "deptime": "1150",
        "enroute_time": "0040",
        "fuel_time": "0230",
        "remarks": "/v/",
        "route": "LOWMA3 LOWMA",
        "revision_id": 2,
        "assigned_transponder": "2200"
      },
      "logon_time": "2024-01-01T11:20:00Z",
      "last_updated": "2024-01-01T12:00:12Z",
      "some_future_field": {"nested": true}
    },
    {
      "cid": 1234569,
      "name": "GA Pilot",
      "callsign": "N172SP",
      "server": "USA-WEST",
      "pilot_rating": 0,
      "military_rating": 0,
      "latitude": 32.73,
      "longitude": -117.19,
      "altitude": 20,
      "groundspeed": 0,
      "transponder": "1200",
      "heading": 90,
      "qnh_i_hg": 29.92,
      "qnh_mb": 1013,
      "flight_plan": null,
      "logon_time": "2024-01-01T11:55:00Z",
      "last_updated": "2024-01-01T12:00:05Z"
    },
    {
      "cid": 1234570,
      "name": "Delta Pilot",
      "callsign": "DAL789",
      "server": "USA-EAST",
      "pilot_rating": 7,
      "military_rating": 0,
      "latitude": 40.6,
      "longitude": -73.7,
      "altitude": 0,
      "groundspeed": 0,
      "transponder": "1000",
      "heading": 40,
      "qnh_i_hg": 30.01,
      "qnh_mb": 1016,
      "flight_plan": {
        "flight_rules": "I",
        "aircraft": "B764/H",
        "aircraft_faa": "H/B764/L",
        "aircraft_short": "B764",
        "departure": "KJFK",
        "arrival": "EGLL",
        "alternate": "EGKK",
        "cruise_tas": "470",
        "altitude": "35000",
        "deptime": "2300",
        "enroute_time": "0650",
        "fuel_time": "0800",
        "remarks": "/v/",
        "route": "HAPIE DCT CYMON",
        "revision_id": 0,
        "assigned_transponder": "1000"
      },
      "logon_time": "2024-01-01T11:00:00Z",
      "last_updated": "2024-01-01T12:00:00Z"
    },
    {
      "cid": 1234571,
      "name": "Another GA Pilot",
      "callsign": "N5432X",
      "server": "USA-WEST",
      "pilot_rating": 0,
      "military_rating": 0,
      "latitude": 33.1,
      "longitude": -117.3,
      "altitude": 4500,
      "groundspeed": 100,
      "transponder": "1200",
      "heading": 180,
      "qnh_i_hg": 29.92,
      "qnh_mb": 1013,
      "logon_time": "2024-01-01T11:58:00Z",
      "last_updated": "2024-01-01T12:00:08Z"
    }
  ],
  "controllers": [
    {
      "cid": 2000001,
      "name": "Tower Controller",
      "callsign": "SAN_TWR",
      "frequency": "118.300",
      "facility": 4,
      "rating": 3,
      "server": "USA-WEST",
      "visual_range": 50,
      "text_atis": ["San Diego Tower", "Charts at vatsim.net"],
      "last_updated": "2024-01-01T12:00:00Z",
      "logon_time": "2024-01-01T10:00:00Z",
      "extra_field": true
    },
    {
      "cid": 2000002,
      "name": "Center Controller",
      "callsign": "LAX_CTR",
      "frequency": "132.600",
      "facility": 6,
      "rating": 5,
      "server": "USA-WEST",
      "visual_range": 600,
      "text_atis": ["Los Angeles Center"],
      "last_updated": "2024-01-01T12:00:00Z",
      "logon_time": "2024-01-01T09:00:00Z"
    },
    {
      "cid": 2000003,
      "name": "Ground Controller",
      "callsign": "SAN_GND",
      "frequency": "123.900",
      "facility": 3,
      "rating": 2,
      "server": "USA-WEST",
      "visual_range": 20,
      "text_atis": null,
      "last_updated": "2024-01-01T12:00:00Z",
      "logon_time": "2024-01-01T11:00:00Z"
    }
  ],
  "atis": [
    {
      "cid": 2000004,
      "name": "ATIS Operator",
      "callsign": "KSAN_ATIS",
      "frequency": "134.800",
      "facility": 4,
      "rating": 3,
      "server": "USA-WEST",
      "visual_range": 0,
      "atis_code": "B",
      "text_atis": ["SAN DIEGO INFORMATION BRAVO", "WIND 270 AT 10"],
      "last_updated": "2024-01-01T12:00:00Z",
      "logon_time": "2024-01-01T10:00:00Z"
    },
    {
      "cid": 2000005,
      "name": "ATIS Operator",
      "callsign": "KLAX_D_ATIS",
      "frequency": "135.650",
      "facility": 4,
      "rating": 3,
      "server": "USA-WEST",
      "visual_range": 0,
      "atis_code": null,
      "text_atis": ["LOS ANGELES DEPARTURE INFORMATION CHARLIE"],
      "last_updated": "2024-01-01T12:00:00Z",
      "logon_time": "2024-01-01T10:00:00Z"
    }
  ],
  "servers": [
    {
      "ident": "USA-WEST",
      "hostname_or_ip": "usa-west.vatsim.net",
      "location": "San Francisco, USA",
      "name": "USA-WEST",
      "clients_connection_allowed": 1,
      "client_connections_allowed": true,
      "is_sweatbox": false
    }
  ],
  "prefiles": [],
  "facilities": [
    {"id": 0, "short": "OBS", "long": "Observer"},
    {"id": 4, "short": "TWR", "long": "Tower"}
  ],
  "ratings": [
    {"id": 3, "short": "S2", "long": "Tower Trainee"}
  ],
  "pilot_ratings": [
    {"id": 0, "short_name": "NEW", "long_name": "Basic Member"}
  ],
  "military_ratings": []
}`

// METARs returns a plain-text METAR response covering KSAN and KLAX. The
// service answers the same text whichever stations are requested.
func METARs() []byte {
	return []byte("KSAN 011251Z 27008KT 10SM FEW015 18/12 A2992 RMK AO2 SLP132 T01780122\n" +
		"KLAX 011253Z 25010KT 10SM SCT020 M02/M05 Q1013\n\n")
}
