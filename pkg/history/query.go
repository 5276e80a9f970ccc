package history

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the layout the query API expects for date filters
const DateFormat = "2006-01-02"

// ErrInvalidQuery is returned for filter combinations the API cannot express
var ErrInvalidQuery = errors.New("invalid history query")

// Kind selects the record set a Query searches
type Kind string

const (
	KindConnections Kind = "connections"  // Network connections of a member
	KindATCSessions Kind = "atcsessions"  // ATC sessions of a member
	KindFlightPlans Kind = "flight_plans" // Flight plans filed by a member
	KindFacility    Kind = "facility"     // Staffing history of a position
)

// Query describes exactly one request against the query API.
//
// Callsign narrows ATC sessions to a position specifier such as "SAN_TWR" or
// "SAN_"; for facility queries it is the position being queried and is
// required. Start and End bound the session dates and are only accepted for
// ATC session and facility queries. Page 0 requests the first page.
type Query struct {
	Kind     Kind
	CID      int64
	Callsign string
	Start    time.Time
	End      time.Time
	Page     int
}

// Validate checks the filter combination
func (q Query) Validate() error {
	switch q.Kind {
	case KindConnections, KindFlightPlans:
		if q.CID <= 0 {
			return fmt.Errorf("%w: %s requires a CID", ErrInvalidQuery, q.Kind)
		}
		if q.Callsign != "" {
			return fmt.Errorf("%w: %s cannot filter by callsign", ErrInvalidQuery, q.Kind)
		}
		if !q.Start.IsZero() || !q.End.IsZero() {
			return fmt.Errorf("%w: %s cannot filter by date", ErrInvalidQuery, q.Kind)
		}
	case KindATCSessions:
		if q.CID <= 0 {
			return fmt.Errorf("%w: %s requires a CID", ErrInvalidQuery, q.Kind)
		}
	case KindFacility:
		if strings.TrimSpace(q.Callsign) == "" {
			return fmt.Errorf("%w: %s requires a callsign", ErrInvalidQuery, q.Kind)
		}
		if q.CID != 0 {
			return fmt.Errorf("%w: %s cannot filter by CID", ErrInvalidQuery, q.Kind)
		}
	case "":
		return fmt.Errorf("%w: kind is required", ErrInvalidQuery)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, q.Kind)
	}

	if !validCallsign(q.Callsign) {
		return fmt.Errorf("%w: callsign %q contains unsupported characters", ErrInvalidQuery, q.Callsign)
	}
	if q.Page < 0 {
		return fmt.Errorf("%w: page must be 0 or greater", ErrInvalidQuery)
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidQuery,
			q.End.Format(DateFormat), q.Start.Format(DateFormat))
	}
	return nil
}

// URL builds the request URL against base, e.g. "https://api.vatsim.net/api"
func (q Query) URL(base string) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}

	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	cid := strconv.FormatInt(q.CID, 10)
	callsign := strings.ToUpper(strings.TrimSpace(q.Callsign))

	switch q.Kind {
	case KindConnections:
		u = u.JoinPath("ratings", cid, "connections")
	case KindFlightPlans:
		u = u.JoinPath("ratings", cid, "flight_plans")
	case KindATCSessions:
		// The trailing slash is significant when no specifier follows
		u.Path = u.Path + "/ratings/" + cid + "/atcsessions/" + callsign
		u.RawPath = ""
	case KindFacility:
		u.Path = u.Path + "/facilities/" + callsign
		u.RawPath = ""
	}

	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if !q.Start.IsZero() {
		values.Set("start", q.Start.Format(DateFormat))
	}
	if !q.End.IsZero() {
		values.Set("date", q.End.Format(DateFormat))
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

// validCallsign accepts position specifiers such as "SAN_TWR", "SAN_" or "KSAN-A"
func validCallsign(cs string) bool {
	for _, r := range strings.TrimSpace(cs) {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
