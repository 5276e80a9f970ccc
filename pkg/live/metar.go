package live

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/yegors/vatsim-utils/pkg/fetch"
)

// ErrNoStations is returned when a METAR request names no station
var ErrNoStations = errors.New("at least one station is required")

var (
	// RMK T-group, e.g. T01780122: sign digit then tenths of a degree
	reTGroup = regexp.MustCompile(`\bT([01])(\d{3})([01])(\d{3})\b`)
	// Temperature/dewpoint group, e.g. 18/12 or M02/M10
	reTempDew = regexp.MustCompile(`\s(M)?(\d{2})/(M)?(\d{2})\s`)
	// Altimeter in inches (A2992) or hectopascals (Q1013)
	reAltimeter = regexp.MustCompile(`\s([AQ])(\d{4})\b`)
)

// METAR is one raw weather report as served by the network
type METAR struct {
	Station string `json:"station"`
	Raw     string `json:"raw"`
}

// Temperature returns the air temperature in Celsius. The precise remarks
// group is preferred over the whole-degree main group.
func (m METAR) Temperature() (float64, bool) {
	if t, _, ok := m.precise(); ok {
		return t, true
	}
	t, _, ok := m.whole()
	return t, ok
}

// Dewpoint returns the dewpoint in Celsius
func (m METAR) Dewpoint() (float64, bool) {
	if _, d, ok := m.precise(); ok {
		return d, true
	}
	_, d, ok := m.whole()
	return d, ok
}

// AltimeterHPa returns the reported pressure setting in hectopascals
func (m METAR) AltimeterHPa() (float64, bool) {
	matches := reAltimeter.FindStringSubmatch(m.body())
	if len(matches) != 3 {
		return 0, false
	}
	val, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return 0, false
	}
	if matches[1] == "A" {
		// Inches of mercury to hectopascals
		return val / 100 * 33.8639, true
	}
	return val, true
}

// body is the report without remarks
func (m METAR) body() string {
	body, _, _ := strings.Cut(m.Raw, " RMK ")
	return " " + body + " "
}

func (m METAR) precise() (temp, dew float64, ok bool) {
	_, rmk, found := strings.Cut(m.Raw, " RMK ")
	if !found {
		return 0, 0, false
	}
	matches := reTGroup.FindStringSubmatch(rmk)
	if len(matches) != 5 {
		return 0, 0, false
	}
	temp = tenths(matches[1], matches[2])
	dew = tenths(matches[3], matches[4])
	return temp, dew, true
}

func (m METAR) whole() (temp, dew float64, ok bool) {
	matches := reTempDew.FindStringSubmatch(m.body())
	if len(matches) != 5 {
		return 0, 0, false
	}
	temp, _ = strconv.ParseFloat(matches[2], 64)
	if matches[1] == "M" {
		temp = -temp
	}
	dew, _ = strconv.ParseFloat(matches[4], 64)
	if matches[3] == "M" {
		dew = -dew
	}
	return temp, dew, true
}

func tenths(sign, digits string) float64 {
	val, _ := strconv.ParseFloat(digits, 64)
	val /= 10
	if sign == "1" {
		val = -val
	}
	return val
}

// parseMETARs splits a plain-text response into one report per line
func parseMETARs(body []byte) []METAR {
	out := []METAR{}
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line == "" {
			continue
		}
		station, _, _ := strings.Cut(line, " ")
		out = append(out, METAR{Station: station, Raw: line})
	}
	return out
}

// FetchMETAR returns the current reports for the given stations. Stations the
// network has no report for are absent from the result.
func (c *Client) FetchMETAR(ctx context.Context, stations ...string) ([]METAR, error) {
	ids := make([]string, 0, len(stations))
	for _, s := range stations {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			ids = append(ids, s)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoStations
	}

	metarURL, err := c.endpoint(ctx, feedMETAR)
	if err != nil {
		return nil, err
	}
	if metarURL == "" {
		return nil, &fetch.ParseError{URL: c.config.StatusURL, Err: ErrNoMETARURL}
	}

	u, err := url.Parse(metarURL)
	if err != nil {
		return nil, &fetch.ParseError{URL: metarURL, Err: fmt.Errorf("invalid METAR URL: %w", err)}
	}
	q := u.Query()
	q.Set("id", strings.Join(ids, ","))
	u.RawQuery = q.Encode()

	body, err := c.getter.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return parseMETARs(body), nil
}

// METAR fetches the current report for one station. The result is not cached.
func (s *Service) METAR(ctx context.Context, station string) (METAR, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	reports, err := s.client.FetchMETAR(ctx, station)
	if err != nil {
		return METAR{}, false, err
	}
	want := strings.ToUpper(strings.TrimSpace(station))
	for _, r := range reports {
		if r.Station == want {
			return r, true, nil
		}
	}
	return METAR{}, false, nil
}
