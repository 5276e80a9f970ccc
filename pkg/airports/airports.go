// Package airports maps airport identifiers to their coordinates.
//
// A default table is bundled with the module and parsed on first use. Callers
// with a fuller dataset can build their own Table from any CSV in the same
// "ident,latitude,longitude" layout.
package airports

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/yegors/vatsim-utils/pkg/geometry"
)

//go:embed airports.csv
var bundled string

// Airport is a single identifier with its location
type Airport struct {
	Identifier string              `json:"identifier"`
	Coordinate geometry.Coordinate `json:"coordinate"`
}

// Table is an immutable identifier -> coordinate index
type Table struct {
	byIdent map[string]Airport
}

// NewTable parses a headered CSV of ident,latitude,longitude rows
func NewTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{byIdent: map[string]Airport{}}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read airport records: %w", err)
	}

	t := &Table{byIdent: make(map[string]Airport, len(records))}
	for i, record := range records {
		// Header is line 1
		line := i + 2
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", line, len(record))
		}

		ident := normalize(record[0])
		if ident == "" {
			return nil, fmt.Errorf("line %d: empty identifier", line)
		}

		lat, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude for %s: %w", line, ident, err)
		}
		lon, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude for %s: %w", line, ident, err)
		}

		coord := geometry.Coordinate{Latitude: lat, Longitude: lon}
		if !coord.Valid() {
			return nil, fmt.Errorf("line %d: coordinate out of range for %s: %s", line, ident, coord)
		}
		if _, dup := t.byIdent[ident]; dup {
			return nil, fmt.Errorf("line %d: duplicate identifier %s", line, ident)
		}

		t.byIdent[ident] = Airport{Identifier: ident, Coordinate: coord}
	}

	return t, nil
}

// Lookup returns the coordinate for an identifier. Identifiers are matched
// case-insensitively; unknown identifiers report false.
func (t *Table) Lookup(code string) (geometry.Coordinate, bool) {
	a, ok := t.byIdent[normalize(code)]
	return a.Coordinate, ok
}

// Airport returns the full record for an identifier
func (t *Table) Airport(code string) (Airport, bool) {
	a, ok := t.byIdent[normalize(code)]
	return a, ok
}

// Len returns the number of airports in the table
func (t *Table) Len() int {
	return len(t.byIdent)
}

// All returns every airport sorted by identifier
func (t *Table) All() []Airport {
	out := make([]Airport, 0, len(t.byIdent))
	for _, a := range t.byIdent {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

var loadDefault = sync.OnceValue(func() *Table {
	t, err := NewTable(strings.NewReader(bundled))
	if err != nil {
		// Bundled at build time, so this is a packaging bug
		panic(fmt.Sprintf("airports: bundled dataset is invalid: %v", err))
	}
	return t
})

// Default returns the bundled table
func Default() *Table {
	return loadDefault()
}

// Lookup queries the bundled table
func Lookup(code string) (geometry.Coordinate, bool) {
	return Default().Lookup(code)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
