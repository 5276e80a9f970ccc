package live

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yegors/vatsim-utils/internal/upstreamtest"
	"github.com/yegors/vatsim-utils/pkg/geometry"
)

func callsigns[T any](items []T, callsign func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, callsign(it))
	}
	return out
}

func pilotCallsign(p Pilot) string           { return p.Callsign }
func controllerCallsign(c Controller) string { return c.Callsign }
func atisCallsign(a ATIS) string             { return a.Callsign }

func TestSnapshotLookups(t *testing.T) {
	snap := mustParse(t, upstreamtest.LiveData(published), published)

	t.Run("pilot by callsign", func(t *testing.T) {
		p, ok := snap.PilotByCallsign("AAL123")
		if !ok {
			t.Fatal("Expected AAL123 to be found")
		}
		if p.CID != 1234567 {
			t.Errorf("Expected CID 1234567, got %d", p.CID)
		}
	})

	t.Run("callsign lookup is case sensitive", func(t *testing.T) {
		if _, ok := snap.PilotByCallsign("aal123"); ok {
			t.Error("Expected lower-case callsign to miss")
		}
	})

	t.Run("pilot by cid", func(t *testing.T) {
		p, ok := snap.PilotByCID(1234569)
		if !ok || p.Callsign != "N172SP" {
			t.Errorf("Expected N172SP, got %q (found=%v)", p.Callsign, ok)
		}
		if _, ok := snap.PilotByCID(1); ok {
			t.Error("Expected unknown CID to miss")
		}
	})

	t.Run("controller by callsign", func(t *testing.T) {
		c, ok := snap.ControllerByCallsign("SAN_TWR")
		if !ok {
			t.Fatal("Expected SAN_TWR to be found")
		}
		if c.Frequency != "118.300" || c.Facility != FacilityTower {
			t.Errorf("Expected 118.300 TWR, got %s %s", c.Frequency, c.Facility)
		}
		if _, ok := snap.ControllerByCallsign("JFK_TWR"); ok {
			t.Error("Expected JFK_TWR to miss")
		}
	})

	t.Run("atis by callsign", func(t *testing.T) {
		a, ok := snap.ATISByCallsign("KSAN_ATIS")
		if !ok || a.ATISCode != "B" {
			t.Errorf("Expected KSAN_ATIS code B, got %q (found=%v)", a.ATISCode, ok)
		}
	})

	t.Run("controllers by facility type", func(t *testing.T) {
		got := callsigns(snap.ControllersByFacilityType(FacilityCenter), controllerCallsign)
		if diff := cmp.Diff([]string{"LAX_CTR"}, got); diff != "" {
			t.Errorf("center controllers mismatch (-want +got):\n%s", diff)
		}
		if got := snap.ControllersByFacilityType(FacilityApproach); len(got) != 0 {
			t.Errorf("Expected no approach controllers, got %d", len(got))
		}
	})
}

func TestSnapshotReturnsDetachedCopies(t *testing.T) {
	snap := mustParse(t, upstreamtest.LiveData(published), published)

	p, _ := snap.PilotByCallsign("AAL123")
	p.FlightPlan.Arrival = "KSFO"
	p.Altitude = 99999

	again, _ := snap.PilotByCallsign("AAL123")
	if again.FlightPlan.Arrival != "KLAX" {
		t.Errorf("Expected shared flight plan to be untouched, got %s", again.FlightPlan.Arrival)
	}
	if again.Altitude != 1500 {
		t.Errorf("Expected altitude 1500, got %d", again.Altitude)
	}

	c, _ := snap.ControllerByCallsign("SAN_TWR")
	c.TextATIS[0] = "changed"
	again2, _ := snap.ControllerByCallsign("SAN_TWR")
	if again2.TextATIS[0] != "San Diego Tower" {
		t.Errorf("Expected shared controller info to be untouched, got %s", again2.TextATIS[0])
	}
}

func TestATISText(t *testing.T) {
	snap := mustParse(t, upstreamtest.LiveData(published), published)

	text, ok := snap.ATISText("KSAN")
	if !ok {
		t.Fatal("Expected ATIS for KSAN")
	}
	if want := "SAN DIEGO INFORMATION BRAVO WIND 270 AT 10"; text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}

	text, ok = snap.ATISText("klax")
	if !ok || text != "LOS ANGELES DEPARTURE INFORMATION CHARLIE" {
		t.Errorf("Expected KLAX departure ATIS, got %q (found=%v)", text, ok)
	}

	if _, ok := snap.ATISText("KJFK"); ok {
		t.Error("Expected no ATIS for KJFK")
	}
}

func TestAtFacility(t *testing.T) {
	snap := mustParse(t, upstreamtest.LiveData(published), published)

	view := snap.AtFacility("ksan")
	if view.Code != "KSAN" {
		t.Errorf("Expected code KSAN, got %s", view.Code)
	}
	if diff := cmp.Diff([]string{"SAN_GND", "SAN_TWR"}, callsigns(view.Controllers, controllerCallsign)); diff != "" {
		t.Errorf("controllers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"KSAN_ATIS"}, callsigns(view.ATIS, atisCallsign)); diff != "" {
		t.Errorf("atis mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAL123"}, callsigns(view.Departures, pilotCallsign)); diff != "" {
		t.Errorf("departures mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SWA456"}, callsigns(view.Arrivals, pilotCallsign)); diff != "" {
		t.Errorf("arrivals mismatch (-want +got):\n%s", diff)
	}
	if view.IsEmpty() {
		t.Error("Expected KSAN view to be populated")
	}

	if !snap.AtFacility("YSSY").IsEmpty() {
		t.Error("Expected YSSY view to be empty")
	}
}

func TestPilotsWithin(t *testing.T) {
	snap := mustParse(t, upstreamtest.LiveData(published), published)
	ksan := geometry.Coordinate{Latitude: 32.7338, Longitude: -117.1933}

	got := callsigns(snap.PilotsWithin(ksan, 30), pilotCallsign)
	if diff := cmp.Diff([]string{"N172SP", "AAL123", "N5432X"}, got); diff != "" {
		t.Errorf("nearby pilots mismatch (-want +got):\n%s", diff)
	}

	if got := snap.PilotsWithin(ksan, 0); len(got) != 0 {
		t.Errorf("Expected nobody within 0 NM, got %v", callsigns(got, pilotCallsign))
	}
}

func TestMatchesFacility(t *testing.T) {
	tests := []struct {
		callsign string
		code     string
		want     bool
	}{
		{"KSAN_ATIS", "KSAN", true},
		{"SAN_TWR", "KSAN", true},
		{"SAN_TWR", "san", true},
		{"SAN_TWR", "SAN", true},
		{"KLAX_D_ATIS", "KLAX", true},
		{"LAX_CTR", "KSAN", false},
		{"EGLL_TWR", "EGLL", true},
		{"GLL_TWR", "EGLL", false},
		{"SANT_TWR", "KSAN", false},
		{"SAN_TWR", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.callsign+"/"+tt.code, func(t *testing.T) {
			if got := MatchesFacility(tt.callsign, tt.code); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFacilityTypeString(t *testing.T) {
	if FacilityApproach.String() != "APP" {
		t.Errorf("Expected APP, got %s", FacilityApproach)
	}
	if FacilityType(42).String() != "UNKNOWN" {
		t.Errorf("Expected UNKNOWN, got %s", FacilityType(42))
	}
}
