package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fleetiq/courier/core/events"
)

var sample = []events.TeamStanding{
	{Team: "alpha", Points: 12, TravelDistance: 3400},
	{Team: "beta", Points: 9.5, TravelDistance: 2100},
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []events.TeamStanding
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Team != "alpha" || got[1].Points != 9.5 {
		t.Fatalf("unexpected rows %v", got)
	}
}

func TestWriteCSVHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "team,points,travel_distance_mm" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "alpha,12,3400" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestWriteTableAligned(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "TEAM") || !strings.Contains(out, "beta") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}
