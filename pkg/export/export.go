package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fleetiq/courier/core/events"
)

// WriteJSON writes the standings to w in JSON format.
func WriteJSON(w io.Writer, standings []events.TeamStanding) error {
	enc := json.NewEncoder(w)
	return enc.Encode(standings)
}

// WriteCSV writes the standings to w in CSV format.
func WriteCSV(w io.Writer, standings []events.TeamStanding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"team", "points", "travel_distance_mm"}); err != nil {
		return err
	}
	for _, s := range standings {
		rec := []string{
			s.Team,
			strconv.FormatFloat(s.Points, 'f', -1, 64),
			strconv.FormatFloat(s.TravelDistance, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes the standings to w as an aligned text table.
func WriteTable(w io.Writer, standings []events.TeamStanding) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "TEAM\tPOINTS\tTRAVEL(mm)"); err != nil {
		return err
	}
	for _, s := range standings {
		if _, err := fmt.Fprintf(tw, "%s\t%.1f\t%.0f\n", s.Team, s.Points, s.TravelDistance); err != nil {
			return err
		}
	}
	return tw.Flush()
}
