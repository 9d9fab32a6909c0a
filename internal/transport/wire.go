package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"

	"picmon/internal/modules/monitoring/types"
)

var (
	ErrMissingStationID = errors.New("missing ID")
	ErrMissingTimestamp = errors.New("missing ts")
)

// wireReading is the feed's message shape. Every numeric field is wrapped in
// a single-element array; only index 0 is meaningful.
type wireReading struct {
	ID           []float64 `json:"ID"`
	PackA        []float64 `json:"Pack A"`
	PackB        []float64 `json:"Pack B"`
	PackC        []float64 `json:"Pack C"`
	GrossWeight  []float64 `json:"Gross Weight"`
	RejectWeight []float64 `json:"Reject Weight"`
	TS           string    `json:"ts"`
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// DecodeReading parses one feed message. Messages without an ID or with an
// unparseable ts are rejected; missing numeric fields decode as zero.
func DecodeReading(payload []byte, loc *time.Location) (types.Reading, error) {
	var w wireReading
	if err := json.Unmarshal(payload, &w); err != nil {
		return types.Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if len(w.ID) == 0 {
		return types.Reading{}, ErrMissingStationID
	}
	if w.TS == "" {
		return types.Reading{}, ErrMissingTimestamp
	}
	ts, err := types.ParseTimestamp(w.TS, loc)
	if err != nil {
		return types.Reading{}, fmt.Errorf("ts %q: %w", w.TS, err)
	}
	return types.Reading{
		StationID:    int(w.ID[0]),
		PackA:        first(w.PackA),
		PackB:        first(w.PackB),
		PackC:        first(w.PackC),
		GrossWeight:  first(w.GrossWeight),
		RejectWeight: first(w.RejectWeight),
		Timestamp:    w.TS,
		Time:         ts,
	}, nil
}

// EncodeReading renders r in the feed's message shape.
func EncodeReading(r types.Reading) ([]byte, error) {
	ts := r.Timestamp
	if ts == "" {
		ts = r.Time.Format(time.RFC3339Nano)
	}
	return json.Marshal(wireReading{
		ID:           []float64{float64(r.StationID)},
		PackA:        []float64{r.PackA},
		PackB:        []float64{r.PackB},
		PackC:        []float64{r.PackC},
		GrossWeight:  []float64{r.GrossWeight},
		RejectWeight: []float64{r.RejectWeight},
		TS:           ts,
	})
}
