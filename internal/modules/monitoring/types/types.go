package types

import (
	"errors"
	"strings"
	"time"
)

// Reading is one decoded message from the live feed.
type Reading struct {
	StationID    int       `json:"id"`
	PackA        float64   `json:"packA"`
	PackB        float64   `json:"packB"`
	PackC        float64   `json:"packC"`
	GrossWeight  float64   `json:"grossWeight"`
	RejectWeight float64   `json:"rejectWeight"`
	Timestamp    string    `json:"ts"`
	Time         time.Time `json:"time"`
}

// Record is one row of the recent-records table. Any field may be absent
// when it comes from the history endpoint.
type Record struct {
	ID           *int64   `json:"id,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	StationID    *int     `json:"picId,omitempty"`
	PackA        *float64 `json:"packA,omitempty"`
	PackB        *float64 `json:"packB,omitempty"`
	PackC        *float64 `json:"packC,omitempty"`
	GrossWeight  *float64 `json:"grossWeight,omitempty"`
	RejectWeight *float64 `json:"rejectWeight,omitempty"`
}

// Record flattens a streamed reading into a table row. Streamed rows have
// no row id and no creation time.
func (r Reading) Record() Record {
	id := r.StationID
	packA, packB, packC := r.PackA, r.PackB, r.PackC
	gross, reject := r.GrossWeight, r.RejectWeight
	return Record{
		Timestamp:    r.Timestamp,
		StationID:    &id,
		PackA:        &packA,
		PackB:        &packB,
		PackC:        &packC,
		GrossWeight:  &gross,
		RejectWeight: &reject,
	}
}

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts RFC 3339 and zone-less ISO forms. Zone-less values
// are interpreted in loc (UTC when loc is nil).
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// ArchivedStation summarizes the readings stored locally for one station.
type ArchivedStation struct {
	StationID int       `json:"picId"`
	Readings  int       `json:"readings"`
	LastSeen  time.Time `json:"lastSeen"`
}
