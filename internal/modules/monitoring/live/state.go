// Package live holds the in-memory aggregation of the live feed: the latest
// reading per station, a short rolling weight series for the chart and the
// recent-records list for the table.
package live

import (
	"maps"
	"slices"
	"sync"
	"time"

	"picmon/internal/modules/monitoring/types"
)

const (
	DefaultMaxSeries  = 10
	DefaultMaxRecords = 20

	// SeriesLabelLayout keys chart points. Readings within the same second
	// share one point.
	SeriesLabelLayout = "15:04:05"
)

type Options struct {
	Policy     Policy
	Stations   []int
	MaxSeries  int
	MaxRecords int
	Location   *time.Location
}

// Point is one chart entry: a time label and the gross weight per station.
type Point struct {
	Label   string          `json:"timestamp"`
	Weights map[int]float64 `json:"weights"`
}

// Snapshot is a copy of the state safe to hand to readers.
type Snapshot struct {
	Version  uint64                `json:"version"`
	Latest   map[int]types.Reading `json:"latest"`
	Series   []Point               `json:"series"`
	Columns  []int                 `json:"columns"`
	Records  []types.Record        `json:"records"`
	Stations []int                 `json:"stations"`
}

// State is safe for concurrent use. Writers are serialized; every update
// replaces the previous collections instead of mutating them.
type State struct {
	mu   sync.RWMutex
	opts Options

	version uint64
	latest  map[int]types.Reading
	series  []Point
	records []types.Record
	seen    []int
}

func New(opts Options) *State {
	if opts.Policy == "" {
		opts.Policy = PolicyFixed
	}
	if opts.MaxSeries <= 0 {
		opts.MaxSeries = DefaultMaxSeries
	}
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	opts.Stations = slices.Clone(opts.Stations)
	return &State{
		opts:   opts,
		latest: map[int]types.Reading{},
	}
}

// SeriesLabel formats t the way chart points are keyed.
func SeriesLabel(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(SeriesLabelLayout)
}

// Apply folds one reading into the state.
func (s *State) Apply(r types.Reading) {
	label := SeriesLabel(r.Time, s.opts.Location)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = updateLatest(s.latest, r)
	if !slices.Contains(s.seen, r.StationID) {
		s.seen = append(slices.Clone(s.seen), r.StationID)
	}
	s.series = updateSeries(s.series, s.columns(), r.StationID, Round(r.GrossWeight, ChartDecimals), label, s.opts.MaxSeries)
	s.records = updateRecords(s.records, r.Record(), s.opts.MaxRecords)
	s.version++
}

// ReplaceRecords swaps the recent-records list for a fetched one.
func (s *State) ReplaceRecords(records []types.Record) {
	if len(records) > s.opts.MaxRecords {
		records = records[:s.opts.MaxRecords]
	}
	next := slices.Clone(records)

	s.mu.Lock()
	s.records = next
	s.version++
	s.mu.Unlock()
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := make([]Point, len(s.series))
	for i, p := range s.series {
		series[i] = Point{Label: p.Label, Weights: maps.Clone(p.Weights)}
	}
	return Snapshot{
		Version:  s.version,
		Latest:   maps.Clone(s.latest),
		Series:   series,
		Columns:  slices.Clone(s.columns()),
		Records:  slices.Clone(s.records),
		Stations: s.cardStations(),
	}
}

func (s *State) Location() *time.Location {
	return s.opts.Location
}

func (s *State) columns() []int {
	if s.opts.Policy == PolicyFixed {
		return s.opts.Stations
	}
	return s.seen
}

// cardStations lists the configured stations until the first reading
// arrives, then every station with a reading in ascending id order.
func (s *State) cardStations() []int {
	if len(s.latest) == 0 {
		return slices.Clone(s.opts.Stations)
	}
	return slices.Sorted(maps.Keys(s.latest))
}

func updateLatest(latest map[int]types.Reading, r types.Reading) map[int]types.Reading {
	out := make(map[int]types.Reading, len(latest)+1)
	maps.Copy(out, latest)
	out[r.StationID] = r
	return out
}

// updateSeries overwrites the station's value when a point with label already
// exists. Otherwise it appends a point carrying forward the previous value of
// every column and drops the oldest points beyond max.
func updateSeries(series []Point, columns []int, station int, value float64, label string, max int) []Point {
	for i := range series {
		if series[i].Label != label {
			continue
		}
		out := slices.Clone(series)
		w := maps.Clone(out[i].Weights)
		if w == nil {
			w = map[int]float64{}
		}
		w[station] = value
		out[i] = Point{Label: label, Weights: w}
		return out
	}

	var last map[int]float64
	if n := len(series); n > 0 {
		last = series[n-1].Weights
	}
	w := make(map[int]float64, len(columns)+1)
	for _, id := range columns {
		w[id] = last[id]
	}
	w[station] = value

	out := make([]Point, 0, len(series)+1)
	out = append(out, series...)
	out = append(out, Point{Label: label, Weights: w})
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

func updateRecords(records []types.Record, rec types.Record, max int) []types.Record {
	n := len(records) + 1
	if max > 0 && n > max {
		n = max
	}
	out := make([]types.Record, 0, n)
	out = append(out, rec)
	out = append(out, records...)
	return out[:n]
}
