package views

import (
	"slices"
	"strconv"
	"time"

	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/types"
	"picmon/internal/transport"
)

// RefreshInterval is how often the HTMX partials poll.
const RefreshInterval = "2s"

type StatusData struct {
	Label     string
	Connected bool
}

type Card struct {
	StationID    int
	Color        string
	PackA        string
	PackB        string
	PackC        string
	GrossWeight  string
	RejectWeight string
	Updated      string
	Placeholder  bool
}

type CardsData struct {
	Cards []Card
}

type ChartData struct {
	Version uint64
	Empty   bool
}

type Row struct {
	CreatedAt    string
	Timestamp    string
	ID           string
	StationID    string
	GrossWeight  string
	PackA        string
	PackB        string
	PackC        string
	RejectWeight string
}

type TableData struct {
	Rows []Row
	Max  int
}

type DashboardData struct {
	Title   string
	Refresh string
	Status  StatusData
	Cards   CardsData
	Chart   ChartData
	Table   TableData
}

func BuildStatus(s transport.Status) StatusData {
	return StatusData{Label: string(s), Connected: s == transport.StatusConnected}
}

// BuildCards renders one card per snapshot station. Before the first reading
// those are the configured stations as zeroed placeholders.
func BuildCards(snap live.Snapshot, palette live.Palette, loc *time.Location) CardsData {
	cards := make([]Card, 0, len(snap.Stations))
	for i, id := range snap.Stations {
		column := i
		if c := slices.Index(snap.Columns, id); c >= 0 {
			column = c
		}
		card := Card{StationID: id, Color: palette.Color(id, column)}
		r, ok := snap.Latest[id]
		if !ok {
			r = types.Reading{StationID: id}
			card.Placeholder = true
			card.Updated = "-"
		} else {
			card.Updated = live.FormatDate(r.Timestamp, loc)
		}
		card.PackA = formatPack(r.PackA)
		card.PackB = formatPack(r.PackB)
		card.PackC = formatPack(r.PackC)
		card.GrossWeight = live.FormatWeight(r.GrossWeight, live.ChartDecimals)
		card.RejectWeight = live.FormatWeight(r.RejectWeight, live.ChartDecimals)
		cards = append(cards, card)
	}
	return CardsData{Cards: cards}
}

func formatPack(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func BuildChart(snap live.Snapshot) ChartData {
	return ChartData{Version: snap.Version, Empty: len(snap.Series) == 0 || len(snap.Columns) == 0}
}

func BuildTable(snap live.Snapshot, max int, loc *time.Location) TableData {
	rows := make([]Row, 0, len(snap.Records))
	for _, rec := range snap.Records {
		rows = append(rows, Row{
			CreatedAt:    live.FormatDate(rec.CreatedAt, loc),
			Timestamp:    live.FormatDate(rec.Timestamp, loc),
			ID:           live.FormatID(rec.ID),
			StationID:    live.FormatID(rec.StationID),
			GrossWeight:  live.FormatOptionalWeight(rec.GrossWeight, live.TableDecimals),
			PackA:        live.FormatCount(rec.PackA),
			PackB:        live.FormatCount(rec.PackB),
			PackC:        live.FormatCount(rec.PackC),
			RejectWeight: live.FormatOptionalWeight(rec.RejectWeight, live.TableDecimals),
		})
	}
	return TableData{Rows: rows, Max: max}
}

func BuildDashboard(snap live.Snapshot, status transport.Status, palette live.Palette, max int, loc *time.Location) DashboardData {
	return DashboardData{
		Title:   "PIC Monitoring",
		Refresh: RefreshInterval,
		Status:  BuildStatus(status),
		Cards:   BuildCards(snap, palette, loc),
		Chart:   BuildChart(snap),
		Table:   BuildTable(snap, max, loc),
	}
}
