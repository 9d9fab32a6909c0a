package views

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/types"
	"picmon/internal/transport"
)

func TestLoadTemplates_success(t *testing.T) {
	require.NoError(t, LoadTemplates())
	assert.NotNil(t, dashboardTmpl)
}

func TestLoadTemplates_failure(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		assert.Error(t, loadTemplatesFromFS(fstest.MapFS{}, "templates"))
	})
	t.Run("bad syntax", func(t *testing.T) {
		badFS := fstest.MapFS{
			"templates/dashboard.html":        {Data: []byte("{{ .")},
			"templates/partials/status.html": {Data: []byte("ok")},
		}
		assert.Error(t, loadTemplatesFromFS(badFS, "templates"))
	})
}

func TestRender_notLoaded(t *testing.T) {
	prev := dashboardTmpl
	dashboardTmpl = nil
	t.Cleanup(func() { dashboardTmpl = prev })

	var buf bytes.Buffer
	err := RenderDashboard(&buf, DashboardData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded")
	assert.ErrorIs(t, RenderStatusPartial(&buf, StatusData{}), errNotLoaded)
}

func sampleState(t *testing.T) *live.State {
	t.Helper()
	s := live.New(live.Options{Stations: []int{556, 331}, Location: time.UTC})
	at := time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC)
	s.Apply(types.Reading{
		StationID: 556, PackA: 4, PackB: 2, PackC: 1,
		GrossWeight: 12.345, RejectWeight: 0.26,
		Timestamp: at.Format(time.RFC3339), Time: at,
	})
	return s
}

func TestRenderDashboard(t *testing.T) {
	require.NoError(t, LoadTemplates())
	snap := sampleState(t).Snapshot()
	data := BuildDashboard(snap, transport.StatusConnected, live.NewPalette(live.DefaultColors), 20, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, data))
	out := buf.String()

	assert.Contains(t, out, "<title>PIC Monitoring</title>")
	assert.Contains(t, out, "Status: Connected")
	assert.Contains(t, out, "badge-ok")
	assert.Contains(t, out, "PIC (ID: 556)")
	assert.NotContains(t, out, "PIC (ID: 331)", "cards follow readings once any arrived")
	assert.Contains(t, out, "12.3 kg")
	assert.Contains(t, out, "12.35 kg", "table uses two decimals")
	assert.NotContains(t, out, "Waiting for data")
	assert.Contains(t, out, `hx-get="/partials/table"`)
	assert.Contains(t, out, "/chart.svg?v=1")
}

func TestRenderPartials(t *testing.T) {
	require.NoError(t, LoadTemplates())

	t.Run("status not connected is red", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderStatusPartial(&buf, BuildStatus(transport.StatusError)))
		assert.Contains(t, buf.String(), "badge-bad")
		assert.Contains(t, buf.String(), "Status: Error")
		assert.NotContains(t, buf.String(), "<html")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderTablePartial(&buf, TableData{Max: 20}))
		assert.Contains(t, buf.String(), "No records.")
		assert.Contains(t, buf.String(), "Last 20 Records")
	})

	t.Run("chart", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderChartPartial(&buf, ChartData{Version: 7, Empty: true}))
		assert.Contains(t, buf.String(), "/chart.svg?v=7")
		assert.Contains(t, buf.String(), "Waiting for live readings.")
	})

	t.Run("cards", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderCardsPartial(&buf, CardsData{}))
		assert.Contains(t, buf.String(), "No stations configured.")
	})
}

func TestBuildCards(t *testing.T) {
	palette := live.NewPalette(live.DefaultColors)

	t.Run("placeholders before any reading", func(t *testing.T) {
		snap := live.New(live.Options{Stations: []int{556, 331}, Location: time.UTC}).Snapshot()
		cards := BuildCards(snap, palette, time.UTC).Cards

		require.Len(t, cards, 2)
		for _, c := range cards {
			assert.True(t, c.Placeholder)
			assert.Equal(t, "0.0", c.GrossWeight)
			assert.Equal(t, "-", c.Updated)
		}
	})

	t.Run("one card per station with a reading", func(t *testing.T) {
		s := sampleState(t)
		at := time.Date(2024, 3, 1, 9, 30, 16, 0, time.UTC)
		s.Apply(types.Reading{StationID: 999, GrossWeight: 3, Timestamp: at.Format(time.RFC3339), Time: at})

		cards := BuildCards(s.Snapshot(), palette, time.UTC).Cards

		require.Len(t, cards, 2)
		assert.Equal(t, Card{
			StationID: 556, Color: "#8884d8",
			PackA: "4", PackB: "2", PackC: "1",
			GrossWeight: "12.3", RejectWeight: "0.3",
			Updated: "2024-03-01 09:30:15",
		}, cards[0])
		assert.Equal(t, 999, cards[1].StationID, "unlisted stations still get a card")
		assert.False(t, cards[1].Placeholder)
	})
}

func TestBuildTable(t *testing.T) {
	id := int64(9)
	gross := 10.005
	snap := live.Snapshot{Records: []types.Record{
		{ID: &id, CreatedAt: "2024-01-01T00:00:00Z", GrossWeight: &gross},
		{},
	}}

	rows := BuildTable(snap, 20, time.UTC).Rows

	require.Len(t, rows, 2)
	assert.Equal(t, "9", rows[0].ID)
	assert.Equal(t, "2024-01-01 00:00:00", rows[0].CreatedAt)
	assert.Equal(t, "-", rows[0].Timestamp)
	assert.Equal(t, Row{
		CreatedAt: "-", Timestamp: "-", ID: "-", StationID: "-",
		GrossWeight: "0.00", PackA: "0", PackB: "0", PackC: "0", RejectWeight: "0.00",
	}, rows[1])
}

func TestRenderChartSVG(t *testing.T) {
	palette := live.NewPalette(live.DefaultColors)

	t.Run("placeholder without points", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderChartSVG(&buf, live.Snapshot{Columns: []int{556}}, palette))
		assert.True(t, strings.HasPrefix(buf.String(), "<svg"))
		assert.Contains(t, buf.String(), "No data yet")
	})

	t.Run("single point", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderChartSVG(&buf, sampleState(t).Snapshot(), palette))
		out := buf.String()
		assert.Contains(t, out, "<svg")
		assert.Contains(t, out, "09:30:15")
		assert.Contains(t, out, "PIC 556")
	})

	t.Run("several points and columns", func(t *testing.T) {
		s := sampleState(t)
		at := time.Date(2024, 3, 1, 9, 30, 16, 0, time.UTC)
		s.Apply(types.Reading{StationID: 331, GrossWeight: 8, Timestamp: at.Format(time.RFC3339), Time: at})

		var buf bytes.Buffer
		require.NoError(t, RenderChartSVG(&buf, s.Snapshot(), palette))
		out := buf.String()
		assert.Contains(t, out, "09:30:16")
		assert.Contains(t, out, "PIC 331")
		assert.Contains(t, out, ChartTitle)
	})
}

func TestYBounds(t *testing.T) {
	lo, hi := yBounds(0, 0)
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 1.1, hi, 1e-9)

	lo, hi = yBounds(-10, 10)
	assert.InDelta(t, -12, lo, 1e-9)
	assert.InDelta(t, 12, hi, 1e-9)
}
