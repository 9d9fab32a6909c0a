package views

import (
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"picmon/internal/modules/monitoring/live"
)

const (
	ChartTitle  = "Gross Weight Comparison (Last 10 Records)"
	chartWidth  = 960
	chartHeight = 360
)

const emptyChartSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">` +
	`<rect width="100%%" height="100%%" fill="#ffffff"/>` +
	`<text x="50%%" y="45%%" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#111827">%s</text>` +
	`<text x="50%%" y="55%%" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#6b7280">No data yet</text>` +
	`</svg>`

// RenderChartSVG draws one line per chart column. A snapshot without points
// or columns renders a static placeholder.
func RenderChartSVG(w io.Writer, snap live.Snapshot, palette live.Palette) error {
	if len(snap.Series) == 0 || len(snap.Columns) == 0 {
		_, err := fmt.Fprintf(w, emptyChartSVG, chartWidth, chartHeight, chartWidth, chartHeight, ChartTitle)
		return err
	}

	points := snap.Series
	// go-chart needs two distinct x values; a lone point becomes a flat segment.
	if len(points) == 1 {
		points = []live.Point{points[0], {Weights: points[0].Weights}}
	}

	xs := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Label}
	}

	lo, hi := 0.0, 0.0
	series := make([]chart.Series, 0, len(snap.Columns))
	for col, id := range snap.Columns {
		ys := make([]float64, len(points))
		for i, p := range points {
			v := p.Weights[id]
			ys[i] = v
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		color := colorFromHex(palette.Color(id, col))
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("PIC %d", id),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	lo, hi = yBounds(lo, hi)

	ch := chart.Chart{
		Title:  ChartTitle,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(xs) - 1)},
		},
		YAxis: chart.YAxis{
			Name:  "kg",
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return live.FormatWeight(f, live.ChartDecimals)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return ch.Render(chart.SVG, w)
}

// yBounds pads the data range so lines never touch the frame.
func yBounds(lo, hi float64) (float64, float64) {
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.1
	if lo < 0 {
		lo -= pad
	}
	return lo, hi + pad
}

func colorFromHex(c string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
}
