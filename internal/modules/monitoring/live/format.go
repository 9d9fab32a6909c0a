package live

import (
	"math"
	"strconv"
	"time"

	"picmon/internal/modules/monitoring/types"
)

const (
	// ChartDecimals is used for chart points and cards.
	ChartDecimals = 1
	// TableDecimals is used for the recent-records table.
	TableDecimals = 2

	dateTimeLayout = "2006-01-02 15:04:05"
)

// Round rounds half away from zero on the scaled value.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// FormatWeight renders v with exactly places decimals.
func FormatWeight(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', places, 64)
}

// FormatOptionalWeight renders an absent value as zero.
func FormatOptionalWeight(v *float64, places int) string {
	if v == nil {
		return FormatWeight(0, places)
	}
	return FormatWeight(*v, places)
}

// FormatCount renders a pack count; absent counts render as 0.
func FormatCount(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatID renders absent or zero ids as "-".
func FormatID[T int | int64](v *T) string {
	if v == nil || *v == 0 {
		return "-"
	}
	return strconv.FormatInt(int64(*v), 10)
}

// FormatDate renders a raw timestamp in loc; empty or unparseable input renders as "-".
func FormatDate(raw string, loc *time.Location) string {
	if raw == "" {
		return "-"
	}
	t, err := types.ParseTimestamp(raw, loc)
	if err != nil {
		return "-"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(dateTimeLayout)
}
