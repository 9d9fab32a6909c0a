package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWeight(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   string
	}{
		{12.345, TableDecimals, "12.35"},
		{12.345, ChartDecimals, "12.3"},
		{10.05, ChartDecimals, "10.1"},
		{20, ChartDecimals, "20.0"},
		{0, TableDecimals, "0.00"},
		{-0.04, ChartDecimals, "0.0"},
		{-2.25, ChartDecimals, "-2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWeight(tt.v, tt.places), "FormatWeight(%v, %d)", tt.v, tt.places)
	}
}

func TestFormatOptional(t *testing.T) {
	v := 3.456
	assert.Equal(t, "0.00", FormatOptionalWeight(nil, TableDecimals))
	assert.Equal(t, "3.46", FormatOptionalWeight(&v, TableDecimals))

	assert.Equal(t, "0", FormatCount(nil))
	c := 12.0
	assert.Equal(t, "12", FormatCount(&c))

	assert.Equal(t, "-", FormatID[int](nil))
	zero := 0
	assert.Equal(t, "-", FormatID(&zero))
	id := int64(17)
	assert.Equal(t, "17", FormatID(&id))
}

func TestFormatDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	assert.Equal(t, "-", FormatDate("", jakarta))
	assert.Equal(t, "-", FormatDate("not a date", jakarta))
	assert.Equal(t, "2024-01-01 07:00:00", FormatDate("2024-01-01T00:00:00Z", jakarta))
	assert.Equal(t, "2024-01-01 00:00:00", FormatDate("2024-01-01T00:00:00", jakarta))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Discover")
	require.NoError(t, err)
	assert.Equal(t, PolicyDiscover, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFixed, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}

func TestPalette_Color(t *testing.T) {
	p := NewPalette(DefaultColors)

	assert.Equal(t, "#8884d8", p.Color(556, 5))
	assert.Equal(t, "#82ca9d", p.Color(331, 0))
	assert.Equal(t, fallbackColors[0], p.Color(1, 0))
	assert.Equal(t, fallbackColors[1], p.Color(1, len(fallbackColors)+1))
}
