package live

import (
	"fmt"
	"strings"
)

// Policy decides which stations become chart columns.
type Policy string

const (
	// PolicyFixed charts only the configured allowlist.
	PolicyFixed Policy = "fixed"
	// PolicyDiscover tracks every station seen on the feed.
	PolicyDiscover Policy = "discover"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFixed, PolicyDiscover:
		return p, nil
	case "":
		return PolicyFixed, nil
	default:
		return "", fmt.Errorf("invalid station policy %q (allowed: fixed, discover)", s)
	}
}

var (
	DefaultStations = []int{556, 331, 789}

	DefaultColors = map[int]string{
		556: "#8884d8",
		331: "#82ca9d",
		789: "#ffc658",
	}

	fallbackColors = []string{"#ff7300", "#0088fe", "#00c49f", "#ff8042", "#a4de6c", "#d0ed57"}
)

// Palette assigns chart colors to stations.
type Palette struct {
	fixed map[int]string
}

func NewPalette(colors map[int]string) Palette {
	fixed := make(map[int]string, len(colors))
	for id, c := range colors {
		fixed[id] = c
	}
	return Palette{fixed: fixed}
}

// Color returns the configured color for id, or cycles the fallback colors
// by the station's column position.
func (p Palette) Color(id int, column int) string {
	if c, ok := p.fixed[id]; ok {
		return c
	}
	if column < 0 {
		column = -column
	}
	return fallbackColors[column%len(fallbackColors)]
}
