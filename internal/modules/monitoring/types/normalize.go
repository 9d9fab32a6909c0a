package types

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// stationWireKey is the feed's spelling of the station id. Folded, it would
// collide with the row id, so it is matched exactly.
const stationWireKey = "ID"

// recordAliases lists, per field, the folded keys accepted for it in
// priority order.
var recordAliases = map[string][]string{
	"id":           {"id", "rowid"},
	"createdAt":    {"createdat", "created"},
	"timestamp":    {"timestamp", "ts", "time"},
	"picId":        {"picid", "pic", "stationid"},
	"packA":        {"packa"},
	"packB":        {"packb"},
	"packC":        {"packc"},
	"grossWeight":  {"grossweight", "gross"},
	"rejectWeight": {"rejectweight", "reject"},
}

func normalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// keyIndex maps folded keys to the raw keys that fold to them. Within one
// folded key the camelCase spelling of the field comes first, then the
// rest in lexical order.
type keyIndex map[string][]string

func newKeyIndex(raw map[string]any) keyIndex {
	idx := make(keyIndex, len(raw))
	for k := range raw {
		if k == stationWireKey {
			continue
		}
		folded := normalizeKey(k)
		idx[folded] = append(idx[folded], k)
	}
	for _, keys := range idx {
		slices.SortFunc(keys, func(a, b string) int {
			ac, bc := isCanonicalSpelling(a), isCanonicalSpelling(b)
			switch {
			case ac && !bc:
				return -1
			case bc && !ac:
				return 1
			}
			return strings.Compare(a, b)
		})
	}
	return idx
}

func isCanonicalSpelling(k string) bool {
	_, ok := recordAliases[k]
	return ok
}

// values returns the raw values for field in priority order.
func (idx keyIndex) values(raw map[string]any, field string) []any {
	var out []any
	for _, alias := range recordAliases[field] {
		for _, k := range idx[alias] {
			out = append(out, raw[k])
		}
	}
	return out
}

// NormalizeRecord maps a loosely-shaped history object onto Record. Keys are
// matched ignoring case, underscores, dashes and spaces, except the feed's
// "ID" which is the station id. When several keys name the same field the
// first usable one in alias order wins. Values that cannot be interpreted
// leave the field absent.
func NormalizeRecord(raw map[string]any) Record {
	idx := newKeyIndex(raw)
	var rec Record

	if f, ok := firstFloat(idx.values(raw, "id")); ok {
		id := int64(f)
		rec.ID = &id
	}
	rec.CreatedAt = firstString(idx.values(raw, "createdAt"))
	rec.Timestamp = firstString(idx.values(raw, "timestamp"))

	stations := idx.values(raw, "picId")
	if v, ok := raw[stationWireKey]; ok {
		stations = append(stations, v)
	}
	if f, ok := firstFloat(stations); ok {
		id := int(f)
		rec.StationID = &id
	}

	rec.PackA = firstFloatPtr(idx.values(raw, "packA"))
	rec.PackB = firstFloatPtr(idx.values(raw, "packB"))
	rec.PackC = firstFloatPtr(idx.values(raw, "packC"))
	rec.GrossWeight = firstFloatPtr(idx.values(raw, "grossWeight"))
	rec.RejectWeight = firstFloatPtr(idx.values(raw, "rejectWeight"))
	return rec
}

func firstFloat(vs []any) (float64, bool) {
	for _, v := range vs {
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

func firstFloatPtr(vs []any) *float64 {
	f, ok := firstFloat(vs)
	if !ok {
		return nil
	}
	return &f
}

func firstString(vs []any) string {
	for _, v := range vs {
		if s := toString(v); s != "" {
			return s
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return toFloat(t[0])
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return toString(t[0])
	default:
		return ""
	}
}
