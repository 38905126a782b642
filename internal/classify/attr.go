package classify

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// IndexSource tells which attribute supplied a health index value.
type IndexSource string

const (
	IndexFromPrimary  IndexSource = "primary"
	IndexFromFallback IndexSource = "fallback"
	IndexMissing      IndexSource = "missing"
)

// SpeciesOf returns the species label of a feature.
// Non-string values count as absent.
func SpeciesOf(props geojson.Properties) (string, bool) {
	v, ok := props[SpeciesAttr]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// SpeciesColorOf classifies a feature by its species attribute.
func SpeciesColorOf(props geojson.Properties) string {
	label, _ := SpeciesOf(props)
	return SpeciesColor(label)
}

// IndexOf returns the health index of a feature and the attribute it came
// from. The fallback attribute is consulted only when the primary one is
// absent (missing key, null or empty string). Values that cannot be read as
// a number become 0.
func IndexOf(props geojson.Properties) (float64, IndexSource) {
	if v, ok := present(props, IndexAttr); ok {
		return toFloat(v), IndexFromPrimary
	}
	if v, ok := present(props, IndexFallbackAttr); ok {
		return toFloat(v), IndexFromFallback
	}
	return 0, IndexMissing
}

// IndexColorOf classifies a feature by its health index.
func IndexColorOf(props geojson.Properties) string {
	v, _ := IndexOf(props)
	return IndexColor(v)
}

func present(props geojson.Properties, key string) (any, bool) {
	v, ok := props[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return leadingFloat(n)
	default:
		return 0
	}
}

// numericPrefix matches the longest decimal number at the start of a string.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat reads the number a string starts with, ignoring leading
// whitespace and any trailing text, so "0.6 (est.)" reads as 0.6.
func leadingFloat(s string) float64 {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
