package geom

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"
)

// Attributes unions the property keys of every feature, in first-seen order,
// and returns one row of stringified values per feature.
func Attributes(fc *geojson.FeatureCollection) ([]string, [][]string) {
	if fc == nil {
		return nil, nil
	}
	order := []string{}
	seen := map[string]bool{}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		for _, k := range sortedKeys(f.Properties) {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}

	rows := make([][]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		vals := make([]string, 0, len(order))
		for _, k := range order {
			vals = append(vals, formatValue(f.Properties[k]))
		}
		rows = append(rows, vals)
	}
	return order, rows
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		bs, _ := json.Marshal(t)
		return string(bs)
	}
}

// sortedKeys gives properties a stable column order; JSON object order is lost
// once decoded into a map.
func sortedKeys(p geojson.Properties) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
