package geom

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// ParseWKT parses WKT text into a feature collection. The text holds either one
// geometry per line or a single geometry spread over several lines.
func ParseWKT(text string) (*geojson.FeatureCollection, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, errors.New("empty wkt")
	}

	fc, lineErr := parseWKTLines(s)
	if lineErr == nil {
		return fc, nil
	}
	g, err := wkt.Unmarshal(strings.Join(strings.Fields(s), " "))
	if err != nil {
		return nil, lineErr
	}
	fc = geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(g))
	return fc, nil
}

func parseWKTLines(s string) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		l := strings.TrimSpace(sc.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		g, err := wkt.Unmarshal(l)
		if err != nil {
			return nil, fmt.Errorf("wkt line %d: %w", line, err)
		}
		f := geojson.NewFeature(g)
		f.Properties["line"] = line
		fc.Append(f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("wkt: no geometries parsed")
	}
	return fc, nil
}
