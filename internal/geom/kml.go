package geom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer  kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inners []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlPlacemark struct {
	Name       string      `xml:"name"`
	Point      *kmlCoords  `xml:"Point"`
	LineString *kmlCoords  `xml:"LineString"`
	Polygon    *kmlPolygon `xml:"Polygon"`
}

// ParseKML extracts Placemark points, line strings and polygons. KML
// coordinates are "lon,lat[,alt]"; altitude is dropped. Placemarks may sit at
// any depth (Document, Folder).
func ParseKML(data []byte) (*geojson.FeatureCollection, error) {
	placemarks, err := collectPlacemarks(data)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, pm := range placemarks {
		var g orb.Geometry
		switch {
		case pm.Point != nil:
			pts := parseKMLCoords(pm.Point.Coordinates)
			if len(pts) == 0 {
				continue
			}
			g = pts[0]
		case pm.LineString != nil:
			ls := orb.LineString(parseKMLCoords(pm.LineString.Coordinates))
			if len(ls) < 2 {
				continue
			}
			g = ls
		case pm.Polygon != nil:
			outer := orb.Ring(parseKMLCoords(pm.Polygon.Outer.Coordinates))
			if len(outer) < 3 {
				continue
			}
			poly := orb.Polygon{outer}
			for _, in := range pm.Polygon.Inners {
				if r := orb.Ring(parseKMLCoords(in.Coordinates)); len(r) >= 3 {
					poly = append(poly, r)
				}
			}
			g = poly
		default:
			continue
		}
		f := geojson.NewFeature(g)
		if pm.Name != "" {
			f.Properties["name"] = pm.Name
		}
		fc.Append(f)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("kml: no placemarks found")
	}
	return fc, nil
}

// collectPlacemarks walks the token stream so nesting depth does not matter.
func collectPlacemarks(data []byte) ([]kmlPlacemark, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []kmlPlacemark
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		out = append(out, pm)
	}
}

func parseKMLCoords(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
