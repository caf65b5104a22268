package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Data is a minimal geometry container for rendering. Geometries of every
// kind are split into points, lines and polygons.
type Data struct {
	Points   []orb.Point
	Lines    []orb.LineString
	Polygons []orb.Polygon // first ring outer, following rings holes
	Bound    orb.Bound
}

// Empty reports whether no geometry has been added.
func (d *Data) Empty() bool {
	return len(d.Points) == 0 && len(d.Lines) == 0 && len(d.Polygons) == 0
}

// Add splits g into its primitive parts and grows the bound.
func (d *Data) Add(g orb.Geometry) {
	if g == nil {
		return
	}
	switch g := g.(type) {
	case orb.Point:
		d.grow(g.Bound())
		d.Points = append(d.Points, g)
	case orb.MultiPoint:
		for _, p := range g {
			d.Add(p)
		}
	case orb.LineString:
		if len(g) == 0 {
			return
		}
		d.grow(g.Bound())
		d.Lines = append(d.Lines, g)
	case orb.MultiLineString:
		for _, ls := range g {
			d.Add(ls)
		}
	case orb.Ring:
		d.Add(orb.Polygon{g})
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return
		}
		d.grow(g.Bound())
		d.Polygons = append(d.Polygons, g)
	case orb.MultiPolygon:
		for _, p := range g {
			d.Add(p)
		}
	case orb.Collection:
		for _, c := range g {
			d.Add(c)
		}
	case orb.Bound:
		d.Add(g.ToPolygon())
	}
}

func (d *Data) grow(b orb.Bound) {
	if d.Empty() {
		d.Bound = b
		return
	}
	d.Bound = d.Bound.Union(b)
}

// Flatten converts a feature collection into render data. A nil collection
// yields empty data.
func Flatten(fc *geojson.FeatureCollection) Data {
	var d Data
	if fc == nil {
		return d
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		d.Add(f.Geometry)
	}
	return d
}

// EachVertex calls fn for every coordinate of g.
func EachVertex(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			EachVertex(ls, fn)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.Polygon:
		for _, r := range g {
			EachVertex(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			EachVertex(p, fn)
		}
	case orb.Collection:
		for _, c := range g {
			EachVertex(c, fn)
		}
	case orb.Bound:
		EachVertex(g.ToRing(), fn)
	}
}
