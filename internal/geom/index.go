package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// Index is an r-tree over the bounds of a collection's features.
type Index struct {
	tree     rtree.RTreeG[int]
	features []*geojson.Feature
}

// Hit is the result of a nearest lookup.
type Hit struct {
	Feature *geojson.Feature
	Vertex  orb.Point // closest vertex of the feature
	Inside  bool      // query point lies inside a polygonal feature
	Dist    float64   // planar distance to Vertex, 0 when Inside
}

// NewIndex indexes every feature with a geometry.
func NewIndex(fc *geojson.FeatureCollection) *Index {
	ix := &Index{}
	if fc == nil {
		return ix
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		min, max := rtreeBounds(f.Geometry.Bound())
		ix.tree.Insert(min, max, len(ix.features))
		ix.features = append(ix.features, f)
	}
	return ix
}

// Len returns the number of indexed features.
func (ix *Index) Len() int { return len(ix.features) }

// Search returns the features whose bounds intersect b.
func (ix *Index) Search(b orb.Bound) []*geojson.Feature {
	min, max := rtreeBounds(b)
	var out []*geojson.Feature
	ix.tree.Search(min, max, func(_, _ [2]float64, i int) bool {
		out = append(out, ix.features[i])
		return true
	})
	return out
}

// Nearest finds the feature closest to p within radius (in degrees). A polygon
// containing p always wins.
func (ix *Index) Nearest(p orb.Point, radius float64) (Hit, bool) {
	window := orb.Bound{
		Min: orb.Point{p[0] - radius, p[1] - radius},
		Max: orb.Point{p[0] + radius, p[1] + radius},
	}
	best := Hit{Dist: math.Inf(1)}
	found := false
	for _, f := range ix.Search(window) {
		inside := containsPoint(f.Geometry, p)
		EachVertex(f.Geometry, func(v orb.Point) {
			d := planar.Distance(p, v)
			if !inside && d > radius {
				return
			}
			better := !found ||
				(inside && !best.Inside) ||
				(inside == best.Inside && d < best.Dist)
			if better {
				best = Hit{Feature: f, Vertex: v, Inside: inside, Dist: d}
				found = true
			}
		})
	}
	if found && best.Inside {
		best.Dist = 0
	}
	return best, found
}

func containsPoint(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	case orb.Ring:
		return planar.RingContains(g, p)
	case orb.Bound:
		return g.Contains(p)
	}
	return false
}

func rtreeBounds(b orb.Bound) ([2]float64, [2]float64) {
	return [2]float64{b.Min.X(), b.Min.Y()}, [2]float64{b.Max.X(), b.Max.Y()}
}
