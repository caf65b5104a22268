package mapview

import (
	"math"

	"github.com/paulmach/orb"

	"geomap/internal/viewsync"
)

const (
	// MaxLat is the latitude limit of the web map projection.
	MaxLat = 85.0511

	minSpan    = 1e-6
	maxSpan    = 360.0
	zoomFactor = 1.2
)

// Viewport is the visible region. Each terminal cell holds a 2x4 braille
// micro-grid; micro pixels are treated as square, so the latitude extent
// follows from the longitude span and the cell grid.
type Viewport struct {
	Center orb.Point
	Span   float64 // longitude degrees across the map width
	Width  int     // cells
	Height int     // cells
}

// NewViewport centres the view with a span derived from a web-map zoom level.
func NewViewport(center orb.Point, zoom float64) Viewport {
	return Viewport{Center: center, Span: clampSpan(360 / math.Pow(2, zoom))}
}

// Ready reports whether the viewport has a drawable size.
func (v Viewport) Ready() bool { return v.Width > 0 && v.Height > 0 }

// Zoom returns the web-map zoom level matching the span.
func (v Viewport) Zoom() float64 { return math.Log2(360 / v.Span) }

func (v Viewport) degPerMicro() float64 {
	if v.Width <= 0 {
		return 0
	}
	return v.Span / float64(v.Width*2)
}

// LatSpan is the latitude extent of the map area.
func (v Viewport) LatSpan() float64 {
	return v.degPerMicro() * float64(v.Height*4)
}

// Bound is the unclamped region covered by the map area.
func (v Viewport) Bound() orb.Bound {
	hw, hh := v.Span/2, v.LatSpan()/2
	return orb.Bound{
		Min: orb.Point{v.Center.Lon() - hw, v.Center.Lat() - hh},
		Max: orb.Point{v.Center.Lon() + hw, v.Center.Lat() + hh},
	}
}

// Bounds is the region sent to the data service, clamped to valid
// coordinates.
func (v Viewport) Bounds() viewsync.BoundingBox {
	b := v.Bound()
	return viewsync.BoundingBox{
		SWLat: clamp(b.Min.Lat(), -90, 90),
		SWLon: clamp(b.Min.Lon(), -180, 180),
		NELat: clamp(b.Max.Lat(), -90, 90),
		NELon: clamp(b.Max.Lon(), -180, 180),
	}
}

// Project maps lon/lat to micro-grid coordinates (x right, y down).
func (v Viewport) Project(p orb.Point) (int, int) {
	d := v.degPerMicro()
	if d == 0 {
		return 0, 0
	}
	b := v.Bound()
	mx := (p.Lon() - b.Min.Lon()) / d
	my := (b.Max.Lat() - p.Lat()) / d
	return int(math.Floor(mx)), int(math.Floor(my))
}

// Unproject maps the centre of a cell back to lon/lat.
func (v Viewport) Unproject(cx, cy int) orb.Point {
	d := v.degPerMicro()
	b := v.Bound()
	lon := b.Min.Lon() + (float64(cx)*2+1)*d
	lat := b.Max.Lat() - (float64(cy)*4+2)*d
	return orb.Point{lon, lat}
}

// CellDegrees is the longitude width of one cell.
func (v Viewport) CellDegrees() float64 { return v.degPerMicro() * 2 }

// Pan moves the centre by a fraction of the visible extent. Positive dy moves
// the view south.
func (v *Viewport) Pan(dx, dy float64) {
	lon := v.Center.Lon() + dx*v.Span
	lat := v.Center.Lat() - dy*v.LatSpan()
	v.Center = orb.Point{wrapLon(lon), clamp(lat, -MaxLat, MaxLat)}
}

// ZoomIn narrows the span; it reports false at the limit.
func (v *Viewport) ZoomIn() bool {
	if v.Span/zoomFactor < minSpan {
		return false
	}
	v.Span /= zoomFactor
	return true
}

// ZoomOut widens the span; it reports false at the limit.
func (v *Viewport) ZoomOut() bool {
	if v.Span*zoomFactor > maxSpan {
		return false
	}
	v.Span *= zoomFactor
	return true
}

// FitBound centres on b and picks the span that shows all of it.
func (v *Viewport) FitBound(b orb.Bound) {
	v.Center = b.Center()
	span := b.Max.Lon() - b.Min.Lon()
	if v.Width > 0 && v.Height > 0 {
		// latitude extent expressed as the longitude span it needs
		latAsSpan := (b.Max.Lat() - b.Min.Lat()) * float64(v.Width*2) / float64(v.Height*4)
		span = math.Max(span, latAsSpan)
	}
	v.Span = clampSpan(span * 1.1)
}

func clampSpan(s float64) float64 {
	if s <= 0 || math.IsNaN(s) {
		return minSpan
	}
	return clamp(s, minSpan, maxSpan)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
