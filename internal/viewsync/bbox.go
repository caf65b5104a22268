package viewsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BoundingBox is the visible map region expressed as its south-west and
// north-east corners in WGS84 degrees.
type BoundingBox struct {
	SWLat float64
	SWLon float64
	NELat float64
	NELon float64
}

// Valid reports whether the box satisfies SWLat <= NELat. Zero-area boxes are
// valid; they simply select nothing.
func (b BoundingBox) Valid() bool {
	return b.SWLat <= b.NELat
}

// Bound converts the box to an orb.Bound (X is longitude, Y latitude).
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.SWLon, b.SWLat},
		Max: orb.Point{b.NELon, b.NELat},
	}
}

// FromBound is the inverse of Bound.
func FromBound(bound orb.Bound) BoundingBox {
	return BoundingBox{
		SWLat: bound.Min.Lat(),
		SWLon: bound.Min.Lon(),
		NELat: bound.Max.Lat(),
		NELon: bound.Max.Lon(),
	}
}

// Query encodes the box as the /layers query string. Key order is fixed
// (sw_lat, sw_lon, ne_lat, ne_lon), which url.Values would not preserve.
func (b BoundingBox) Query() string {
	var sb strings.Builder
	sb.WriteString("sw_lat=")
	sb.WriteString(formatCoord(b.SWLat))
	sb.WriteString("&sw_lon=")
	sb.WriteString(formatCoord(b.SWLon))
	sb.WriteString("&ne_lat=")
	sb.WriteString(formatCoord(b.NELat))
	sb.WriteString("&ne_lon=")
	sb.WriteString(formatCoord(b.NELon))
	return sb.String()
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%.5f, %.5f, %.5f, %.5f]", b.SWLon, b.SWLat, b.NELon, b.NELat)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
