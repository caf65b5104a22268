package mapview

import (
	"errors"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/geom"
)

var (
	ErrLayerExists = errors.New("mapview: layer already exists")
	ErrNoLayer     = errors.New("mapview: no such layer")
)

// Default layer colours.
var (
	ColorCurrent = lipgloss.Color("#0080ff")
	ColorOverlay = lipgloss.Color("#FFA500")
	ColorDefault = lipgloss.Color("#CCCCCC")
)

// Layer is a named feature collection drawn in a single colour.
type Layer struct {
	ID      string
	Color   lipgloss.Color
	Visible bool

	fc    *geojson.FeatureCollection
	data  geom.Data
	index *geom.Index
}

func newLayer(id string) *Layer {
	return &Layer{
		ID:      id,
		Color:   ColorDefault,
		Visible: true,
		fc:      geojson.NewFeatureCollection(),
		index:   geom.NewIndex(nil),
	}
}

func (l *Layer) set(fc *geojson.FeatureCollection) {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	l.fc = fc
	l.data = geom.Flatten(fc)
	l.index = geom.NewIndex(fc)
}

// Collection returns the data last set on the layer.
func (l *Layer) Collection() *geojson.FeatureCollection { return l.fc }

// Data returns the flattened geometries of the layer.
func (l *Layer) Data() geom.Data { return l.data }

// Len returns the feature count.
func (l *Layer) Len() int { return len(l.fc.Features) }
