package geom

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Extensions lists the file types LoadFile understands.
var Extensions = []string{".geojson", ".json", ".csv", ".kml", ".wkt"}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads a local geometry file into a feature collection.
func LoadFile(path string) (*geojson.FeatureCollection, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return nil, fmt.Errorf("unsupported file: %s", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc *geojson.FeatureCollection
	switch ext {
	case ".geojson", ".json":
		fc, err = ParseGeoJSON(data)
	case ".csv":
		fc, err = ParseCSV(strings.NewReader(string(data)))
	case ".kml":
		fc, err = ParseKML(data)
	case ".wkt":
		fc, err = ParseWKT(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return fc, nil
}
