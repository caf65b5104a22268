package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/geom"
	"geomap/internal/mapview"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.setError("read dir error: %v", err)
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() || !geom.Supported(e.Name()) {
			continue
		}
		items = append(items, fileItem{
			title: e.Name(),
			desc:  strings.ToLower(filepath.Ext(e.Name())),
			path:  filepath.Join(m.cwd, e.Name()),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).title < items[j].(fileItem).title })
	m.l.SetItems(items)
	if len(items) == 0 {
		m.setStatus("no supported files in %s", m.cwd)
	}
}

// loadOverlay reads a file into the overlay layer and moves the view onto it.
func (m *Model) loadOverlay(p string) tea.Cmd {
	fc, err := geom.LoadFile(p)
	if err != nil {
		m.setError("load error: %v", err)
		return nil
	}
	return m.setOverlay(fc, p)
}

func (m *Model) setOverlay(fc *geojson.FeatureCollection, source string) tea.Cmd {
	if err := m.mp.SetLayerData(mapview.OverlayID, fc); err != nil {
		m.setError("overlay: %v", err)
		return nil
	}
	m.overlayPath = source
	if l, ok := m.mp.Layer(mapview.OverlayID); ok {
		l.Visible = true
	}
	d := geom.Flatten(fc)
	m.setStatus("overlay: %s  counts: pts=%d ls=%d poly=%d",
		filepath.Base(source), len(d.Points), len(d.Lines), len(d.Polygons))

	// If attributes are currently shown, follow the new dataset
	if m.showAttrs {
		m.refreshAttrs(mapview.OverlayID)
	}
	if d.Empty() {
		return nil
	}
	return m.mp.FitBound(d.Bound)
}
