package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"geomap/internal/geom"
	"geomap/internal/mapview"
	"geomap/internal/viewsync"
)

const panStep = 0.1

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resize()
	case mapview.SettledMsg:
		cmd := m.mp.Update(msg)
		if m.sync.Pending() {
			m.setStatus("loading %s", m.sync.LastBBox())
		}
		return m, cmd
	case viewsync.LoadedMsg:
		m.resolve(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resolve(msg viewsync.LoadedMsg) {
	outcome, err := m.sync.Resolve(msg)
	switch outcome {
	case viewsync.Applied:
		l, _ := m.mp.Layer(viewsync.LayerID)
		m.setStatus("current: %d features  epoch %d  %s", l.Len(), msg.Epoch, msg.Elapsed.Round(time.Millisecond))
		if m.showAttrs && m.attrLayer == viewsync.LayerID {
			m.refreshAttrs(viewsync.LayerID)
		}
	case viewsync.Failed:
		var fe *viewsync.FetchError
		if errors.As(err, &fe) {
			m.setError("refresh failed (%s): %v", viewsync.ErrorKind(fe.Err), fe.Err)
		} else {
			m.setError("refresh failed: %v", err)
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// If list is visible and filtering, send keys to list and ignore global commands
	if m.showSidebar && m.l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	if m.pasteMode {
		return m.handlePaste(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.sub.Unsubscribe()
		return m, tea.Quit
	case "esc":
		m.inspectPopup = ""
		m.showAttrs = false
	case "1":
		m.mp.ShowPoints = !m.mp.ShowPoints
		m.setStatus("points: %v", m.mp.ShowPoints)
	case "2":
		m.mp.ShowLines = !m.mp.ShowLines
		m.setStatus("lines: %v", m.mp.ShowLines)
	case "3":
		m.mp.ShowPolys = !m.mp.ShowPolys
		m.setStatus("polys: %v", m.mp.ShowPolys)
	case "l":
		all := m.mp.ShowPoints && m.mp.ShowLines && m.mp.ShowPolys
		m.mp.ShowPoints, m.mp.ShowLines, m.mp.ShowPolys = !all, !all, !all
		m.setStatus("kinds: pts=%v ls=%v poly=%v", !all, !all, !all)
	case "c":
		m.setStatus("current layer: %v", m.mp.ToggleLayer(viewsync.LayerID))
	case "o":
		m.setStatus("overlay layer: %v", m.mp.ToggleLayer(mapview.OverlayID))
	case "r":
		cmd := m.mp.Settle()
		m.setStatus("refreshing %s", m.mp.Bounds())
		return m, cmd
	case "+", "=":
		return m, m.zoom(m.mp.ZoomIn())
	case "-", "_":
		return m, m.zoom(m.mp.ZoomOut())
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
		}
		return m, m.resize()
	case "p":
		m.pasteMode = true
		m.ta.SetValue("")
		m.ta.Focus()
		m.setStatus("paste mode")
	case "h":
		m.helpVisible = !m.helpVisible
	case "a":
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrs(m.attrsSource())
		}
	case "i":
		m.inspect()
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				return m, m.loadOverlay(it.path)
			}
		}
	case "up", "down", "left", "right":
		if m.showSidebar {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		return m, m.pan(msg.String())
	default:
		if m.showSidebar {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) pan(key string) tea.Cmd {
	m.inspectPopup = ""
	switch key {
	case "up":
		return m.mp.Pan(0, -panStep)
	case "down":
		return m.mp.Pan(0, panStep)
	case "left":
		return m.mp.Pan(-panStep, 0)
	default:
		return m.mp.Pan(panStep, 0)
	}
}

func (m *Model) zoom(cmd tea.Cmd) tea.Cmd {
	m.inspectPopup = ""
	m.setStatus("zoom: %.1f", m.mp.Viewport().Zoom())
	return cmd
}

func (m Model) handlePaste(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pasteMode = false
		m.ta.Blur()
		m.setStatus("view mode")
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.ta.Value())
		if text == "" {
			m.setError("paste: empty")
			return m, nil
		}
		fc, err := geom.ParseWKT(text)
		if err != nil {
			m.setError("wkt error: %v", err)
			return m, nil
		}
		m.pasteMode = false
		m.ta.Blur()
		return m, m.setOverlay(fc, "<pasted>")
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	w, h, ox, oy := m.layout()
	cx, cy := msg.X-ox, msg.Y-oy
	inside := cx >= 0 && cx < w && cy >= 0 && cy < h
	if !inside {
		m.hoverHasGeo = false
		m.mp.ClearHover()
		return nil
	}
	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return m.zoom(m.mp.ZoomIn())
		case tea.MouseButtonWheelDown:
			return m.zoom(m.mp.ZoomOut())
		}
	}
	m.hover, m.hoverHasGeo = m.mp.Hover(cx, cy)
	return nil
}

// inspect describes the feature nearest the cursor, or the map centre when
// the cursor is outside the map.
func (m *Model) inspect() {
	vp := m.mp.Viewport()
	p := vp.Center
	if m.hoverHasGeo {
		p = m.hover
	}
	hit, ok := m.mp.Nearest(p, vp.CellDegrees()*3)
	if !ok {
		m.inspectPopup = ""
		m.setStatus("no feature nearby")
		return
	}
	f := hit.Feature
	meta := []string{
		fmt.Sprintf("layer: %s", hit.Layer),
		fmt.Sprintf("geometry: %s", f.Geometry.GeoJSONType()),
	}
	if f.ID != nil {
		meta = append(meta, fmt.Sprintf("id: %v", f.ID))
	}
	if hit.Inside {
		meta = append(meta, fmt.Sprintf("at: lon=%.6f lat=%.6f (inside)", p.Lon(), p.Lat()))
	} else {
		meta = append(meta, fmt.Sprintf("vertex: lon=%.6f lat=%.6f", hit.Vertex.Lon(), hit.Vertex.Lat()))
	}
	b := f.Geometry.Bound()
	meta = append(meta, fmt.Sprintf("bbox: %s", viewsync.FromBound(b)))
	keys := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i == 8 {
			meta = append(meta, fmt.Sprintf("… %d more", len(keys)-i))
			break
		}
		meta = append(meta, fmt.Sprintf("%s: %v", k, f.Properties[k]))
	}
	m.inspectPopup = strings.Join(meta, "\n")
	m.setStatus("inspect: %s", hit.Layer)
}

// attrsSource picks the overlay when it holds visible data, else the current
// layer.
func (m Model) attrsSource() string {
	if l, ok := m.mp.Layer(mapview.OverlayID); ok && l.Visible && l.Len() > 0 {
		return mapview.OverlayID
	}
	return viewsync.LayerID
}
