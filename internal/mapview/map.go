// Package mapview is the terminal map surface: a viewport over lon/lat, an
// ordered set of coloured layers rendered with braille dots, and the settle
// notification that fires once the user stops moving the view.
package mapview

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/geom"
	"geomap/internal/metrics"
	"geomap/internal/viewsync"
)

var lastID int64

func nextID() int { return int(atomic.AddInt64(&lastID, 1)) }

// SettledMsg is delivered after the viewport has stayed unchanged for the
// settle delay. Tag identifies the move it belongs to.
type SettledMsg struct {
	id  int
	tag int
}

// SettleFunc is called with the viewport bounds each time the view settles.
type SettleFunc func(viewsync.BoundingBox) tea.Cmd

type subscriber struct {
	id int
	fn SettleFunc
}

// Subscription is returned by OnSettled.
type Subscription struct {
	m  *Map
	id int
}

// Unsubscribe stops further settle notifications. It is safe to call more
// than once and on the zero value.
func (s Subscription) Unsubscribe() {
	if s.m == nil {
		return
	}
	subs := s.m.subs[:0]
	for _, sub := range s.m.subs {
		if sub.id != s.id {
			subs = append(subs, sub)
		}
	}
	s.m.subs = subs
}

// LayerHit is a nearest-feature result tagged with its layer.
type LayerHit struct {
	Layer string
	geom.Hit
}

// Map hosts the layers and owns the viewport.
type Map struct {
	id          int
	vp          Viewport
	settleDelay time.Duration
	tag         int

	layers []*Layer
	subs   []subscriber
	subSeq int

	// kind toggles apply to every layer
	ShowPoints bool
	ShowLines  bool
	ShowPolys  bool

	hover    *orb.Point
	hoverCur orb.Point
}

// New returns an empty map centred on center at a web-map zoom level.
func New(center orb.Point, zoom float64, settleDelay time.Duration) *Map {
	return &Map{
		id:          nextID(),
		vp:          NewViewport(center, zoom),
		settleDelay: settleDelay,
		ShowPoints:  true,
		ShowLines:   true,
		ShowPolys:   true,
	}
}

// AddLayer registers an empty layer drawn above the existing ones.
func (m *Map) AddLayer(id string) error {
	if _, ok := m.Layer(id); ok {
		return fmt.Errorf("%w: %s", ErrLayerExists, id)
	}
	l := newLayer(id)
	switch id {
	case viewsync.LayerID:
		l.Color = ColorCurrent
	case OverlayID:
		l.Color = ColorOverlay
	}
	m.layers = append(m.layers, l)
	metrics.LayerFeatures.WithLabelValues(id).Set(0)
	return nil
}

// SetLayerData replaces the features of a layer.
func (m *Map) SetLayerData(id string, fc *geojson.FeatureCollection) error {
	l, ok := m.Layer(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoLayer, id)
	}
	l.set(fc)
	metrics.LayerFeatures.WithLabelValues(id).Set(float64(l.Len()))
	slog.Debug("layer data replaced", "layer", id, "features", l.Len())
	return nil
}

// Layer looks a layer up by id.
func (m *Map) Layer(id string) (*Layer, bool) {
	for _, l := range m.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Layers returns the layers bottom to top.
func (m *Map) Layers() []*Layer { return m.layers }

// ToggleLayer flips the visibility of a layer and returns the new state.
func (m *Map) ToggleLayer(id string) bool {
	l, ok := m.Layer(id)
	if !ok {
		return false
	}
	l.Visible = !l.Visible
	return l.Visible
}

// OnSettled registers fn for settle notifications.
func (m *Map) OnSettled(fn SettleFunc) Subscription {
	m.subSeq++
	m.subs = append(m.subs, subscriber{id: m.subSeq, fn: fn})
	return Subscription{m: m, id: m.subSeq}
}

// Viewport returns a copy of the current viewport.
func (m *Map) Viewport() Viewport { return m.vp }

// Bounds is shorthand for Viewport().Bounds().
func (m *Map) Bounds() viewsync.BoundingBox { return m.vp.Bounds() }

// Resize sets the map area in cells.
func (m *Map) Resize(w, h int) tea.Cmd {
	if w == m.vp.Width && h == m.vp.Height {
		return nil
	}
	m.vp.Width, m.vp.Height = max(0, w), max(0, h)
	return m.moved()
}

// Pan shifts the view by a fraction of its extent.
func (m *Map) Pan(dx, dy float64) tea.Cmd {
	m.vp.Pan(dx, dy)
	return m.moved()
}

// ZoomIn zooms in one step.
func (m *Map) ZoomIn() tea.Cmd {
	if !m.vp.ZoomIn() {
		return nil
	}
	return m.moved()
}

// ZoomOut zooms out one step.
func (m *Map) ZoomOut() tea.Cmd {
	if !m.vp.ZoomOut() {
		return nil
	}
	return m.moved()
}

// FitBound moves the view to show b.
func (m *Map) FitBound(b orb.Bound) tea.Cmd {
	m.vp.FitBound(b)
	return m.moved()
}

// Settle notifies subscribers immediately and cancels any pending debounce.
func (m *Map) Settle() tea.Cmd {
	m.tag++
	return m.notify()
}

func (m *Map) moved() tea.Cmd {
	m.tag++
	if !m.vp.Ready() {
		return nil
	}
	id, tag := m.id, m.tag
	return tea.Tick(m.settleDelay, func(time.Time) tea.Msg {
		return SettledMsg{id: id, tag: tag}
	})
}

// Update handles settle ticks. Ticks from other maps or from moves that
// were followed by another move are dropped.
func (m *Map) Update(msg tea.Msg) tea.Cmd {
	sm, ok := msg.(SettledMsg)
	if !ok || sm.id != m.id || sm.tag != m.tag {
		return nil
	}
	return m.notify()
}

func (m *Map) notify() tea.Cmd {
	if !m.vp.Ready() || len(m.subs) == 0 {
		return nil
	}
	bbox := m.vp.Bounds()
	slog.Debug("viewport settled", "bbox", bbox.String(), "zoom", m.vp.Zoom())
	cmds := make([]tea.Cmd, 0, len(m.subs))
	for _, s := range m.subs {
		cmds = append(cmds, s.fn(bbox))
	}
	return tea.Batch(cmds...)
}

// Nearest returns the best hit within radius degrees of p across the visible
// layers. A point inside a polygon beats a vertex hit; otherwise the shorter
// distance wins, and ties go to the upper layer.
func (m *Map) Nearest(p orb.Point, radius float64) (LayerHit, bool) {
	var best LayerHit
	found := false
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		if !l.Visible {
			continue
		}
		h, ok := l.index.Nearest(p, radius)
		if !ok {
			continue
		}
		if !found || (h.Inside && !best.Inside) || (h.Inside == best.Inside && h.Dist < best.Dist) {
			best = LayerHit{Layer: l.ID, Hit: h}
			found = true
		}
	}
	return best, found
}

// Hover records the cursor cell and returns its lon/lat. A vertex within one
// cell is highlighted on the next render.
func (m *Map) Hover(cx, cy int) (orb.Point, bool) {
	m.hover = nil
	if !m.vp.Ready() || cx < 0 || cy < 0 || cx >= m.vp.Width || cy >= m.vp.Height {
		return orb.Point{}, false
	}
	p := m.vp.Unproject(cx, cy)
	if hit, ok := m.Nearest(p, m.vp.CellDegrees()); ok && !hit.Inside {
		m.hoverCur = hit.Vertex
		m.hover = &m.hoverCur
	}
	return p, true
}

// ClearHover removes the hover highlight.
func (m *Map) ClearHover() { m.hover = nil }
