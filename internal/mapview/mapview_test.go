package mapview

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"geomap/internal/viewsync"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m := New(orb.Point{0, 0}, 0, time.Millisecond)
	m.vp.Span = 10
	m.Resize(10, 5)
	return m
}

func collectionOf(gs ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range gs {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func TestViewport_Bounds(t *testing.T) {
	v := Viewport{Center: orb.Point{0, 0}, Span: 10, Width: 10, Height: 5}
	got := v.Bounds()
	want := viewsync.BoundingBox{SWLat: -5, SWLon: -5, NELat: 5, NELon: 5}
	if got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	v = Viewport{Center: orb.Point{170, 80}, Span: 40, Width: 10, Height: 5}
	got = v.Bounds()
	if got.NELon != 180 || got.NELat != 90 {
		t.Errorf("expected bounds clamped to 180/90, got %v", got)
	}
	if !got.Valid() {
		t.Errorf("clamped bounds should be valid: %v", got)
	}
}

func TestViewport_ProjectUnproject(t *testing.T) {
	v := Viewport{Center: orb.Point{12, 50}, Span: 2, Width: 40, Height: 10}
	for cx := 0; cx < v.Width; cx += 7 {
		for cy := 0; cy < v.Height; cy += 3 {
			p := v.Unproject(cx, cy)
			mx, my := v.Project(p)
			if mx/2 != cx || my/4 != cy {
				t.Errorf("cell (%d,%d) round-tripped to (%d,%d)", cx, cy, mx/2, my/4)
			}
		}
	}
}

func TestViewport_PanAndZoom(t *testing.T) {
	v := Viewport{Center: orb.Point{179, 0}, Span: 10, Width: 10, Height: 5}
	v.Pan(0.5, 0)
	if v.Center.Lon() != -176 {
		t.Errorf("expected longitude to wrap to -176, got %v", v.Center.Lon())
	}
	v.Pan(0, -100)
	if v.Center.Lat() != MaxLat {
		t.Errorf("expected latitude clamped to %v, got %v", MaxLat, v.Center.Lat())
	}

	v = Viewport{Span: maxSpan}
	if v.ZoomOut() {
		t.Error("zoom out past the world should fail")
	}
	if !v.ZoomIn() || math.Abs(v.Span-maxSpan/zoomFactor) > 1e-9 {
		t.Errorf("unexpected span after zoom in: %v", v.Span)
	}
}

func TestMap_Layers(t *testing.T) {
	m := testMap(t)
	if err := m.AddLayer(viewsync.LayerID); err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}
	if err := m.AddLayer(viewsync.LayerID); !errors.Is(err, ErrLayerExists) {
		t.Errorf("expected ErrLayerExists, got %v", err)
	}
	if err := m.SetLayerData("missing", collectionOf(orb.Point{0, 0})); !errors.Is(err, ErrNoLayer) {
		t.Errorf("expected ErrNoLayer, got %v", err)
	}

	if err := m.SetLayerData(viewsync.LayerID, collectionOf(orb.Point{1, 1}, orb.Point{2, 2})); err != nil {
		t.Fatalf("SetLayerData failed: %v", err)
	}
	l, _ := m.Layer(viewsync.LayerID)
	if l.Len() != 2 || l.Color != ColorCurrent {
		t.Errorf("unexpected layer state: len=%d color=%v", l.Len(), l.Color)
	}
	if m.ToggleLayer(viewsync.LayerID) {
		t.Error("expected layer hidden after toggle")
	}
}

func TestMap_SettleDebounce(t *testing.T) {
	m := New(orb.Point{0, 0}, 4, time.Millisecond)
	var settled []viewsync.BoundingBox
	m.OnSettled(func(b viewsync.BoundingBox) tea.Cmd {
		settled = append(settled, b)
		return nil
	})

	first := m.Resize(40, 10)
	second := m.Pan(0.1, 0)
	if first == nil || second == nil {
		t.Fatal("expected settle ticks after moves")
	}

	m.Update(first())
	if len(settled) != 0 {
		t.Fatalf("superseded tick must not settle, got %d", len(settled))
	}
	m.Update(second())
	if len(settled) != 1 {
		t.Fatalf("expected one settle, got %d", len(settled))
	}
	if settled[0] != m.Bounds() {
		t.Errorf("expected settle with current bounds %v, got %v", m.Bounds(), settled[0])
	}

	other := New(orb.Point{0, 0}, 4, time.Millisecond)
	other.Resize(40, 10)
	m.Update(SettledMsg{id: other.id, tag: m.tag})
	if len(settled) != 1 {
		t.Error("ticks from another map must be ignored")
	}
}

func TestMap_Unsubscribe(t *testing.T) {
	m := testMap(t)
	calls := 0
	sub := m.OnSettled(func(viewsync.BoundingBox) tea.Cmd {
		calls++
		return nil
	})
	m.Settle()
	sub.Unsubscribe()
	sub.Unsubscribe()
	m.Settle()
	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
	Subscription{}.Unsubscribe()
}

func TestMap_Nearest(t *testing.T) {
	m := testMap(t)
	_ = m.AddLayer(OverlayID)
	_ = m.AddLayer(viewsync.LayerID)
	_ = m.SetLayerData(OverlayID, collectionOf(orb.Point{1, 1}))
	_ = m.SetLayerData(viewsync.LayerID, collectionOf(orb.Point{1.2, 1.2}))

	hit, ok := m.Nearest(orb.Point{1.05, 1.05}, 0.5)
	if !ok || hit.Layer != OverlayID {
		t.Fatalf("expected overlay hit, got %+v ok=%v", hit, ok)
	}

	m.ToggleLayer(OverlayID)
	hit, ok = m.Nearest(orb.Point{1.05, 1.05}, 0.5)
	if !ok || hit.Layer != viewsync.LayerID {
		t.Errorf("hidden layers must be skipped, got %+v", hit)
	}
}

func TestMap_Render(t *testing.T) {
	m := testMap(t)
	_ = m.AddLayer(viewsync.LayerID)

	blank := m.Render()
	if strings.Trim(blank, " \n") != "" {
		t.Errorf("expected blank map, got %q", blank)
	}

	_ = m.SetLayerData(viewsync.LayerID, collectionOf(orb.Point{0, 0}))
	lines := strings.Split(m.Render(), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	if r := []rune(lines[2]); r[5] != '⠄' {
		t.Errorf("expected point dot at row 2 col 5, got %q", lines[2])
	}

	world := orb.Polygon{orb.Ring{{-20, -20}, {20, -20}, {20, 20}, {-20, 20}, {-20, -20}}}
	_ = m.SetLayerData(viewsync.LayerID, collectionOf(world))
	for i, line := range strings.Split(m.Render(), "\n") {
		if line != strings.Repeat("⣿", 10) {
			t.Errorf("row %d not fully filled: %q", i, line)
		}
	}

	m.ShowPolys = false
	if strings.Trim(m.Render(), " \n") != "" {
		t.Error("polygons must not render when toggled off")
	}
}

func TestMap_RenderHoles(t *testing.T) {
	m := testMap(t)
	_ = m.AddLayer(OverlayID)
	donut := orb.Polygon{
		orb.Ring{{-20, -20}, {20, -20}, {20, 20}, {-20, 20}, {-20, -20}},
		orb.Ring{{-2, -2}, {2, -2}, {2, 2}, {-2, 2}, {-2, -2}},
	}
	_ = m.SetLayerData(OverlayID, collectionOf(donut))
	lines := strings.Split(m.Render(), "\n")
	if r := []rune(lines[0]); r[0] != '⣿' {
		t.Errorf("expected corner filled, got %q", lines[0])
	}
	centre := []rune(lines[2])[5]
	if centre == '⣿' {
		t.Error("expected the hole to be left unfilled")
	}
}

func TestCanvas_Clip(t *testing.T) {
	c := newCanvas(10, 5)
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           [4]int
		ok             bool
	}{
		{"inside", 1, 1, 5, 7, [4]int{1, 1, 5, 7}, true},
		{"crossing", -1000, 10, 1000, 10, [4]int{0, 10, 19, 10}, true},
		{"vertical", 3, -50, 3, 50, [4]int{3, 0, 3, 19}, true},
		{"above", -5, -1, 30, -9, [4]int{}, false},
		{"corner miss", -10, 5, 5, -10, [4]int{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1, ok := c.clip(tt.x0, tt.y0, tt.x1, tt.y1)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && [4]int{x0, y0, x1, y1} != tt.want {
				t.Errorf("expected %v, got %v", tt.want, [4]int{x0, y0, x1, y1})
			}
		})
	}
}

func TestMap_RenderLongEdgeAtMaxZoom(t *testing.T) {
	m := New(orb.Point{0, 0}, 0, time.Millisecond)
	m.vp.Span = minSpan
	m.Resize(80, 24)
	_ = m.AddLayer(viewsync.LayerID)
	_ = m.SetLayerData(viewsync.LayerID, collectionOf(orb.LineString{{-1, 0}, {1, 0}}))

	start := time.Now()
	out := m.Render()
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("render of one long edge took %v", elapsed)
	}

	full := false
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, " ") && len([]rune(line)) >= 80 {
			full = true
		}
	}
	if !full {
		t.Error("expected the clipped edge to cross the whole map")
	}
}

func TestMap_NearestPrefersInside(t *testing.T) {
	m := testMap(t)
	_ = m.AddLayer(OverlayID)
	_ = m.AddLayer(viewsync.LayerID)
	square := orb.Polygon{orb.Ring{{-4, -4}, {4, -4}, {4, 4}, {-4, 4}, {-4, -4}}}
	_ = m.SetLayerData(OverlayID, collectionOf(square))
	_ = m.SetLayerData(viewsync.LayerID, collectionOf(orb.Point{0.1, 0.1}))

	hit, ok := m.Nearest(orb.Point{0, 0}, 0.5)
	if !ok || hit.Layer != OverlayID || !hit.Inside {
		t.Errorf("expected inside hit on the lower overlay layer, got %+v ok=%v", hit, ok)
	}

	_ = m.SetLayerData(OverlayID, collectionOf(orb.Point{0.1, 0.1}))
	hit, ok = m.Nearest(orb.Point{0, 0}, 0.5)
	if !ok || hit.Layer != viewsync.LayerID {
		t.Errorf("expected the upper layer to win a distance tie, got %+v ok=%v", hit, ok)
	}
}
