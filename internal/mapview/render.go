package mapview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
)

// OverlayID is the layer holding user-loaded files.
const OverlayID = "overlay"

var hoverStyle = lipgloss.NewStyle().Foreground(ColorOverlay).Bold(true)

// Render draws the visible layers into Width x Height cells. Where layers
// overlap the upper one wins the cell.
func (m *Map) Render() string {
	w, h := m.vp.Width, m.vp.Height
	if w <= 0 || h <= 0 {
		return ""
	}

	var drawn []*Layer
	var canvases []*canvas
	for _, l := range m.layers {
		if !l.Visible || l.data.Empty() {
			continue
		}
		drawn = append(drawn, l)
		canvases = append(canvases, m.draw(l, w, h))
	}

	hx, hy := -1, -1
	if m.hover != nil {
		mx, my := m.vp.Project(*m.hover)
		hx, hy = mx/2, my/4
	}

	styles := make([]lipgloss.Style, len(drawn))
	for i, l := range drawn {
		styles[i] = lipgloss.NewStyle().Foreground(l.Color)
	}

	var sb strings.Builder
	var run strings.Builder
	for y := 0; y < h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		cur := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur < 0 {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(styles[cur].Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < w; x++ {
			if x == hx && y == hy {
				flush()
				sb.WriteString(hoverStyle.Render("◯"))
				continue
			}
			owner, mask := -1, uint8(0)
			for i := len(canvases) - 1; i >= 0; i-- {
				if mk := canvases[i].mask(x, y); mk != 0 {
					owner, mask = i, mk
					break
				}
			}
			if owner != cur {
				flush()
				cur = owner
			}
			run.WriteRune(brailleRune(mask))
		}
		flush()
	}
	return sb.String()
}

func (m *Map) draw(l *Layer, w, h int) *canvas {
	c := newCanvas(w, h)
	view := m.vp.Bound()

	if m.ShowPolys {
		for _, poly := range l.data.Polygons {
			if !poly.Bound().Intersects(view) {
				continue
			}
			rings := make([][][2]int, 0, len(poly))
			for _, r := range poly {
				if pr := m.project(orb.LineString(r)); len(pr) >= 3 {
					rings = append(rings, pr)
				}
			}
			c.fill(rings)
			for _, r := range rings {
				c.path(r, true)
			}
		}
	}
	if m.ShowLines {
		for _, ls := range l.data.Lines {
			if !ls.Bound().Intersects(view) {
				continue
			}
			c.path(m.project(ls), false)
		}
	}
	if m.ShowPoints {
		for _, p := range l.data.Points {
			if !view.Contains(p) {
				continue
			}
			c.set(m.vp.Project(p))
		}
	}
	return c
}

func (m *Map) project(pts orb.LineString) [][2]int {
	out := make([][2]int, 0, len(pts))
	for _, p := range pts {
		x, y := m.vp.Project(p)
		out = append(out, [2]int{x, y})
	}
	return out
}
