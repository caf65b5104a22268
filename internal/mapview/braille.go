package mapview

import (
	"math"
	"sort"
)

// dot bits of a braille cell indexed by [column][row] of the 2x4 micro-grid
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// canvas is a braille raster in cell units; every cell stores an 8-bit mask.
type canvas struct {
	w, h int
	m    []uint8
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, m: make([]uint8, w*h)}
}

func (c *canvas) mask(cx, cy int) uint8 { return c.m[cy*c.w+cx] }

// set lights one micro pixel; out-of-range pixels are dropped.
func (c *canvas) set(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= c.w || cy >= c.h {
		return
	}
	c.m[cy*c.w+cx] |= brailleBits[mx%2][my%4]
}

// line draws a Bresenham segment between two micro pixels. The segment is
// clipped to the canvas first so only on-screen pixels are walked.
func (c *canvas) line(x0, y0, x1, y1 int) {
	x0, y0, x1, y1, ok := c.clip(x0, y0, x1, y1)
	if !ok {
		return
	}
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clip trims a segment to [0,w*2)x[0,h*4) with Liang-Barsky. ok is false when
// no part of the segment lies on the canvas.
func (c *canvas) clip(x0, y0, x1, y1 int) (int, int, int, int, bool) {
	if c.w <= 0 || c.h <= 0 {
		return 0, 0, 0, 0, false
	}
	xmax, ymax := float64(c.w*2-1), float64(c.h*4-1)
	fx, fy := float64(x0), float64(y0)
	dx, dy := float64(x1-x0), float64(y1-y0)
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, fx},
		{dx, xmax - fx},
		{-dy, fy},
		{dy, ymax - fy},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return int(math.Round(fx + t0*dx)), int(math.Round(fy + t0*dy)),
		int(math.Round(fx + t1*dx)), int(math.Round(fy + t1*dy)), true
}

// path strokes an open or closed polyline.
func (c *canvas) path(pts [][2]int, closed bool) {
	for i := 0; i+1 < len(pts); i++ {
		c.line(pts[i][0], pts[i][1], pts[i+1][0], pts[i+1][1])
	}
	if closed && len(pts) > 2 {
		last := pts[len(pts)-1]
		c.line(last[0], last[1], pts[0][0], pts[0][1])
	}
}

// fill paints the interior of a set of rings with the even-odd rule, so
// inner rings cut holes.
func (c *canvas) fill(rings [][][2]int) {
	hm, wm := c.h*4, c.w*2
	var xs []int
	for y := 0; y < hm; y++ {
		xs = xs[:0]
		for _, r := range rings {
			for i := range r {
				a, b := r[i], r[(i+1)%len(r)]
				if a[1] == b[1] {
					continue
				}
				if (y >= a[1] && y < b[1]) || (y >= b[1] && y < a[1]) {
					t := float64(y-a[1]) / float64(b[1]-a[1])
					xs = append(xs, a[0]+int(t*float64(b[0]-a[0])))
				}
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			from, to := max(0, xs[i]), min(wm-1, xs[i+1])
			for x := from; x <= to; x++ {
				c.set(x, y)
			}
		}
	}
}

func brailleRune(mask uint8) rune {
	if mask == 0 {
		return ' '
	}
	return rune(0x2800 + int(mask))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
