package viz

import (
	"strings"

	"github.com/san-kum/asora/internal/grid"
)

// Braille patterns hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// SliceMap draws the plane axis=index of g, one sub-pixel per cell, lit
// where the value is at least level. Axis 0 slices in x, 1 in y, 2 in z.
func SliceMap(g *grid.Grid, axis, index int, level float64) *Canvas {
	n := g.N
	c := NewCanvas((n+1)/2, (n+3)/4)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			var p [3]int
			switch axis {
			case 0:
				p = [3]int{index, u, v}
			case 1:
				p = [3]int{u, index, v}
			default:
				p = [3]int{u, v, index}
			}
			if g.Data[grid.Offset3(p, n)] >= level {
				c.Set(u, v)
			}
		}
	}
	return c
}
