package grid

import (
	"errors"
	"fmt"
	"math"
)

var ErrSizeMismatch = errors.New("grid: size mismatch")

// Wrap maps a onto [0, n).
func Wrap(a, n int) int {
	return (a%n + n) % n
}

// Offset returns the flat index of (i, j, k) after periodic wrapping.
func Offset(i, j, k, n int) int {
	return n*n*Wrap(i, n) + n*Wrap(j, n) + Wrap(k, n)
}

// Offset3 is Offset for an array position.
func Offset3(p [3]int, n int) int {
	return Offset(p[0], p[1], p[2], n)
}

// Coords inverts Offset for an in-range flat index.
func Coords(off, n int) (i, j, k int) {
	i = off / (n * n)
	j = (off / n) % n
	k = off % n
	return
}

// InBox reports whether (i, j, k) lies inside the unwrapped mesh.
func InBox(i, j, k, n int) bool {
	return i >= 0 && i < n && j >= 0 && j < n && k >= 0 && k < n
}

type Grid struct {
	N    int
	Data []float64
}

func New(n int) *Grid {
	return &Grid{N: n, Data: make([]float64, n*n*n)}
}

// Filled returns a grid with every cell set to v.
func Filled(n int, v float64) *Grid {
	g := New(n)
	g.Fill(v)
	return g
}

// FromSlice adopts an existing slice; it must hold exactly n³ values.
func FromSlice(n int, data []float64) (*Grid, error) {
	if len(data) != n*n*n {
		return nil, fmt.Errorf("%w: want %d values for n=%d, got %d", ErrSizeMismatch, n*n*n, n, len(data))
	}
	return &Grid{N: n, Data: data}, nil
}

func (g *Grid) At(i, j, k int) float64 {
	return g.Data[Offset(i, j, k, g.N)]
}

func (g *Grid) Set(i, j, k int, v float64) {
	g.Data[Offset(i, j, k, g.N)] = v
}

func (g *Grid) Len() int { return len(g.Data) }

func (g *Grid) Fill(v float64) {
	for i := range g.Data {
		g.Data[i] = v
	}
}

func (g *Grid) Zero() {
	clear(g.Data)
}

func (g *Grid) Clone() *Grid {
	c := &Grid{N: g.N, Data: make([]float64, len(g.Data))}
	copy(c.Data, g.Data)
	return c
}

// CopyFrom overwrites g with src; both must share N.
func (g *Grid) CopyFrom(src *Grid) error {
	if src.N != g.N {
		return fmt.Errorf("%w: %d vs %d", ErrSizeMismatch, src.N, g.N)
	}
	copy(g.Data, src.Data)
	return nil
}

// IsFinite reports whether the grid holds no NaN or Inf values.
func (g *Grid) IsFinite() bool {
	for _, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
