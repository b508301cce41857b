// Package octa enumerates the cells of ASORA octahedral shells.
//
// Shell q is the set of integer offsets with |i|+|j|+|k| == q. A flat
// work-item index s in [0, CellCount(q)) is mapped to one offset so that a
// team of workers can split a shell without coordination.
package octa

import "math"

const sqrt3 = 1.73205080757

// ShellSize is the closed form 4q²+2 of the shell size. It is exact for
// q >= 1 and overcounts shell 0, which holds only the source cell.
func ShellSize(q int) int {
	return 4*q*q + 2
}

// CellCount is the number of work items that map to a cell: 1 at q=0,
// ShellSize(q) otherwise. Passes iterate over this, not ShellSize.
func CellCount(q int) int {
	if q == 0 {
		return 1
	}
	return ShellSize(q)
}

// TopSize is the number of cells with k >= 0 on shell q.
func TopSize(q int) int {
	return 2*q*(q+1) + 1
}

// Cell maps work item s of shell q to its offset from the source.
// s must lie in [0, CellCount(q)).
func Cell(q, s int) (i, j, k int) {
	sgn, mq := 1, q
	if top := TopSize(q); s >= top {
		sgn = -1
		mq = q - 1
		s -= top
	}

	if s == 0 {
		i = mq
		j = 0
	} else {
		b := (s - 1) / (2 * mq)
		a := (s - 1) % (2 * mq)
		if a+2*b > 2*mq {
			a++
			b -= mq + 1
		}
		i = a + b - mq
		j = b
	}

	k = sgn*q - sgn*(abs(i)+abs(j))
	return i, j, k
}

// MaxQ is the outermost shell needed to cover radius r (cells) on an n³
// mesh. The octahedron must reach sqrt(3)·r to enclose the sphere of radius
// r, and never more than the box diagonal half-length.
func MaxQ(r float64, n int) int {
	return int(math.Ceil(sqrt3 * math.Min(r, sqrt3*float64(n)/2)))
}

// HalfBox returns the inclusive offset bounds that keep a traversal inside
// one periodic image of the box.
func HalfBox(n int) (lastL, lastR int) {
	return -n / 2, n/2 - 1 + n%2
}

// Within reports whether every component of (i, j, k) lies in [lastL, lastR].
func Within(i, j, k, lastL, lastR int) bool {
	return i >= lastL && i <= lastR &&
		j >= lastL && j <= lastR &&
		k >= lastL && k <= lastR
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
