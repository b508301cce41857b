package raytrace

import (
	"math"

	"github.com/san-kum/asora/internal/grid"
)

const (
	sqrt2 = 1.41421356237
	sqrt3 = 1.73205080757

	// minTauWeight caps the weight of optically thin neighbours.
	minTauWeight = 0.6
)

func weight(cd, sigma float64) float64 {
	return 1.0 / math.Max(minTauWeight, cd*sigma)
}

// sign is +1 for zero so that the upstream neighbour of an on-axis cell is
// well defined.
func sign(a int) int {
	if a >= 0 {
		return 1
	}
	return -1
}

func iabs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

// Interpolate returns the column density entering cell (i, j, k) on the ray
// from (i0, j0, k0), and the ray's path length through the cell in cell
// units. cd holds the outgoing column densities of already traced cells of
// an n³ mesh; sigma weights neighbours by their optical depth.
//
// The ray is followed back to the face of the plane one cell closer to the
// source, perpendicular to the axis of largest displacement (z wins ties,
// then y). The crossing point is bilinearly interpolated from the four
// surrounding cells of that plane.
func Interpolate(i, j, k, i0, j0, k0 int, cd []float64, sigma float64, n int) (cdIn, path float64) {
	idel, jdel, kdel := i-i0, j-j0, k-k0
	idela, jdela, kdela := iabs(idel), iabs(jdel), iabs(kdel)

	sgni, sgnj, sgnk := sign(idel), sign(jdel), sign(kdel)
	im, jm, km := i-sgni, j-sgnj, k-sgnk
	di, dj, dk := float64(idel), float64(jdel), float64(kdel)

	var c1, c2, c3, c4 float64
	var s1, s2, s3, s4 float64

	switch {
	case kdela >= jdela && kdela >= idela:
		alam := (float64(km-k0) + float64(sgnk)*0.5) / dk
		xc := alam*di + float64(i0)
		yc := alam*dj + float64(j0)
		dx := 2.0 * math.Abs(xc-(float64(im)+0.5*float64(sgni)))
		dy := 2.0 * math.Abs(yc-(float64(jm)+0.5*float64(sgnj)))

		s1 = (1 - dx) * (1 - dy)
		s2 = (1 - dy) * dx
		s3 = (1 - dx) * dy
		s4 = dx * dy

		c1 = upstream(cd, s1, im, jm, km, n)
		c2 = upstream(cd, s2, i, jm, km, n)
		c3 = upstream(cd, s3, im, j, km, n)
		c4 = upstream(cd, s4, i, j, km, n)

		cdIn = blend(c1, c2, c3, c4, s1, s2, s3, s4, sigma)
		if kdela == 1 && (idela == 1 || jdela == 1) {
			cdIn *= diagonal(idela == 1 && jdela == 1)
		}
		path = math.Sqrt((di*di+dj*dj)/(dk*dk) + 1.0)

	case jdela >= idela && jdela >= kdela:
		alam := (float64(jm-j0) + float64(sgnj)*0.5) / dj
		zc := alam*dk + float64(k0)
		xc := alam*di + float64(i0)
		dz := 2.0 * math.Abs(zc-(float64(km)+0.5*float64(sgnk)))
		dx := 2.0 * math.Abs(xc-(float64(im)+0.5*float64(sgni)))

		s1 = (1 - dx) * (1 - dz)
		s2 = (1 - dz) * dx
		s3 = (1 - dx) * dz
		s4 = dx * dz

		c1 = upstream(cd, s1, im, jm, km, n)
		c2 = upstream(cd, s2, i, jm, km, n)
		c3 = upstream(cd, s3, im, jm, k, n)
		c4 = upstream(cd, s4, i, jm, k, n)

		cdIn = blend(c1, c2, c3, c4, s1, s2, s3, s4, sigma)
		if jdela == 1 && (idela == 1 || kdela == 1) {
			cdIn *= diagonal(idela == 1 && kdela == 1)
		}
		path = math.Sqrt((di*di+dk*dk)/(dj*dj) + 1.0)

	default:
		alam := (float64(im-i0) + float64(sgni)*0.5) / di
		zc := alam*dk + float64(k0)
		yc := alam*dj + float64(j0)
		dz := 2.0 * math.Abs(zc-(float64(km)+0.5*float64(sgnk)))
		dy := 2.0 * math.Abs(yc-(float64(jm)+0.5*float64(sgnj)))

		s1 = (1 - dz) * (1 - dy)
		s2 = (1 - dz) * dy
		s3 = (1 - dy) * dz
		s4 = dy * dz

		c1 = upstream(cd, s1, im, jm, km, n)
		c2 = upstream(cd, s2, im, j, km, n)
		c3 = upstream(cd, s3, im, jm, k, n)
		c4 = upstream(cd, s4, im, j, k, n)

		cdIn = blend(c1, c2, c3, c4, s1, s2, s3, s4, sigma)
		if idela == 1 && (jdela == 1 || kdela == 1) {
			cdIn *= diagonal(jdela == 1 && kdela == 1)
		}
		path = math.Sqrt(1.0 + (dj*dj+dk*dk)/(di*di))
	}

	return cdIn, path
}

// upstream loads the column density of a neighbour with bilinear weight s.
// Neighbours with zero weight are not loaded: on the axis planes of the
// source they lie on the shell being traced, which other workers are still
// writing.
func upstream(cd []float64, s float64, i, j, k, n int) float64 {
	if s == 0 {
		return 0
	}
	return cd[grid.Offset(i, j, k, n)]
}

func blend(c1, c2, c3, c4, s1, s2, s3, s4, sigma float64) float64 {
	w1 := s1 * weight(c1, sigma)
	w2 := s2 * weight(c2, sigma)
	w3 := s3 * weight(c3, sigma)
	w4 := s4 * weight(c4, sigma)
	return (c1*w1 + c2*w2 + c3*w3 + c4*w4) / (w1 + w2 + w3 + w4)
}

// diagonal corrects the interpolated value of the unit-distance neighbours
// that sit on a face (√2) or corner (√3) diagonal of the source.
func diagonal(corner bool) float64 {
	if corner {
		return sqrt3
	}
	return sqrt2
}
