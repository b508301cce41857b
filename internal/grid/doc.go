// Package grid provides periodic addressing for cubic N×N×N meshes.
//
// Every field is stored as a dense row-major slice of N³ float64 values.
// Coordinates are wrapped on each axis before flattening, so any integer
// triple maps to a valid offset:
//
//	off := grid.Offset(i, j, k, n) // n*n*wrap(i) + n*wrap(j) + wrap(k)
//
// The wrap is always non-negative, matching Fortran's MODULO rather than Go's %.
package grid
