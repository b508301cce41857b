// Package scenario turns a run configuration into the inputs of a raytracing
// call: density and ionization grids, a source list, cross sections and a
// rate table.
package scenario
