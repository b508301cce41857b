// Package raytrace implements the ASORA short-characteristics kernel.
//
// For one source, [Pass.Run] walks octahedral shells q = 0..QMax. Every
// cell of shell q takes its incoming column density from the four cells of
// the plane one step closer to the source ([Interpolate]), adds its own
// absorption, and deposits photo-ionization and photo-heating rates looked
// up from the optical depth it spans.
//
// Shells are separated by a barrier: the cells of shell q+1 read column
// densities written by shell q. All writes to shared grids go through the
// pass's AddFunc so that sources traced concurrently can share outputs.
package raytrace
