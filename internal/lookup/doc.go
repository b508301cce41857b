// Package lookup holds the precomputed photo-ionization and photo-heating
// rate tables consumed by the raytracer.
//
// A [Table] stores, for every frequency bin, four curves sampled on the
// optical-depth grid
//
//	tau[0] = 0, tau[i] = 10^(MinLogTau + (i-1)*DLogTau), i = 1..NumTau
//
// Tables are immutable once built and may be shared by any number of
// concurrent raytrace passes.
//
// Building physical tables from a source spectrum is the driver's job; this
// package only offers the grey-opacity table ([Grey]) and CSV round-tripping.
package lookup
