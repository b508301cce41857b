// Package analysis summarizes the output grids of a raytracing call.
//
// The package includes:
//
//   - [Summarize]: mean, spread and extremes of a grid
//   - [RadialProfile]: spherically averaged profile around a cell
//   - [PhotonBudget]: photons absorbed on the mesh against photons emitted
//
// # Photon conservation
//
// In a medium thick enough to absorb every photon inside the source cell the
// budget closes exactly:
//
//	b := analysis.PhotonBudget(res, inputs, params)
//	if math.Abs(b.Fraction-1) > 1e-9 {
//	    // rates lost photons
//	}
package analysis
