// Package asora drives the octahedral raytracer over a whole source list.
//
// A [Context] owns every buffer a call needs: the nine output grids and one
// private column-density scratch per concurrently traced source. It is
// opened once per simulation and reused for every timestep:
//
//	ctx, err := asora.Open(params, asora.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	stats, err := ctx.DoAllSources(context.Background(), inputs)
//	...
//	res, err := ctx.Snapshot()
//
// Sources are traced in batches of Params.BatchWidth. Each batch runs one
// work-group per source and completes before the next starts, because the
// scratch buffers are reused. Rates from all sources of all batches
// accumulate into the same grids, so the summation order, and the last bits
// of the result, depend on scheduling.
//
// # Errors
//
// Any failure during a call is reported as a [*LaunchError] naming the
// failing operation; partial results are never exposed.
package asora
