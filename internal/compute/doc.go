// Package compute provides the execution backends the raytracer runs on.
//
// A backend dispatches a grid of independent work-groups (one per source in
// a batch). Each work-group owns a [Team] of workers that cooperatively
// process one shell at a time:
//
//	err := backend.Launch(ctx, groups, func(ctx context.Context, g int, team *compute.Team) error {
//	    for q := 0; q <= qMax; q++ {
//	        if err := team.Run(octa.CellCount(q), visit); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
//
// Team.Run returns only after every item has finished, which is the
// inter-shell barrier.
//
// Available backends:
//
//   - cpu: work-groups on goroutines, teams of runtime.NumCPU workers
//   - serial: one group at a time on a single worker
//
// [Probe] inspects a backend once and selects how shared grids are
// accumulated: a direct add when nothing runs concurrently, a
// compare-and-swap loop otherwise.
package compute
