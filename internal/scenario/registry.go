package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/asora/internal/config"
	"github.com/san-kum/asora/internal/grid"
)

// DensityFunc fills a hydrogen-plus-helium number density field.
type DensityFunc func(n int, cfg config.DensityConfig) *grid.Grid

type Registry struct {
	densities map[string]DensityFunc
}

func NewRegistry() *Registry {
	r := &Registry{
		densities: make(map[string]DensityFunc),
	}

	r.densities["uniform"] = func(n int, cfg config.DensityConfig) *grid.Grid {
		return grid.Filled(n, cfg.Mean)
	}
	r.densities["clumpy"] = Clumpy

	return r
}

func (r *Registry) GetDensity(name string) (DensityFunc, error) {
	fn, ok := r.densities[name]
	if !ok {
		return nil, fmt.Errorf("unknown density model: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListDensities() []string {
	names := make([]string, 0, len(r.densities))
	for name := range r.densities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clumpy lays Gaussian overdensities of peak cfg.Contrast over a uniform
// background, then rescales the field to mean cfg.Mean. Clumps wrap around
// the periodic box.
func Clumpy(n int, cfg config.DensityConfig) *grid.Grid {
	g := grid.Filled(n, 1)
	rng := rand.New(rand.NewSource(cfg.Seed))

	for c := 0; c < cfg.Clumps; c++ {
		ci, cj, ck := rng.Intn(n), rng.Intn(n), rng.Intn(n)
		width := 0.5 + rng.Float64()*math.Max(1, float64(n)/8)
		inv := 1 / (2 * width * width)
		reach := int(math.Ceil(3 * width))

		for di := -reach; di <= reach; di++ {
			for dj := -reach; dj <= reach; dj++ {
				for dk := -reach; dk <= reach; dk++ {
					r2 := float64(di*di + dj*dj + dk*dk)
					off := grid.Offset(ci+di, cj+dj, ck+dk, n)
					g.Data[off] += (cfg.Contrast - 1) * math.Exp(-r2*inv)
				}
			}
		}
	}

	if mean := floats.Sum(g.Data) / float64(len(g.Data)); mean > 0 {
		floats.Scale(cfg.Mean/mean, g.Data)
	}
	return g
}
