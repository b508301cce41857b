package compute

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AddFunc adds v to dst[i].
type AddFunc func(dst []float64, i int, v float64)

// AddDirect is a plain read-modify-write. Only valid when no other worker
// touches dst concurrently.
func AddDirect(dst []float64, i int, v float64) {
	dst[i] += v
}

// AddCAS atomically adds v to dst[i] with a compare-and-swap loop on the
// value's bit pattern.
func AddCAS(dst []float64, i int, v float64) {
	addr := (*uint64)(unsafe.Pointer(&dst[i]))
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// Capabilities is the outcome of probing a backend for a launch shape.
type Capabilities struct {
	Backend    string
	Workers    int
	Groups     int
	Concurrent bool
	Add        AddFunc
	AddName    string
}

// Probe decides once how shared grids are updated for launches of the given
// number of work-groups.
func Probe(b Backend, groups int) Capabilities {
	c := Capabilities{
		Backend:    b.Name(),
		Workers:    b.Workers(),
		Groups:     groups,
		Concurrent: b.Concurrent(groups),
	}
	if c.Concurrent {
		c.Add, c.AddName = AddCAS, "cas"
	} else {
		c.Add, c.AddName = AddDirect, "direct"
	}
	return c
}
