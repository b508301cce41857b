package asora

import "time"

// BatchEvent reports a finished batch.
type BatchEvent struct {
	Batch   int
	Batches int
	First   int
	Count   int
	Elapsed time.Duration
}

type Observer interface {
	OnBatch(ev BatchEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev BatchEvent)

func (f ObserverFunc) OnBatch(ev BatchEvent) { f(ev) }
