// Package stats collects allocation and collection-cycle accounting for a
// heap.Manager, shaped after runtime/debug.GCStats so callers already
// familiar with that standard library type feel at home, but wired to a
// real per-instance collector instead of a process-global one.
package stats

import "time"

// Snapshot is a point-in-time accounting view: live/free cell counts per
// region plus allocation and collection totals.
type Snapshot struct {
	Mallocs    uint64
	Frees      uint64
	FromCount  int
	ToCount    int
	NewCount   int
	FreeCount  int
	NumGC      int64
	LastPause  time.Duration
	TotalPause time.Duration
}

// GCStats mirrors the shape of runtime/debug.GCStats, backed by real
// per-cycle pause samples.
type GCStats struct {
	LastGC     time.Time
	NumGC      int64
	PauseTotal time.Duration
	Pause      []time.Duration
	PauseEnd   []time.Time
}

// maxPauseHistory bounds how many individual pause samples Recorder
// keeps, so a long-running process doesn't grow this list forever.
const maxPauseHistory = 256

// Recorder accumulates allocation and GC-pause accounting for one
// heap.Manager instance. The zero value is ready to use.
type Recorder struct {
	mallocs uint64
	frees   uint64
	numGC   int64
	pauses  []time.Duration
	ends    []time.Time
	lastGC  time.Time
	total   time.Duration
}

// RecordAlloc is invoked once per successful allocation.
func (r *Recorder) RecordAlloc() {
	r.mallocs++
}

// RecordFrees adds n to the total freed-object counter (called once per
// sweep with the number of objects reclaimed that cycle).
func (r *Recorder) RecordFrees(n uint64) {
	r.frees += n
}

// RecordGC is invoked once per completed collection cycle (gc_start or a
// cycle triggered by allocation pressure) with its wall-clock duration.
func (r *Recorder) RecordGC(d time.Duration, at time.Time) {
	r.numGC++
	r.total += d
	r.lastGC = at
	if len(r.pauses) >= maxPauseHistory {
		r.pauses = r.pauses[1:]
		r.ends = r.ends[1:]
	}
	r.pauses = append(r.pauses, d)
	r.ends = append(r.ends, at)
}

// GCStats fills out a GCStats snapshot from the recorded pause history.
func (r *Recorder) GCStats() GCStats {
	pause := make([]time.Duration, len(r.pauses))
	copy(pause, r.pauses)
	ends := make([]time.Time, len(r.ends))
	copy(ends, r.ends)
	return GCStats{
		LastGC:     r.lastGC,
		NumGC:      r.numGC,
		PauseTotal: r.total,
		Pause:      pause,
		PauseEnd:   ends,
	}
}

// Mallocs and Frees expose the raw counters for Snapshot assembly by the
// heap package, which knows the current region counts Recorder does not
// track itself.
func (r *Recorder) Mallocs() uint64 { return r.mallocs }
func (r *Recorder) Frees() uint64   { return r.frees }
func (r *Recorder) NumGC() int64    { return r.numGC }
func (r *Recorder) LastPause() time.Duration {
	if len(r.pauses) == 0 {
		return 0
	}
	return r.pauses[len(r.pauses)-1]
}
func (r *Recorder) TotalPause() time.Duration { return r.total }
