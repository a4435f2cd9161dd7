// Package heap implements a treadmill-style allocator and an incremental
// tri-colour mark/sweep collector: the cell allocator, free-cell pool,
// treadmill region lists, object header/tagging, and the incremental
// collector itself. The built-in string/closure value layer and print
// surface live in the sibling builtin package.
package heap

import (
	"errors"
	"time"

	"github.com/latticelang/heaprt/heap/tag"
	"github.com/latticelang/heaprt/stats"
)

// defaultBlockCapacity is the cell allocator's block size when a Manager's
// Config leaves BlockCapacity unset. Tests pick small values instead, so a
// handful of allocations is enough to force a block boundary and trigger GC
// deterministically.
const defaultBlockCapacity = 256

// Color is the collector's live_color: which of the two values currently
// means "alive" for an object's BLACK bit. Flipping this at the start of
// each cycle, instead of clearing every BLACK bit in the heap, is what
// keeps cycle-start an O(1) operation regardless of heap size.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) flip() Color {
	if c == White {
		return Black
	}
	return White
}

// Config configures a Manager. The zero value is valid and uses the
// defaults noted per field.
type Config struct {
	// BlockCapacity is the cell allocator's block size. Zero uses
	// defaultBlockCapacity.
	BlockCapacity int

	// MaxBlocks caps how many blocks the cell allocator may create before
	// reporting AllocFailure. Zero means unlimited, which is the right
	// choice for production use; tests set a small value to exercise
	// ErrOOM without exhausting real memory.
	MaxBlocks int

	// Asserts enables debug-mode invariant checks after every allocation
	// and gc_start. Leave it off in production; it walks every region
	// list and is not cheap.
	Asserts bool

	// OnFailure is the pluggable failure sink, called instead of the
	// caller having to special-case a panic or os.Exit. Defaults to a
	// no-op.
	OnFailure func(error)

	// Trace, if non-nil, receives printf-style debug traces of collector
	// activity: cycle boundaries, marks, sweeps.
	Trace func(format string, args ...any)
}

// Manager owns one runtime's heap state: the cell allocator, free-cell
// pool, treadmill region lists, and collector phase. Multiple independent
// instances are supported and share no global state, so embedding code can
// run more than one heap in a process (one per goroutine, one per test) or
// reset a heap by simply dropping its Manager.
type Manager struct {
	cfg Config

	cells *cellAllocator
	free  *freeCellPool

	from, to, new regionList

	gcInProgress bool
	liveColor    Color
	cycleStart   time.Time

	rec *stats.Recorder
}

// NewManager constructs a Manager from cfg. Its only failure today is a
// negative MaxBlocks, reported as an *InitError of kind ErrManagerInit.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.MaxBlocks < 0 {
		return nil, &InitError{Kind: ErrManagerInit, Err: errors.New("negative MaxBlocks")}
	}
	capacity := cfg.BlockCapacity
	if capacity <= 0 {
		capacity = defaultBlockCapacity
	}

	m := &Manager{
		cfg:   cfg,
		cells: newCellAllocator(capacity, cfg.MaxBlocks),
		free:  newFreeCellPool(),
		from:  newRegionList(),
		to:    newRegionList(),
		new:   newRegionList(),
		rec:   &stats.Recorder{},
	}
	return m, nil
}

// Close runs every live object's heap-free hook and discards the manager's
// state. Cells are never freed one at a time here; they are simply
// dropped along with the Manager.
func (m *Manager) Close() {
	for _, rl := range []*regionList{&m.from, &m.to, &m.new} {
		for idx := rl.head; idx != nilCell; {
			c := m.cellAt(idx)
			next := c.next
			if c.data != nil {
				if h := c.data.Header(); h.typ != nil && h.typ.Free != nil {
					h.typ.Free(c.data)
				}
			}
			c.data = nil
			idx = next
		}
		*rl = newRegionList()
	}
}

func (m *Manager) cellAt(idx int32) *cell {
	return m.cells.cellAt(idx)
}

// isAlive reports whether t's BLACK bit currently means "alive" under the
// collector's live_color.
func (m *Manager) isAlive(t tag.Tag) bool {
	return t.IsBlack() == (m.liveColor == Black)
}

func (m *Manager) trace(format string, args ...any) {
	if m.cfg.Trace != nil {
		m.cfg.Trace(format, args...)
	}
}

func (m *Manager) fail(err error) error {
	if m.cfg.OnFailure != nil {
		m.cfg.OnFailure(err)
	}
	return err
}

// Alloc runs the full per-allocation protocol (free-pool probe or
// bump-alloc, possible trigger/root-scan, one mark step, then region
// placement) and installs obj as the payload of the resulting cell.
// Callers construct obj themselves (e.g. &String{}) since Go has no
// untyped-byte-buffer allocation primitive to hand back; size is used
// purely for free-pool accounting and must match obj's TypeInfo.Size.
func (m *Manager) Alloc(frame *Frame, size uintptr, ti *TypeInfo, obj Object) error {
	idx, err := m.obtainCell(frame, size)
	if err != nil {
		return err
	}

	h := obj.Header()
	h.tag = tag.NewTag(ti.Kind)
	h.typ = ti
	h.cell = idx

	c := m.cellAt(idx)
	c.size = size
	c.data = obj
	m.rec.RecordAlloc()

	stillScanning := m.markStep()

	// A freshly placed cell is, by construction, alive under whichever
	// live_color is in force right now, whether that is because a cycle
	// is still marking (a baby, protected by region rather than by having
	// been traced) or because no cycle is running at all. Colouring it
	// to match here is what lets the next cycle's flip correctly read it
	// as needing marking, instead of matching the new live_color by
	// accident and being skipped by markChild, which would strand it in
	// "from" to be swept out from under a still-live root.
	h.tag = h.tag.WithBlack(m.liveColor == Black)

	if stillScanning && m.gcInProgress {
		// Baby object: conservatively alive by exclusion from "from",
		// never scanned this cycle.
		c.region = regionNew
		m.listAppend(&m.new, idx)
	} else {
		if m.gcInProgress {
			m.sweep()
			m.cycleEnd()
		}
		c.region = regionFrom
		m.listAppend(&m.from, idx)
	}

	if m.cfg.Asserts {
		if err := m.checkInvariants(); err != nil {
			panic(err)
		}
	}
	return nil
}

// obtainCell tries the free pool first, then bump-allocates a fresh cell,
// triggering marking if that bump-alloc grew the block chain and no cycle
// is already running.
func (m *Manager) obtainCell(frame *Frame, size uintptr) (int32, error) {
	if idx := m.free.pop(size); idx != nilCell {
		return idx, nil
	}
	idx, grew, ok := m.cells.alloc()
	if !ok {
		return 0, m.fail(ErrOOM)
	}
	if grew && !m.gcInProgress {
		m.beginMarking(frame)
	}
	return idx, nil
}

// beginMarking flips live_color and root-scans every frame in the parent
// chain.
func (m *Manager) beginMarking(frame *Frame) {
	m.liveColor = m.liveColor.flip()
	m.gcInProgress = true
	m.cycleStart = time.Now()
	m.trace("gc: cycle begin, live_color=%d", m.liveColor)

	for f := frame; f != nil; f = f.Parent {
		for _, r := range f.Roots {
			m.markChild(r)
		}
	}
}

// MarkChild is the shared "discover a pointer" primitive used by both root
// scan and every TypeInfo.Scan hook: for each reachable, heap-resident,
// not-yet-gray, not-yet-alive pointer, pop its cell out of "from" and
// append it to the to-region with GRAY set.
func (m *Manager) MarkChild(obj Object) {
	m.markChild(obj)
}

func (m *Manager) markChild(obj Object) {
	if obj == nil {
		return
	}
	h := obj.Header()
	if !h.tag.IsHeap() {
		return
	}
	if h.tag.IsGray() || m.isAlive(h.tag) {
		return
	}
	c := m.cellAt(h.cell)
	if c.region != regionFrom {
		// Already "to" (shouldn't happen given the GRAY check above) or
		// already "new" (a baby object referenced out of allocation
		// order); either way it is already safe from this cycle's sweep.
		return
	}
	m.listRemove(&m.from, h.cell)
	h.tag = h.tag.WithGray()
	c.region = regionTo
	m.listAppend(&m.to, h.cell)
	m.trace("gc: marked %s cell=%d gray", h.typ.Name, h.cell)
}

// markStep performs one unit of mark work: pop one GRAY cell off the
// to-region, scan it, recolour it alive, and move it to the new-region.
// Returns false once the to-region is drained.
func (m *Manager) markStep() bool {
	idx := m.listPopHead(&m.to)
	if idx == nilCell {
		return false
	}
	c := m.cellAt(idx)
	obj := c.data
	h := obj.Header()
	if fn := h.scanHook(); h.tag.IsGray() && fn != nil {
		fn(m, obj)
	}
	h.tag = h.tag.WithoutGray().WithBlack(m.liveColor == Black)
	c.region = regionNew
	m.listAppend(&m.new, idx)
	return true
}

// sweep reclaims every still-from-region (dead-coloured) cell. Nothing
// reachable remains in "from" once marking has drained, so this is a
// plain walk rather than a colour check per cell.
func (m *Manager) sweep() {
	var reclaimed uint64
	for idx := m.from.head; idx != nilCell; {
		c := m.cellAt(idx)
		next := c.next
		obj := c.data
		if h := obj.Header(); h.typ != nil && h.typ.Free != nil {
			h.typ.Free(obj)
		}
		sz := c.size
		c.data = nil
		c.region = regionFree
		m.free.push(sz, idx)
		reclaimed++
		idx = next
	}
	m.from = newRegionList()
	m.rec.RecordFrees(reclaimed)
	m.trace("gc: swept %d cells", reclaimed)
}

// cycleEnd fuses the new-region into from for the next cycle and clears
// gc_in_progress. Every fused cell's region tag is rewritten from "new" to
// "from": markChild's region gate and the sweep loop both key off this
// field, so a stale tag left over from the cycle that just ended would
// make the next cycle's root scan silently refuse to re-mark an otherwise
// reachable object, stranding it to be swept out from under a live root.
func (m *Manager) cycleEnd() {
	for idx := m.new.head; idx != nilCell; idx = m.cellAt(idx).next {
		m.cellAt(idx).region = regionFrom
	}
	m.from = m.new
	m.new = newRegionList()
	m.gcInProgress = false
	dur := time.Since(m.cycleStart)
	m.rec.RecordGC(dur, time.Now())
	m.trace("gc: cycle end, duration=%s", dur)
}

// GCStart is the stop-the-world variant: if no cycle is running, start
// one; then drain marking to completion; then sweep. Used for shutdown
// and for tests that want a deterministic collection point.
func (m *Manager) GCStart(frame *Frame) {
	if !m.gcInProgress {
		m.beginMarking(frame)
	}
	for m.markStep() {
	}
	if m.gcInProgress {
		m.sweep()
		m.cycleEnd()
	}
	if m.cfg.Asserts {
		if err := m.checkInvariants(); err != nil {
			panic(err)
		}
	}
}

// Stats returns a point-in-time accounting snapshot.
func (m *Manager) Stats() stats.Snapshot {
	return stats.Snapshot{
		Mallocs:    m.rec.Mallocs(),
		Frees:      m.rec.Frees(),
		FromCount:  m.from.count,
		ToCount:    m.to.count,
		NewCount:   m.new.count,
		FreeCount:  m.free.count(),
		NumGC:      m.rec.NumGC(),
		LastPause:  m.rec.LastPause(),
		TotalPause: m.rec.TotalPause(),
	}
}

// ReadGCStats returns a runtime/debug.GCStats-shaped snapshot of pause
// history, for callers already familiar with that standard library shape.
func (m *Manager) ReadGCStats() stats.GCStats {
	return m.rec.GCStats()
}

// InProgress reports whether a collection cycle is currently running.
func (m *Manager) InProgress() bool {
	return m.gcInProgress
}

// LiveColor returns the collector's current live_color.
func (m *Manager) LiveColor() Color {
	return m.liveColor
}
