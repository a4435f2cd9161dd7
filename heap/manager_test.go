package heap

import (
	"testing"

	"github.com/latticelang/heaprt/heap/tag"
)

// fakeObj is a minimal Object for exercising the manager without pulling
// in the builtin package's string/closure machinery.
type fakeObj struct {
	Header
	tag2   Object // a single outgoing pointer, or nil
	scans  *int
	frees  *int
}

func fakeScan(m *Manager, obj Object) {
	o := obj.(*fakeObj)
	if o.scans != nil {
		*o.scans++
	}
	if o.tag2 != nil {
		m.MarkChild(o.tag2)
	}
}

func fakeFree(obj Object) {
	o := obj.(*fakeObj)
	if o.frees != nil {
		*o.frees++
	}
}

var fakeType = &TypeInfo{Kind: tag.KindStruct, Name: "fake", Size: 8, Scan: fakeScan, Free: fakeFree}

func newTestManager(t *testing.T, capacity int) *Manager {
	t.Helper()
	m, err := NewManager(Config{BlockCapacity: capacity, Asserts: true})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func allocFake(t *testing.T, m *Manager, frame *Frame, child Object) *fakeObj {
	t.Helper()
	o := &fakeObj{tag2: child}
	if err := m.Alloc(frame, fakeType.Size, fakeType, o); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	return o
}

func TestAllocWithoutGC(t *testing.T) {
	m := newTestManager(t, 8)
	frame := NewFrame(nil, m, 1)

	o := allocFake(t, m, frame, nil)
	frame.SetRoot(0, o)

	st := m.Stats()
	if st.Mallocs != 1 {
		t.Errorf("Mallocs = %d, want 1", st.Mallocs)
	}
	if st.FromCount != 1 {
		t.Errorf("FromCount = %d, want 1", st.FromCount)
	}
}

func TestAllocGrowthTriggersGC(t *testing.T) {
	m := newTestManager(t, 2)
	frame := NewFrame(nil, m, 4)

	for i := 0; i < 4; i++ {
		o := allocFake(t, m, frame, nil)
		frame.SetRoot(i, o)
	}

	// A cycle began mid-loop once the second arena block was needed; drain
	// it so every rooted object is settled into a stable region.
	m.GCStart(frame)

	st := m.Stats()
	if st.Mallocs != 4 {
		t.Errorf("Mallocs = %d, want 4", st.Mallocs)
	}
	if st.FreeCount != 0 {
		t.Errorf("FreeCount = %d, want 0: a rooted object was swept", st.FreeCount)
	}
	if st.FromCount != 4 {
		t.Errorf("FromCount = %d, want 4 after the cycle settles", st.FromCount)
	}
}

func TestUnreachableObjectIsReclaimed(t *testing.T) {
	m := newTestManager(t, 2)
	frame := NewFrame(nil, m, 1)

	dead := allocFake(t, m, frame, nil)
	frees := 0
	dead.frees = &frees
	// dead is never rooted; frame.Roots[0] holds a live survivor instead.
	survivor := allocFake(t, m, frame, nil)
	frame.SetRoot(0, survivor)

	m.GCStart(frame)

	if frees != 1 {
		t.Errorf("unreachable object's free hook ran %d times, want 1", frees)
	}
	if !m.isAlive(survivor.tag) {
		t.Errorf("rooted survivor did not survive GCStart")
	}
}

func TestMarkChildKeepsReferentAlive(t *testing.T) {
	m := newTestManager(t, 4)
	frame := NewFrame(nil, m, 1)

	child := allocFake(t, m, frame, nil)
	parent := allocFake(t, m, frame, child)
	frame.SetRoot(0, parent)

	m.GCStart(frame)

	if !m.isAlive(parent.tag) {
		t.Errorf("parent not alive after GCStart")
	}
	if !m.isAlive(child.tag) {
		t.Errorf("child reachable only through parent was not kept alive")
	}
}

func TestExactSizeFreeCellReuse(t *testing.T) {
	m := newTestManager(t, 4)
	frame := NewFrame(nil, m, 1)

	first := allocFake(t, m, frame, nil)
	firstCell := first.Header.cell
	frame.SetRoot(0, nil) // unroot before the next GC cycle

	m.GCStart(frame)
	if m.free.count() == 0 {
		t.Fatalf("expected the reclaimed cell to land in the free pool")
	}

	second := allocFake(t, m, frame, nil)
	if second.Header.cell != firstCell {
		t.Errorf("same-size allocation after sweep reused cell %d, want reclaimed cell %d", second.Header.cell, firstCell)
	}
}

func TestAllocFailureReturnsErrOOM(t *testing.T) {
	m, err := NewManager(Config{BlockCapacity: 1, MaxBlocks: 1})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	frame := NewFrame(nil, m, 2)

	frame.SetRoot(0, allocFake(t, m, frame, nil))
	if err := m.Alloc(frame, fakeType.Size, fakeType, &fakeObj{}); err == nil {
		t.Fatalf("expected ErrOOM once MaxBlocks is exhausted, got nil")
	}
}

func TestNewManagerRejectsNegativeMaxBlocks(t *testing.T) {
	if _, err := NewManager(Config{MaxBlocks: -1}); err == nil {
		t.Errorf("expected an InitError for negative MaxBlocks")
	}
}

func TestCheckInvariantsAfterCycle(t *testing.T) {
	m := newTestManager(t, 3)
	frame := NewFrame(nil, m, 2)

	frame.SetRoot(0, allocFake(t, m, frame, nil))
	frame.SetRoot(1, allocFake(t, m, frame, nil))
	m.GCStart(frame)

	if err := m.checkInvariants(); err != nil {
		t.Errorf("checkInvariants: %v", err)
	}
}
