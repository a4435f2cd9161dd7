package builtin

import (
	"testing"

	"github.com/latticelang/heaprt/heap"
)

func newTestFrame(t *testing.T, capacity int) *heap.Frame {
	t.Helper()
	mgr, err := heap.NewManager(heap.Config{BlockCapacity: capacity, Asserts: true})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return heap.NewFrame(nil, mgr, 8)
}

func TestConcatWithEmptyKeepsOperandBytes(t *testing.T) {
	frame := newTestFrame(t, 8)
	hello, err := NewLiteral(frame, "hello")
	if err != nil {
		t.Fatalf("NewLiteral: %v", err)
	}
	frame.SetRoot(0, hello)

	out, err := Concat(frame, hello, Empty())
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("Concat(hello, \"\") = %q, want %q", out.String(), "hello")
	}

	out2, err := Concat(frame, Empty(), Empty())
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out2 != Empty() {
		t.Errorf("Concat(\"\", \"\") did not return the canonical empty string")
	}
}

func TestConcatProducesOwnedString(t *testing.T) {
	frame := newTestFrame(t, 8)
	a, _ := NewLiteral(frame, "foo")
	b, _ := NewLiteral(frame, "bar")
	frame.SetRoot(0, a)
	frame.SetRoot(1, b)

	out, err := Concat(frame, a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if got := out.String(); got != "foobar" {
		t.Errorf("Concat(foo, bar) = %q, want %q", got, "foobar")
	}
	if out.src != nil {
		t.Errorf("Concat(foo, bar) returned a SLICE string, want OWNED")
	}
}

func TestSliceIdentityReturnsSameObject(t *testing.T) {
	frame := newTestFrame(t, 8)
	s, _ := NewLiteral(frame, "hello")
	frame.SetRoot(0, s)

	out, err := Slice(frame, s, 0, Len(s))
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if out != s {
		t.Errorf("Slice(s, 0, len(s)) did not return s by identity")
	}
}

func TestSliceKeepsBackingStringAlive(t *testing.T) {
	frame := newTestFrame(t, 2)
	root, _ := NewLiteral(frame, "hello world")
	frame.SetRoot(0, root)

	sliced, err := Slice(frame, root, 0, 5)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if sliced.String() != "hello" {
		t.Errorf("Slice(root,0,5) = %q, want %q", sliced.String(), "hello")
	}

	// Unroot the original and root only the slice: the backing OWNED
	// string must survive a GC cycle because the slice's scan hook marks
	// it.
	frame.SetRoot(0, nil)
	frame.SetRoot(1, sliced)

	frame.Manager.GCStart(frame)

	if got := sliced.String(); got != "hello" {
		t.Errorf("slice content after GC = %q, want %q (backing string was collected)", got, "hello")
	}
}

func TestChainedSliceResolvesToRootOwner(t *testing.T) {
	frame := newTestFrame(t, 8)
	root, _ := NewLiteral(frame, "hello world")
	frame.SetRoot(0, root)

	mid, err := Slice(frame, root, 0, 5)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	frame.SetRoot(1, mid)

	leaf, err := Slice(frame, mid, 1, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if leaf.src != root {
		t.Errorf("slice-of-slice did not chase through to the root OWNED string")
	}
	if got := leaf.String(); got != "ell" {
		t.Errorf("leaf slice = %q, want %q", got, "ell")
	}
}

func TestSliceOutOfBounds(t *testing.T) {
	frame := newTestFrame(t, 8)
	s, _ := NewLiteral(frame, "hi")
	frame.SetRoot(0, s)

	cases := []struct{ start, end int }{
		{-1, 1},
		{0, 3},
		{2, 1},
	}
	for _, c := range cases {
		if _, err := Slice(frame, s, c.start, c.end); err != ErrIndexOutOfBounds {
			t.Errorf("Slice(s, %d, %d) error = %v, want ErrIndexOutOfBounds", c.start, c.end, err)
		}
	}
}

func TestRepeatLaws(t *testing.T) {
	frame := newTestFrame(t, 8)
	s, _ := NewLiteral(frame, "ab")
	frame.SetRoot(0, s)

	zero, err := Repeat(frame, s, 0)
	if err != nil {
		t.Fatalf("Repeat n=0: %v", err)
	}
	if zero != Empty() {
		t.Errorf("Repeat(s, 0) did not return the canonical empty string")
	}

	one, err := Repeat(frame, s, 1)
	if err != nil {
		t.Fatalf("Repeat n=1: %v", err)
	}
	if one != s {
		t.Errorf("Repeat(s, 1) did not return s by identity")
	}

	three, err := Repeat(frame, s, 3)
	if err != nil {
		t.Fatalf("Repeat n=3: %v", err)
	}
	if got := three.String(); got != "ababab" {
		t.Errorf("Repeat(s, 3) = %q, want %q", got, "ababab")
	}

	if _, err := Repeat(frame, s, -1); err != ErrIndexOutOfBounds {
		t.Errorf("Repeat(s, -1) error = %v, want ErrIndexOutOfBounds", err)
	}
}

func TestEqual(t *testing.T) {
	frame := newTestFrame(t, 8)
	a, _ := NewLiteral(frame, "same")
	b, _ := NewLiteral(frame, "same")
	c, _ := NewLiteral(frame, "different")
	frame.SetRoot(0, a)
	frame.SetRoot(1, b)
	frame.SetRoot(2, c)

	if !Equal(a, b) {
		t.Errorf("Equal(a, b) = false, want true for equal contents")
	}
	if !Equal(a, a) {
		t.Errorf("Equal(a, a) = false, want true (reflexive)")
	}
	if Equal(a, b) != Equal(b, a) {
		t.Errorf("Equal is not symmetric")
	}
	if Equal(a, c) {
		t.Errorf("Equal(a, c) = true, want false for different contents")
	}
}

func TestUnrootedOwnedStringIsReclaimed(t *testing.T) {
	frame := newTestFrame(t, 2)
	s, _ := NewLiteral(frame, "temporary")
	frame.SetRoot(0, s)

	frame.SetRoot(0, nil)
	frame.Manager.GCStart(frame)

	if st := frame.Manager.Stats(); st.FreeCount == 0 {
		t.Errorf("expected the unrooted literal's cell to land in the free pool, FreeCount=%d", st.FreeCount)
	}
}
