package builtin

import (
	"unsafe"

	"github.com/latticelang/heaprt/heap"
	"github.com/latticelang/heaprt/heap/tag"
)

// Closure is a code pointer plus the values a compiled closure closed
// over. Unlike String, which has exactly two scan shapes (OWNED, SLICE)
// shared by every instance, each closure's captured-variable set is
// unique to that instance, so Closure carries its own scan hook
// (installed via ClosureNew) instead of dispatching through a single
// TypeInfo-wide Scan.
type Closure struct {
	heap.Header
	Code     unsafe.Pointer
	captures []heap.Object
}

var closureSize = unsafe.Sizeof(Closure{})

func freeClosure(obj heap.Object) {
	c := obj.(*Closure)
	c.captures = nil
}

// closureType is the static TypeInfo for every Closure. It carries no
// Scan hook: that varies per instance and is supplied to ClosureNew
// instead.
var closureType = &heap.TypeInfo{
	Kind: tag.KindFunc,
	Name: "closure",
	Size: closureSize,
	Free: freeClosure,
}

// ClosureTypeInfo returns the static TypeInfo for closures.
func ClosureTypeInfo() *heap.TypeInfo { return closureType }

// ClosureNew allocates a closure wrapping code, with scanHook installed as
// the instance's own outgoing-pointer walker. Compiled code supplies a
// hook matching whatever representation it stores captures in; callers
// using the []heap.Object captures slice (via SetCaptures) can pass
// ScanCaptures.
func ClosureNew(frame *heap.Frame, code unsafe.Pointer, scanHook heap.ScanFunc) (*Closure, error) {
	c := &Closure{Code: code}
	if err := frame.Manager.Alloc(frame, closureSize, closureType, c); err != nil {
		return nil, err
	}
	c.SetScan(scanHook)
	return c, nil
}

// SetCaptures installs the values this closure closed over. Compiled code
// calls this once, right after ClosureNew, with the full set of captured
// variables.
func (c *Closure) SetCaptures(captures []heap.Object) {
	c.captures = captures
}

// Capture reads capture slot i.
func (c *Closure) Capture(i int) heap.Object {
	return c.captures[i]
}

// ScanCaptures walks a Closure's captures slice set via SetCaptures. Pass
// this as ClosureNew's scanHook whenever captures are stored that way.
func ScanCaptures(m *heap.Manager, obj heap.Object) {
	c := obj.(*Closure)
	for _, cap := range c.captures {
		m.MarkChild(cap)
	}
}
