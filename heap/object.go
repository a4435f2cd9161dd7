package heap

import "github.com/latticelang/heaprt/heap/tag"

// Object is implemented by every value that can live in the managed heap.
// Header returns the embedded Header that carries this object's tag bits,
// type info, and owning-cell index. Built-in values (strings, closures)
// and compiler-emitted aggregates alike satisfy this by embedding Header
// as their first field.
type Object interface {
	Header() *Header
}

// Header is the common Object prefix: tag (kind + HEAP/BLACK/GRAY bits), a
// pointer to the static TypeInfo, the owning cell's index (the O(1)
// object→cell back-pointer), and an optional per-instance scan override.
type Header struct {
	tag  tag.Tag
	typ  *TypeInfo
	cell int32
	scan ScanFunc // overrides typ.Scan when set; see SetScan
}

// Header implements Object by returning itself, so any struct that embeds
// Header by value automatically satisfies the Object interface.
func (h *Header) Header() *Header { return h }

// Tag returns the current tag bits.
func (h *Header) Tag() tag.Tag { return h.tag }

// Type returns this object's static type info.
func (h *Header) Type() *TypeInfo { return h.typ }

// SetScan installs a scan hook specific to this object instance, taking
// priority over its TypeInfo's Scan. Closures use this: every closure
// instance closes over a different set of variables, so one shared
// TypeInfo cannot supply a single hook that walks them all the same way.
func (h *Header) SetScan(fn ScanFunc) {
	h.scan = fn
}

// scanHook returns the function that should walk this object's outgoing
// pointers: its own override if one was installed, else its TypeInfo's.
func (h *Header) scanHook() ScanFunc {
	if h.scan != nil {
		return h.scan
	}
	if h.typ != nil {
		return h.typ.Scan
	}
	return nil
}

// ScanFunc discovers a heap object's outgoing pointers and reports them to
// the collector via Manager.MarkChild. It can be installed per-type on a
// TypeInfo, or per-instance via Header.SetScan for values (like closures)
// whose reachable set varies between instances of the same kind.
type ScanFunc func(m *Manager, obj Object)

// FreeFunc runs at sweep (or at manager teardown) to release any
// off-heap resources an object owns, e.g. an OWNED string's byte buffer.
type FreeFunc func(obj Object)

// TypeInfo is one static record per kind, holding the heap-free hook and
// (for kinds where every instance scans the same way) the scan hook.
// Allocated once as a package-level constant rather than lazily
// initialised into static storage.
type TypeInfo struct {
	Kind tag.Kind
	Name string
	Size uintptr // logical payload size used for exact-size free-pool reuse
	Scan ScanFunc
	Free FreeFunc
}
