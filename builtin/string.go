package builtin

import (
	"unsafe"

	"github.com/latticelang/heaprt/heap"
	"github.com/latticelang/heaprt/heap/tag"
)

// String is a managed string value: a length, a byte source, and (for
// SLICE strings) a pointer to the string it borrows from. OWNED strings
// carry their own backing array in data; SLICE strings carry start/len
// into src's backing array and leave data nil. SLICE strings never own
// bytes of their own.
type String struct {
	heap.Header
	length int
	start  int     // valid only when src != nil
	data   []byte  // valid only when src == nil (OWNED)
	src    *String // non-nil only for SLICE; always the chased-to-root OWNED string
}

// stringSize is the logical payload size used for exact-size free-pool
// reuse; OWNED and SLICE strings share one struct shape so cells freed by
// either kind are reusable by the other.
var stringSize = unsafe.Sizeof(String{})

func scanString(m *heap.Manager, obj heap.Object) {
	s := obj.(*String)
	// Only a SLICE has an outgoing pointer to mark; an OWNED string's
	// bytes are off-heap and carry no managed references.
	if s.src != nil {
		m.MarkChild(s.src)
	}
}

func freeString(obj heap.Object) {
	s := obj.(*String)
	// OWNED frees its byte buffer; SLICE owns no bytes and does nothing.
	// Go's own GC will eventually reclaim the backing array once
	// unreferenced; clearing data here keeps the lifetime explicit.
	if s.src == nil {
		s.data = nil
	}
}

// stringOwnedType and stringSliceType are the static TypeInfo constants
// for the two String kinds, allocated once as package-level values rather
// than lazily initialised. stringOwnedType is the representative handle a
// code generator would register against the STR kind; SLICE objects carry
// stringSliceType directly in their own header instead.
var stringOwnedType = &heap.TypeInfo{
	Kind: tag.KindStr,
	Name: "string",
	Size: stringSize,
	Scan: scanString,
	Free: freeString,
}

var stringSliceType = &heap.TypeInfo{
	Kind: tag.KindStrSlice,
	Name: "string_slice",
	Size: stringSize,
	Scan: scanString,
	Free: freeString,
}

// StringTypeInfo returns the static TypeInfo for OWNED strings.
func StringTypeInfo() *heap.TypeInfo { return stringOwnedType }

// emptyString is the canonical, process-wide empty string: a static
// Object with HEAP unset, so it is never allocated, and root scan and
// marking skip it even when it sits in a root slot; it is never swept.
var emptyString = &String{}

// Empty returns the canonical empty string.
func Empty() *String { return emptyString }

// Bytes returns s's byte contents, chasing through src for a SLICE.
func (s *String) Bytes() []byte {
	if s.src != nil {
		return s.src.data[s.start : s.start+s.length]
	}
	return s.data
}

// Len returns s's byte length.
func Len(s *String) int { return s.length }

// String implements fmt.Stringer for debug output and the print surface.
func (s *String) String() string { return string(s.Bytes()) }

func newOwned(frame *heap.Frame, buf []byte) (*String, error) {
	s := &String{length: len(buf), data: buf}
	if err := frame.Manager.Alloc(frame, stringSize, stringOwnedType, s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewLiteral allocates an OWNED string copying text's bytes, the entry
// point a code generator uses for string literals.
func NewLiteral(frame *heap.Frame, text string) (*String, error) {
	if len(text) == 0 {
		return Empty(), nil
	}
	buf := make([]byte, len(text))
	copy(buf, text)
	return newOwned(frame, buf)
}

// Concat returns a new OWNED string holding a's bytes followed by b's, or
// the canonical empty string if both operands are empty.
func Concat(frame *heap.Frame, a, b *String) (*String, error) {
	if Len(a) == 0 && Len(b) == 0 {
		return Empty(), nil
	}
	buf := make([]byte, Len(a)+Len(b))
	copy(buf, a.Bytes())
	copy(buf[Len(a):], b.Bytes())
	return newOwned(frame, buf)
}

// root chases src pointers to the owning OWNED string.
func root(s *String) *String {
	for s.src != nil {
		s = s.src
	}
	return s
}

// Slice returns the [start,end) byte range of s as a SLICE string sharing
// the backing storage of s's root OWNED string. An empty range returns the
// canonical empty string and the full range returns s itself; start < 0,
// start > end or end > Len(s) yields ErrIndexOutOfBounds.
func Slice(frame *heap.Frame, s *String, start, end int) (*String, error) {
	if start < 0 || start > end || end > Len(s) {
		return nil, ErrIndexOutOfBounds
	}
	if end-start == 0 {
		return Empty(), nil
	}
	if start == 0 && end == Len(s) {
		return s, nil // identity slice
	}
	r := root(s)
	base := start
	if s.src != nil {
		base = s.start + start
	}
	out := &String{length: end - start, start: base, src: r}
	if err := frame.Manager.Alloc(frame, stringSize, stringSliceType, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether a and b hold the same bytes.
func Equal(a, b *String) bool {
	ab, bb := a.Bytes(), b.Bytes()
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// Repeat returns a new OWNED string holding s's bytes repeated n times.
// n == 0 returns the canonical empty string, n == 1 returns s itself, and
// a negative n yields ErrIndexOutOfBounds.
func Repeat(frame *heap.Frame, s *String, n int) (*String, error) {
	if n < 0 {
		return nil, ErrIndexOutOfBounds
	}
	if n == 0 {
		return Empty(), nil
	}
	if n == 1 {
		return s, nil
	}
	buf := make([]byte, 0, Len(s)*n)
	for i := 0; i < n; i++ {
		buf = append(buf, s.Bytes()...)
	}
	return newOwned(frame, buf)
}
