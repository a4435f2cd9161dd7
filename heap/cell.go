package heap

// cellRegion records which of the treadmill regions a cell currently
// belongs to.
type cellRegion uint8

const (
	regionFree cellRegion = iota // cell is sitting in the free-cell pool, no payload
	regionFrom                   // live-at-cycle-start
	regionTo                     // reached, not yet scanned (GRAY)
	regionNew                    // scanned this cycle, or a baby object
)

func (r cellRegion) String() string {
	switch r {
	case regionFree:
		return "free"
	case regionFrom:
		return "from"
	case regionTo:
		return "to"
	case regionNew:
		return "new"
	default:
		return "invalid"
	}
}

// nilCell is the sentinel "no cell" index.
const nilCell int32 = -1

// cell is a fixed-shape metadata record tracking a payload's size, its
// region-list links, and the owning Object. The back-pointer from payload
// to owning cell is carried in the object's own Header (see object.go)
// rather than in a prefix word, so this struct needs no reverse pointer.
type cell struct {
	size   uintptr
	region cellRegion
	prev   int32 // previous cell in the region's doubly-linked list, or nilCell
	next   int32 // next cell in the region's doubly-linked list, or nilCell
	data   Object
}

// regionList is a doubly-linked list of cell indices sharing one region.
// The treadmill's regions are realised as three of these (from/to/new)
// plus the size-bucketed free-cell pool in cellblock.go's sibling
// freepool.go, rather than one physical circular list threaded through
// shared cursors: each region gets a plain O(1) list-append/remove
// instead of a cursor-swap dance.
type regionList struct {
	head, tail int32
	count      int
}

func newRegionList() regionList {
	return regionList{head: nilCell, tail: nilCell}
}

// listAppend adds idx to the tail of the list.
func (m *Manager) listAppend(rl *regionList, idx int32) {
	c := m.cellAt(idx)
	c.prev = rl.tail
	c.next = nilCell
	if rl.tail != nilCell {
		m.cellAt(rl.tail).next = idx
	} else {
		rl.head = idx
	}
	rl.tail = idx
	rl.count++
}

// listPopHead removes and returns the head of the list, or nilCell if empty.
func (m *Manager) listPopHead(rl *regionList) int32 {
	idx := rl.head
	if idx == nilCell {
		return nilCell
	}
	m.listRemove(rl, idx)
	return idx
}

// listRemove unlinks idx from wherever it sits in the list. idx must currently
// be a member of rl.
func (m *Manager) listRemove(rl *regionList, idx int32) {
	c := m.cellAt(idx)
	if c.prev != nilCell {
		m.cellAt(c.prev).next = c.next
	} else {
		rl.head = c.next
	}
	if c.next != nilCell {
		m.cellAt(c.next).prev = c.prev
	} else {
		rl.tail = c.prev
	}
	c.prev, c.next = nilCell, nilCell
	rl.count--
}
