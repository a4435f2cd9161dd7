package heap

import "fmt"

// checkInvariants verifies that every region list partitions the heap
// correctly: each cell's stored region tag, payload, and colour bits agree
// with the list it's found in. Only ever called when Config.Asserts is
// set, since it walks every region list and isn't cheap.
func (m *Manager) checkInvariants() error {
	if err := m.checkRegion(&m.from, regionFrom); err != nil {
		return err
	}
	if err := m.checkRegion(&m.to, regionTo); err != nil {
		return err
	}
	if err := m.checkRegion(&m.new, regionNew); err != nil {
		return err
	}
	return nil
}

// checkRegion walks one region's list and verifies: every member's stored
// region tag matches, every member holds a non-nil payload whose own
// back-pointer (Header.cell) points back at the cell holding it, and the
// colour bits match what that region implies.
func (m *Manager) checkRegion(rl *regionList, want cellRegion) error {
	seen := 0
	for idx := rl.head; idx != nilCell; {
		c := m.cellAt(idx)
		if c.region != want {
			return fmt.Errorf("heap: cell %d in %s list has region tag %s", idx, want, c.region)
		}
		if c.data == nil {
			return fmt.Errorf("heap: cell %d in %s list has no payload", idx, want)
		}
		h := c.data.Header()
		if h.cell != idx {
			return fmt.Errorf("heap: cell %d payload back-pointer points at %d instead", idx, h.cell)
		}
		switch want {
		case regionTo:
			if !h.tag.IsGray() {
				return fmt.Errorf("heap: cell %d in to-region is not GRAY", idx)
			}
		case regionFrom:
			if h.tag.IsGray() {
				return fmt.Errorf("heap: cell %d in from-region is unexpectedly GRAY", idx)
			}
			if m.isAlive(h.tag) && m.gcInProgress {
				return fmt.Errorf("heap: cell %d in from-region is alive-coloured mid-cycle", idx)
			}
		case regionNew:
			if h.tag.IsGray() {
				return fmt.Errorf("heap: cell %d in new-region is unexpectedly GRAY", idx)
			}
		}
		seen++
		idx = c.next
	}
	if seen != rl.count {
		return fmt.Errorf("heap: %s list count mismatch: walked %d, tracked %d", want, seen, rl.count)
	}
	return nil
}
