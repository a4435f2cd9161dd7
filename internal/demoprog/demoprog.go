// Package demoprog interprets the small scripting language cmd/heapdemo
// drives the runtime with: one verb per line, operating on a table of
// named string values. It exists to give the managed-heap runtime a
// runnable surface to exercise from the command line and from the REPL,
// small enough to embed directly in the CLI.
package demoprog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/latticelang/heaprt/builtin"
	"github.com/latticelang/heaprt/heap"
)

// Machine holds one script's interpreter state: the manager it allocates
// through, the root frame its named values live in, and the name table
// itself. Names map to root-table slot indices rather than to *String
// directly, so unrooting a name really does drop the collector's only
// reference to it.
type Machine struct {
	Manager *heap.Manager
	Printer *builtin.Printer
	frame   *heap.Frame
	slots   map[string]int
	free    []int
}

// New creates a Machine whose frame starts with no root slots and grows
// its root table as new names are declared.
func New(mgr *heap.Manager, p *builtin.Printer) *Machine {
	return &Machine{
		Manager: mgr,
		Printer: p,
		frame:   heap.NewFrame(nil, mgr, 0),
		slots:   make(map[string]int),
	}
}

func (m *Machine) slot(name string) int {
	if i, ok := m.slots[name]; ok {
		return i
	}
	var i int
	if n := len(m.free); n > 0 {
		i = m.free[n-1]
		m.free = m.free[:n-1]
	} else {
		i = len(m.frame.Roots)
		m.frame.Roots = append(m.frame.Roots, nil)
	}
	m.slots[name] = i
	return i
}

func (m *Machine) get(name string) (*builtin.String, error) {
	i, ok := m.slots[name]
	if !ok {
		return nil, fmt.Errorf("demoprog: undefined name %q", name)
	}
	obj := m.frame.Root(i)
	if obj == nil {
		return nil, fmt.Errorf("demoprog: %q is unrooted", name)
	}
	return obj.(*builtin.String), nil
}

func (m *Machine) set(name string, s *builtin.String) {
	m.frame.SetRoot(m.slot(name), s)
}

// Run interprets one line. Recognised verbs:
//
//	alloc NAME TEXT        - wrap a Go string literal as a new OWNED String
//	concat DST A B         - DST = concat(A, B)
//	slice DST SRC START END - DST = slice(SRC, START, END)
//	repeat DST SRC N       - DST = repeat(SRC, N)
//	equal A B              - print whether equal(A, B)
//	root NAME              - no-op; alloc/concat/slice/repeat already root
//	unroot NAME            - clear NAME's root slot
//	print NAME / println NAME
//	gc                     - run GCStart to completion
//	stats                  - print a one-line stats snapshot
func (m *Machine) Run(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "alloc":
		if len(args) < 2 {
			return fmt.Errorf("usage: alloc NAME TEXT...")
		}
		s, err := builtin.NewLiteral(m.frame, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		m.set(args[0], s)

	case "concat":
		if len(args) != 3 {
			return fmt.Errorf("usage: concat DST A B")
		}
		a, err := m.get(args[1])
		if err != nil {
			return err
		}
		b, err := m.get(args[2])
		if err != nil {
			return err
		}
		out, err := builtin.Concat(m.frame, a, b)
		if err != nil {
			return err
		}
		m.set(args[0], out)

	case "slice":
		if len(args) != 4 {
			return fmt.Errorf("usage: slice DST SRC START END")
		}
		src, err := m.get(args[1])
		if err != nil {
			return err
		}
		start, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		end, err := strconv.Atoi(args[3])
		if err != nil {
			return err
		}
		out, err := builtin.Slice(m.frame, src, start, end)
		if err != nil {
			return err
		}
		m.set(args[0], out)

	case "repeat":
		if len(args) != 3 {
			return fmt.Errorf("usage: repeat DST SRC N")
		}
		src, err := m.get(args[1])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		out, err := builtin.Repeat(m.frame, src, n)
		if err != nil {
			return err
		}
		m.set(args[0], out)

	case "equal":
		if len(args) != 2 {
			return fmt.Errorf("usage: equal A B")
		}
		a, err := m.get(args[0])
		if err != nil {
			return err
		}
		b, err := m.get(args[1])
		if err != nil {
			return err
		}
		m.Printer.PrintlnBool(builtin.Equal(a, b))

	case "root":
		if len(args) != 1 {
			return fmt.Errorf("usage: root NAME")
		}
		if _, err := m.get(args[0]); err != nil {
			return err
		}

	case "unroot":
		if len(args) != 1 {
			return fmt.Errorf("usage: unroot NAME")
		}
		i, ok := m.slots[args[0]]
		if !ok {
			return fmt.Errorf("demoprog: undefined name %q", args[0])
		}
		m.frame.SetRoot(i, nil)
		delete(m.slots, args[0])
		m.free = append(m.free, i)

	case "print":
		if len(args) != 1 {
			return fmt.Errorf("usage: print NAME")
		}
		s, err := m.get(args[0])
		if err != nil {
			return err
		}
		m.Printer.Print(s)

	case "println":
		if len(args) != 1 {
			return fmt.Errorf("usage: println NAME")
		}
		s, err := m.get(args[0])
		if err != nil {
			return err
		}
		m.Printer.Println(s)

	case "gc":
		m.Manager.GCStart(m.frame)

	case "stats":
		st := m.Manager.Stats()
		fmt.Fprintf(m.Printer, "mallocs=%d frees=%d from=%d to=%d new=%d free=%d numgc=%d\n",
			st.Mallocs, st.Frees, st.FromCount, st.ToCount, st.NewCount, st.FreeCount, st.NumGC)

	default:
		return fmt.Errorf("demoprog: unknown verb %q", verb)
	}
	return nil
}
