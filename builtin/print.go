package builtin

import (
	"bufio"
	"io"
	"strconv"
)

// Printer is a thin, buffered wrapper around an injectable io.Writer
// (stdout in production, a bytes.Buffer in tests) so output is both
// testable and avoids a syscall per print call.
type Printer struct {
	w *bufio.Writer
}

// NewPrinter wraps w in a buffered Printer. Callers must call Flush when
// done.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: bufio.NewWriter(w)}
}

// PrintI32 writes n's decimal form with no trailing newline.
func (p *Printer) PrintI32(n int32) {
	p.w.WriteString(strconv.FormatInt(int64(n), 10))
}

// PrintlnI32 writes n's decimal form followed by a newline.
func (p *Printer) PrintlnI32(n int32) {
	p.PrintI32(n)
	p.w.WriteByte('\n')
}

// PrintBool writes "true" or "false" with no trailing newline.
func (p *Printer) PrintBool(b bool) {
	p.w.WriteString(strconv.FormatBool(b))
}

// PrintlnBool writes "true" or "false" followed by a newline.
func (p *Printer) PrintlnBool(b bool) {
	p.PrintBool(b)
	p.w.WriteByte('\n')
}

// Print writes s's bytes with no trailing newline.
func (p *Printer) Print(s *String) {
	p.w.Write(s.Bytes())
}

// Println writes s's bytes followed by a newline.
func (p *Printer) Println(s *String) {
	p.Print(s)
	p.w.WriteByte('\n')
}

// Write implements io.Writer directly against the buffer, for callers
// (such as the stats one-liner in internal/demoprog) that want fmt.Fprintf
// instead of the typed Print* helpers.
func (p *Printer) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// Flush pushes any buffered output to the underlying writer. Compiled
// code is expected to call this at program exit; in cmd/heapdemo the REPL
// calls it after every successful command and the script runner once when
// it returns.
func (p *Printer) Flush() error {
	return p.w.Flush()
}
