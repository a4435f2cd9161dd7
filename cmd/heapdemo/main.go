// Command heapdemo drives the managed-heap runtime from the command line:
// either a batch script passed with --script, or an interactive readline
// REPL, both interpreted by internal/demoprog. It is grounded on
// golang.org/x/debug's cobra-plus-readline interactive debugger shape,
// adapted here to a GC exerciser instead of a process inspector.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "heapdemo",
		Short: "Exercise the treadmill allocator and collector from the command line",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	return root
}
