package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticelang/heaprt/builtin"
	"github.com/latticelang/heaprt/heap"
	"github.com/latticelang/heaprt/internal/demoprog"
)

var (
	flagBlockCapacity int
	flagMaxBlocks     int
	flagAsserts       bool
)

func addManagerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagBlockCapacity, "block-capacity", 0, "cells per arena block (0 = runtime default)")
	cmd.Flags().IntVar(&flagMaxBlocks, "max-blocks", 0, "cap on arena blocks before AllocFailure (0 = unlimited)")
	cmd.Flags().BoolVar(&flagAsserts, "asserts", false, "run collector invariant checks after every allocation")
}

func newMachine(out *os.File) (*demoprog.Machine, *builtin.Printer, error) {
	mgr, err := heap.NewManager(heap.Config{
		BlockCapacity: flagBlockCapacity,
		MaxBlocks:     flagMaxBlocks,
		Asserts:       flagAsserts,
	})
	if err != nil {
		return nil, nil, err
	}
	p := builtin.NewPrinter(out)
	return demoprog.New(mgr, p), p, nil
}

func newRunCmd() *cobra.Command {
	var scriptPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Interpret a demoprog script file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptPath == "" {
				return fmt.Errorf("heapdemo run: --script is required")
			}
			f, err := os.Open(scriptPath)
			if err != nil {
				return err
			}
			defer f.Close()

			m, p, err := newMachine(os.Stdout)
			if err != nil {
				return err
			}
			defer p.Flush()

			scanner := bufio.NewScanner(f)
			for lineNo := 1; scanner.Scan(); lineNo++ {
				if err := m.Run(scanner.Text()); err != nil {
					return fmt.Errorf("%s:%d: %w", scriptPath, lineNo, err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "path to a demoprog script")
	addManagerFlags(cmd)
	return cmd
}
