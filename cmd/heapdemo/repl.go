package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive demoprog session",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, p, err := newMachine(os.Stdout)
			if err != nil {
				return err
			}
			defer p.Flush()

			rl, err := readline.New("heap> ")
			if err != nil {
				return err
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if err == io.EOF || err == readline.ErrInterrupt {
					return nil
				}
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "quit" || line == "exit" {
					return nil
				}
				if err := m.Run(line); err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				p.Flush()
			}
		},
	}
	addManagerFlags(cmd)
	return cmd
}
