package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"hookc/internal/scan"
	"hookc/internal/source"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Show the lexical context spans of a unit",
	Long: `scan prints each String/Comment/Template/Code region the context
tracker derives for a unit. Useful for debugging why an operator was or
was not rewritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	if _, err := resolveColor(cmd); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(args[0], data)
	text := fs.Get(id).Content
	spans, err := scan.Scan(text)
	if err != nil {
		return err
	}
	for _, sp := range spans {
		start := fs.Pos(id, sp.Start)
		preview := previewText(text[sp.Start:sp.End])
		fmt.Fprintf(cmd.OutOrStdout(), "%4d:%-3d %-13s [%d..%d) %s\n",
			start.Line, start.Col, sp.Ctx, sp.Start, sp.End, preview)
	}
	return nil
}

func previewText(b []byte) string {
	s := strings.ReplaceAll(string(b), "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	if len(s) > 48 {
		s = s[:45] + "..."
	}
	return s
}
