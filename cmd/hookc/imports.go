package main

import (
	"os"

	"github.com/spf13/cobra"

	"hookc/internal/debug"
	"hookc/internal/diagfmt"
	"hookc/internal/imports"
	"hookc/internal/scan"
	"hookc/internal/source"
)

var importsIndent bool

func init() {
	importsCmd.Flags().BoolVar(&importsIndent, "indent", false, "pretty-print the JSON")
}

var importsCmd = &cobra.Command{
	Use:   "imports <file>...",
	Short: "Extract import metadata as JSON for host pre-fetchers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImports,
}

func runImports(cmd *cobra.Command, args []string) error {
	if _, err := resolveColor(cmd); err != nil {
		return err
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fs := source.NewFileSet()
		text := fs.Get(fs.AddVirtual(path, data)).Content
		spans, err := scan.Scan(text)
		if err != nil {
			return err
		}
		records, err := imports.Extract(text, spans, debug.New(debug.LevelOff))
		if err != nil {
			return err
		}
		if err := diagfmt.ImportsJSON(cmd.OutOrStdout(), records, diagfmt.JSONOpts{Indent: importsIndent}); err != nil {
			return err
		}
	}
	return nil
}
