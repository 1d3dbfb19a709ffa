package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"hookc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "hookc",
	Short: "JSX/TSX hook transpiler",
	Long:  `hookc turns JSX and TSX hook modules into runtime-ready JavaScript`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(transpileCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
