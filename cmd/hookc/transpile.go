package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hookc/internal/diagfmt"
	"hookc/internal/driver"
	"hookc/internal/pipeline"
)

var transpileOpts = struct {
	transpileFlags
	outDir string
	stdout bool
}{}

func init() {
	fl := transpileCmd.Flags()
	fl.BoolVar(&transpileOpts.typescript, "typescript", false, "strip TypeScript syntax (implied by .ts/.tsx)")
	fl.StringVar(&transpileOpts.target, "target", "", "target platform (web|android|ios)")
	fl.StringVar(&transpileOpts.moduleFormat, "module-format", "", "module handling (host-bridge|source-passthrough)")
	fl.StringVar(&transpileOpts.factory, "factory", "", "JSX factory function name")
	fl.StringVar(&transpileOpts.debugLevel, "debug", "", "trace level (off|error|warn|info|trace|verbose)")
	fl.BoolVar(&transpileOpts.noCache, "no-cache", false, "bypass the result cache")
	fl.IntVar(&transpileOpts.jobs, "jobs", 0, "parallel workers for batches (0 = all CPUs)")
	fl.StringVar(&transpileOpts.ui, "ui", "auto", "interactive batch progress (auto|on|off)")
	fl.BoolVar(&transpileOpts.jsonOut, "json", false, "emit result metadata as JSON")
	fl.StringVar(&transpileOpts.outDir, "out-dir", "", "write outputs into this directory")
	fl.BoolVar(&transpileOpts.stdout, "stdout", false, "write emitted code to stdout (single file only)")
}

var transpileCmd = &cobra.Command{
	Use:   "transpile <file|dir>...",
	Short: "Transpile JSX/TSX units into runtime JavaScript",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTranspile,
}

func runTranspile(cmd *cobra.Command, args []string) error {
	colorOn, err := resolveColor(cmd)
	if err != nil {
		return err
	}
	quiet, _ := cmd.Flags().GetBool("quiet")
	transpileOpts.tsSet = cmd.Flags().Changed("typescript")

	popts, store, err := assembleOptions(transpileOpts.transpileFlags)
	if err != nil {
		return err
	}
	files, err := driver.CollectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no transpilable files found")
	}

	dopts := driver.Options{Pipeline: popts, Cache: store, Jobs: transpileOpts.jobs}
	pretty := diagfmt.PrettyOpts{Color: colorOn, Context: 1, ShowDebug: !quiet && popts.Debug.Level() > 0}

	if len(files) == 1 {
		return transpileOne(cmd, files[0], dopts, pretty)
	}
	return transpileBatch(cmd, files, dopts, pretty, quiet)
}

func transpileOne(cmd *cobra.Command, path string, dopts driver.Options, pretty diagfmt.PrettyOpts) error {
	r := driver.TranspileFile(path, dopts)
	if r.Err != nil {
		return reportUnitError(cmd, path, r.Err)
	}

	if transpileOpts.jsonOut {
		return diagfmt.ResultJSON(cmd.OutOrStdout(), r.Result, diagfmt.JSONOpts{IncludeCode: true, IncludeDebug: true, Indent: true})
	}
	if transpileOpts.stdout {
		fmt.Fprint(cmd.OutOrStdout(), r.Result.Code)
		return nil
	}
	out, err := writeOutput(path, r.Result)
	if err != nil {
		return err
	}
	diagfmt.Result(cmd.OutOrStdout(), out, r.Result, pretty)
	return nil
}

func transpileBatch(cmd *cobra.Command, files []string, dopts driver.Options, pretty diagfmt.PrettyOpts, quiet bool) error {
	useTUI, err := resolveUI(transpileOpts.ui)
	if err != nil {
		return err
	}

	var results []driver.FileResult
	if useTUI && !transpileOpts.jsonOut {
		results, err = runBatchWithUI(context.Background(), "transpiling hooks", files, dopts)
	} else {
		progress := func(r driver.FileResult) {
			if quiet || transpileOpts.jsonOut {
				return
			}
			status := "ok"
			if r.Cached {
				status = "cached"
			}
			if r.Err != nil {
				status = "error"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%-8s %s (%s)\n", status, r.Path, r.Duration.Round(time.Millisecond))
		}
		results, err = driver.TranspileBatch(context.Background(), files, dopts, progress)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_ = reportUnitError(cmd, r.Path, r.Err)
			continue
		}
		if _, err := writeOutput(r.Path, r.Result); err != nil {
			return err
		}
		if transpileOpts.jsonOut {
			if err := diagfmt.ResultJSON(cmd.OutOrStdout(), r.Result, diagfmt.JSONOpts{Indent: false}); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(files))
	}
	return nil
}

// reportUnitError renders a structured pipeline error with source context,
// or the raw error for I/O failures.
func reportUnitError(cmd *cobra.Command, path string, err error) error {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		src, _ := os.ReadFile(path)
		colorOn, _ := cmd.Flags().GetString("color")
		diagfmt.Error(cmd.ErrOrStderr(), path, src, perr, diagfmt.PrettyOpts{Color: colorOn != "off", Context: 1})
		return err
	}
	return err
}

// writeOutput places the emitted code next to the input (or under
// --out-dir) with a .js extension.
func writeOutput(inPath string, res *pipeline.Result) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath)) + ".js"
	dir := filepath.Dir(inPath)
	if transpileOpts.outDir != "" {
		dir = transpileOpts.outDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	out := filepath.Join(dir, base)
	if out == inPath {
		out = filepath.Join(dir, strings.TrimSuffix(base, ".js")+".out.js")
	}
	if err := os.WriteFile(out, []byte(res.Code), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
