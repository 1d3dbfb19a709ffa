package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"hookc/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a hookc project",
	Long: `Initialize a hookc project by creating a manifest (hookc.toml) and a
starter hook (example.jsx). If [path|name] is omitted, initializes the
current directory. A non-existing name creates a directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else if filepath.IsAbs(args[0]) {
		target = args[0]
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = filepath.Join(wd, args[0])
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	if root, ok, err := project.FindRoot(target); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("already inside a hookc project rooted at %s", root)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "hookc-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if err := project.WriteDefault(manifestPath, name); err != nil {
		return err
	}

	examplePath := filepath.Join(target, "example.jsx")
	createdExample := false
	if _, err := os.Stat(examplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(examplePath, []byte(defaultHook()), 0o644); err != nil {
			return fmt.Errorf("failed to write example.jsx: %w", err)
		}
		createdExample = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, rerr := filepath.Rel(wd, target); rerr == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized hookc project in %s\n", rel)
	fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", project.ManifestName)
	if createdExample {
		fmt.Fprintln(cmd.OutOrStdout(), "  - example.jsx")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "  - example.jsx (existing)")
	}
	return nil
}

func defaultHook() string {
	return `import { useState } from 'react';

export default function ExampleHook() {
  const [count, setCount] = useState(0);
  return (
    <div className="example">
      <button onClick={() => setCount(count + 1)}>Count: {count}</button>
    </div>
  );
}
`
}
