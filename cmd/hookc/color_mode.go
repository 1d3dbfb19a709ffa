package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// resolveColor reads the persistent --color flag and returns whether output
// should be colorized, also wiring the global color toggle.
func resolveColor(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, err
	}
	on, err := resolveTriState("--color", value)
	if err != nil {
		return false, err
	}
	color.NoColor = !on
	return on, nil
}

// resolveUI reads the --ui flag value for batch runs.
func resolveUI(value string) (bool, error) {
	return resolveTriState("--ui", value)
}

// resolveTriState maps an auto|on|off flag value to a boolean, with "auto"
// meaning "stdout is a terminal".
func resolveTriState(flag, value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid %s value %q (expected auto|on|off)", flag, value)
}
