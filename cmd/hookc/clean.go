package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hookc/internal/cache"
	"hookc/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clear the transpile result cache",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	dir := ""
	if path, ok, err := project.FindManifest("."); err == nil && ok {
		if m, merr := project.Load(path); merr == nil {
			dir = m.Cache.Dir
		}
	}

	var store *cache.Store
	var err error
	if dir != "" {
		store, err = cache.OpenAt(dir)
	} else {
		store, err = cache.Open("hookc")
	}
	if err != nil {
		return err
	}
	if err := store.DropAll(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
	return nil
}
