package main

import (
	"fmt"

	"hookc/internal/cache"
	"hookc/internal/debug"
	"hookc/internal/pipeline"
	"hookc/internal/project"
)

// transpileFlags are the per-invocation overrides shared by the transpile
// and imports commands. Empty strings mean "use the manifest value".
type transpileFlags struct {
	typescript   bool
	tsSet        bool
	target       string
	moduleFormat string
	factory      string
	debugLevel   string
	noCache      bool
	jobs         int
	ui           string
	jsonOut      bool
}

// assembleOptions layers flags over the nearest hookc.toml (or defaults
// when none exists) and opens the cache when it is enabled.
func assembleOptions(f transpileFlags) (pipeline.Options, *cache.Store, error) {
	manifest := project.Default()
	manifest.Project.Name = "hookc"
	if path, ok, err := project.FindManifest("."); err != nil {
		return pipeline.Options{}, nil, err
	} else if ok {
		manifest, err = project.Load(path)
		if err != nil {
			return pipeline.Options{}, nil, err
		}
	}

	if f.target != "" {
		manifest.Transpile.Target = f.target
	}
	if f.moduleFormat != "" {
		manifest.Transpile.ModuleFormat = f.moduleFormat
	}
	if f.factory != "" {
		manifest.Transpile.Factory = f.factory
	}
	if f.debugLevel != "" {
		manifest.Transpile.Debug = f.debugLevel
	}
	if f.tsSet {
		manifest.Transpile.TypeScript = f.typescript
	}

	level, err := debug.ParseLevel(manifest.Transpile.Debug)
	if err != nil {
		return pipeline.Options{}, nil, err
	}
	opts, err := manifest.PipelineOptions(debug.New(level))
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	var store *cache.Store
	if manifest.Cache.Enabled && !f.noCache {
		if manifest.Cache.Dir != "" {
			store, err = cache.OpenAt(manifest.Cache.Dir)
		} else {
			store, err = cache.Open("hookc")
		}
		if err != nil {
			return pipeline.Options{}, nil, fmt.Errorf("failed to open cache: %w", err)
		}
	}
	return opts, store, nil
}
