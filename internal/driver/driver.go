// Package driver runs the transpile pipeline over files: one at a time
// for the CLI's single-file mode, or a bounded-parallel batch. Every unit
// is an independent pure call, so the batch needs no coordination beyond
// the worker limit.
package driver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hookc/internal/cache"
	"hookc/internal/debug"
	"hookc/internal/pipeline"
)

type Options struct {
	// Pipeline is the per-unit option template. Each unit gets its own
	// debug context derived from this one's level.
	Pipeline pipeline.Options
	// Cache is consulted before transpiling; nil disables caching.
	Cache *cache.Store
	// Jobs bounds batch parallelism; <= 0 means GOMAXPROCS.
	Jobs int
}

// FileResult is the outcome for one unit in a batch.
type FileResult struct {
	Path     string
	Result   *pipeline.Result
	Err      error
	Cached   bool
	Duration time.Duration
}

// OptionsForFile adapts the template to one file: .ts and .tsx units get
// the type-stripping pass regardless of the template.
func OptionsForFile(path string, base pipeline.Options) pipeline.Options {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		base.TypeScript = true
	}
	return base
}

// TranspileFile reads, transpiles and optionally caches one unit.
func TranspileFile(path string, opts Options) FileResult {
	start := time.Now()
	res := FileResult{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	popts := OptionsForFile(path, opts.Pipeline)
	popts.Debug = debug.New(popts.Debug.Level())

	if opts.Cache != nil {
		// GetOrCompute coalesces concurrent workers on the same key, so a
		// batch transpiles each distinct unit at most once.
		key := cache.Key(src, cache.Fingerprint(popts))
		computed := false
		out, err := opts.Cache.GetOrCompute(key, func() (*pipeline.Result, error) {
			computed = true
			return pipeline.Transpile(string(src), path, popts)
		})
		if err != nil {
			res.Err = err
		} else {
			res.Result = out
			res.Cached = !computed
		}
		res.Duration = time.Since(start)
		return res
	}

	out, err := pipeline.Transpile(string(src), path, popts)
	if err != nil {
		res.Err = err
	} else {
		res.Result = out
	}
	res.Duration = time.Since(start)
	return res
}

// TranspileBatch runs the units in parallel. Batch-level failure occurs
// only on cancellation; per-unit errors live in each FileResult. progress,
// when non-nil, is invoked once per finished unit from worker goroutines.
func TranspileBatch(ctx context.Context, paths []string, opts Options, progress func(FileResult)) ([]FileResult, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]FileResult, len(paths))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r := TranspileFile(path, opts)
			results[i] = r
			if progress != nil {
				mu.Lock()
				progress(r)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CollectFiles expands the given paths: directories are walked for
// transpilable extensions, files are taken as-is.
func CollectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".js", ".jsx", ".ts", ".tsx", ".mjs":
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
