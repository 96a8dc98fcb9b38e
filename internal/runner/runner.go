// Package runner executes the rewrite engine across a set of files. Files
// are independent, so they are processed by a bounded worker pool; each
// worker owns its engine invocation outright and shares nothing but the
// result cache, which is concurrency-safe.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/esfix/esfix/internal/log"
	"github.com/esfix/esfix/internal/scanner"
	"github.com/esfix/esfix/pkg/cache"
	"github.com/esfix/esfix/pkg/engine"
	"github.com/esfix/esfix/pkg/parser"
)

// Options configures one run.
type Options struct {
	Level  engine.Level
	Jobs   int  // worker count; 0 means NumCPU
	DryRun bool // report what would change without writing
	Cache  *cache.Cache
	Logger log.Logger
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path      string
	Modified  bool
	Changes   []engine.Change
	FromCache bool
	Err       error
}

// Report aggregates a whole run. Parse failures are collected, not fatal:
// one legacy file with broken syntax must not block the rest of the tree.
type Report struct {
	FilesSeen     int
	FilesModified int
	ChangesByRule map[string]int
	ParseFailures []string
	Results       []FileResult
}

// TotalChanges returns the number of individual rule applications.
func (r *Report) TotalChanges() int {
	total := 0
	for _, n := range r.ChangesByRule {
		total += n
	}
	return total
}

// Runner drives the worker pool.
type Runner struct {
	opts Options
}

// New creates a Runner. A nil logger falls back to the shared default.
func New(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Runner{opts: opts}
}

// Run processes every file and returns the aggregated report. The error
// return covers I/O-level failures and context cancellation only.
func (r *Runner) Run(ctx context.Context, files []scanner.FileInfo) (*Report, error) {
	report := &Report{
		FilesSeen:     len(files),
		ChangesByRule: make(map[string]int),
	}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := r.fixFile(file)
			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, res)
			if res.Err != nil {
				if _, isParse := res.Err.(*parser.ParseError); isParse {
					report.ParseFailures = append(report.ParseFailures, res.Path)
					return nil
				}
				return fmt.Errorf("%s: %w", res.Path, res.Err)
			}
			if res.Modified {
				report.FilesModified++
			}
			for _, c := range res.Changes {
				report.ChangesByRule[c.Type]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Path < report.Results[j].Path
	})
	sort.Strings(report.ParseFailures)
	return report, nil
}

// fixFile transforms one file, consulting the cache first and writing the
// result back unless this is a dry run.
func (r *Runner) fixFile(file scanner.FileInfo) FileResult {
	out := FileResult{Path: file.Path}

	content, err := os.ReadFile(file.FullPath)
	if err != nil {
		out.Err = err
		return out
	}

	var key string
	if r.opts.Cache != nil {
		key = cache.Key(content, r.opts.Level)
		if hit, ok := r.opts.Cache.Get(key); ok {
			r.opts.Logger.Debug("cache hit", "path", file.Path)
			out.Modified = hit.Modified
			out.Changes = hit.Changes
			out.FromCache = true
			if hit.Modified && !r.opts.DryRun {
				out.Err = writeBack(file.FullPath, hit.Code)
			}
			return out
		}
	}

	res, err := engine.Transform(string(content), r.opts.Level)
	if err != nil {
		out.Err = err
		return out
	}
	r.opts.Logger.Debug("transformed",
		"path", file.Path, "modified", res.Modified, "changes", len(res.Changes))

	if r.opts.Cache != nil {
		r.opts.Cache.Set(key, &cache.Result{
			Code: res.Code, Modified: res.Modified, Changes: res.Changes,
		})
	}

	out.Modified = res.Modified
	out.Changes = res.Changes
	if res.Modified && !r.opts.DryRun {
		out.Err = writeBack(file.FullPath, res.Code)
	}
	return out
}

func writeBack(path, code string) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(code), mode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
