// Package batch drives the NAP import: walk the raw directory, load each
// supported file, normalize its records, and write one FeatureCollection.
package batch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ccs-atlas/internal/export"
	"github.com/sells-group/ccs-atlas/internal/loader"
	"github.com/sells-group/ccs-atlas/internal/model"
	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// Options configures a batch run.
type Options struct {
	RootDir    string
	OutputPath string
	Workers    int // files loaded concurrently, <= 0 means 1
	Loader     loader.Options
}

// Result summarizes a batch run.
type Result struct {
	Sites      []model.Site
	Files      int // supported files found
	Skipped    int // files that failed to load
	Records    int // raw records seen
	OutputPath string
}

type fileResult struct {
	sites   []model.Site
	records int
	err     error
}

// Collect walks opts.RootDir in lexical order and returns accepted sites in
// walk order, then record order within each file. A file that fails to load
// is logged and skipped. Only a missing root or cancellation is an error.
func Collect(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "batch"))

	paths, err := walk(opts.RootDir)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(gctx, path, opts.Loader)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: cancelled")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "batch: cancelled")
	}

	res := &Result{Files: len(paths), Sites: []model.Site{}}
	for i, fr := range results {
		if fr.err != nil {
			res.Skipped++
			log.Warn("skipping file", zap.String("path", paths[i]), zap.Error(fr.err))
			continue
		}
		res.Records += fr.records
		res.Sites = append(res.Sites, fr.sites...)
		log.Debug("loaded file",
			zap.String("path", paths[i]),
			zap.Int("records", fr.records),
			zap.Int("accepted", len(fr.sites)),
		)
	}
	return res, nil
}

// Run collects sites and writes them to opts.OutputPath.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res, err := Collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := export.WriteGeoJSON(opts.OutputPath, res.Sites); err != nil {
		return nil, err
	}
	res.OutputPath = opts.OutputPath

	zap.L().Info("batch: import complete",
		zap.Int("files", res.Files),
		zap.Int("skipped", res.Skipped),
		zap.Int("records", res.Records),
		zap.Int("features", len(res.Sites)),
		zap.String("output", opts.OutputPath),
	)
	return res, nil
}

func processFile(ctx context.Context, path string, opts loader.Options) fileResult {
	recs, err := loader.Load(ctx, path, opts)
	if err != nil {
		return fileResult{err: err}
	}
	var sites []model.Site
	for _, rec := range recs {
		if site, ok := normalize.Normalize(rec); ok {
			sites = append(sites, site)
		}
	}
	return fileResult{sites: sites, records: len(recs)}
}

// walk lists supported regular files under root in lexical order.
// Unreadable subdirectories are logged and skipped.
func walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: raw dir %s", root)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("batch: raw dir %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			zap.L().Warn("batch: skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && loader.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "batch: walk %s", root)
	}
	return paths, nil
}
