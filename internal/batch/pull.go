package batch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
)

// PullResult summarizes a download of NAP sources.
type PullResult struct {
	Downloaded []string // local paths, in source order
	Failed     []string // source URLs that could not be fetched
	Bytes      int64
}

// Pull downloads every source URL into dir. A failed source is logged and
// skipped; only an unusable dir or cancellation is an error.
func Pull(ctx context.Context, f fetcher.Fetcher, sources []string, dir string) (*PullResult, error) {
	log := zap.L().With(zap.String("component", "batch"))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "batch: create raw dir %s", dir)
	}

	res := &PullResult{}
	seen := make(map[string]int)
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "batch: pull cancelled")
		}

		name := uniqueName(localName(src, i), seen)
		dest := filepath.Join(dir, name)
		n, err := f.DownloadToFile(ctx, src, dest)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "batch: pull cancelled")
			}
			log.Warn("skipping source", zap.String("url", src), zap.Error(err))
			res.Failed = append(res.Failed, src)
			continue
		}

		log.Info("downloaded source",
			zap.String("url", src),
			zap.String("path", dest),
			zap.Int64("bytes", n),
		)
		res.Downloaded = append(res.Downloaded, dest)
		res.Bytes += n
	}
	return res, nil
}

// localName derives a file name from the URL path, falling back to a
// positional name when the path has none.
func localName(src string, i int) string {
	fallback := fmt.Sprintf("source-%d", i+1)
	u, err := url.Parse(src)
	if err != nil {
		return fallback
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" || strings.HasPrefix(base, ".") {
		return fallback
	}
	return base
}

// uniqueName suffixes repeated names so two sources never share a file.
// A suffixed candidate that is itself taken is skipped.
func uniqueName(name string, seen map[string]int) string {
	if seen[name] == 0 {
		seen[name] = 1
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := seen[name] + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if seen[candidate] == 0 {
			seen[name] = n
			seen[candidate] = 1
			return candidate
		}
	}
}
