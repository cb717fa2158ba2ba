package loader

import (
	"context"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// LoadCSV reads a delimited table with a header row. Each data row becomes
// one record keyed by header name. Header names and cells are trimmed of
// surrounding whitespace. Cells missing from short rows are absent;
// extra cells are dropped. Any syntax error fails the whole file.
func LoadCSV(ctx context.Context, path string, opts Options) ([]normalize.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{Charset: opts.CSVCharset, TrimSpace: true})

	var header []string
	var records []normalize.Record
	for row := range rowCh {
		if header == nil {
			header = row
			continue
		}
		records = append(records, rowRecord(header, row))
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "loader: read csv %s", path)
	}
	return records, nil
}

// rowRecord zips header and cells. Duplicate header names keep the last cell.
func rowRecord(header, cells []string) normalize.Record {
	rec := make(normalize.Record, len(header))
	for i, name := range header {
		if i >= len(cells) {
			break
		}
		rec[name] = cells[i]
	}
	return rec
}
