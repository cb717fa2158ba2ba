package loader

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// LoadXLSX reads the first worksheet; the first non-blank row is the header.
func LoadXLSX(_ context.Context, path string, _ Options) ([]normalize.Record, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read xlsx %s", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]normalize.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, rowRecord(header, row))
	}
	return records, nil
}
