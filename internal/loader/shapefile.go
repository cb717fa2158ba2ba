package loader

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ccs-atlas/internal/normalize"
)

// LoadShapefile reads point shapes and their DBF attributes. The .dbf and
// .shx siblings must sit next to the .shp. Blank attributes are left out;
// lat/lon come from the point unless an attribute already uses the name.
func LoadShapefile(_ context.Context, path string, _ Options) ([]normalize.Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var records []normalize.Record
	for reader.Next() {
		_, shape := reader.Shape()
		x, y, ok := shapePoint(shape)
		if !ok {
			continue
		}

		rec := make(normalize.Record, len(names)+2)
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				rec[name] = val
			}
		}
		setDefault(rec, "lat", y)
		setDefault(rec, "lon", x)
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "loader: read shapefile %s", path)
	}
	return records, nil
}

func shapePoint(s shp.Shape) (x, y float64, ok bool) {
	switch p := s.(type) {
	case *shp.Point:
		return p.X, p.Y, true
	case *shp.PointZ:
		return p.X, p.Y, true
	case *shp.PointM:
		return p.X, p.Y, true
	default:
		return 0, 0, false
	}
}
