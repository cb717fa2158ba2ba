package seed

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ccs-atlas/internal/model"
	"github.com/sells-group/ccs-atlas/pkg/geocode"
)

// Result holds the geocoded sites and the entries that could not be placed.
type Result struct {
	Sites      []model.Site
	Unresolved []Site
}

// Enrich geocodes each seed entry by "city, country", falling back to
// "name, city, country". Entries neither query resolves are logged and
// left out. Order follows the seed list.
func Enrich(ctx context.Context, gc geocode.Client, sites []Site) (*Result, error) {
	log := zap.L().With(zap.String("component", "seed"))

	res := &Result{Sites: make([]model.Site, 0, len(sites))}
	for _, s := range sites {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "seed: enrich cancelled")
		}

		loc, query := geocode.FirstMatch(ctx, gc, s.Query(), s.AltQuery())
		if loc == nil {
			log.Warn("could not geocode", zap.String("query", s.Query()))
			res.Unresolved = append(res.Unresolved, s)
			continue
		}

		log.Info("geocoded site",
			zap.String("name", s.Name),
			zap.String("query", query),
			zap.Float64("lat", loc.Latitude),
			zap.Float64("lon", loc.Longitude),
		)
		res.Sites = append(res.Sites, model.Site{
			Longitude: loc.Longitude,
			Latitude:  loc.Latitude,
			Name:      s.Name,
			City:      s.City,
			Country:   s.Country,
			Operator:  s.Operator,
			Status:    s.Status,
			Source:    s.Source,
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "seed: enrich cancelled")
	}
	return res, nil
}
