package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ccs-atlas/internal/config"
	"github.com/sells-group/ccs-atlas/internal/export"
	"github.com/sells-group/ccs-atlas/internal/seed"
	"github.com/sells-group/ccs-atlas/pkg/geocode"
)

var mcsSeedPath string

var mcsCmd = &cobra.Command{
	Use:   "mcs",
	Short: "Geocode the MCS seed list and render a map",
	Long:  "Loads the curated MCS site list, geocodes each site through Nominatim, and writes a GeoJSON file and a Leaflet HTML map.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mcsSeedPath != "" {
			cfg.MCS.SeedPath = mcsSeedPath
		}
		if err := cfg.Validate("mcs"); err != nil {
			return err
		}

		ctx := cmd.Context()
		opts := geocodeOptions(cfg)
		if cfg.Geocode.CachePath != "" {
			cache, err := geocode.OpenSQLiteCache(ctx, cfg.Geocode.CachePath)
			if err != nil {
				return err
			}
			defer cache.Close() //nolint:errcheck
			opts = append(opts, geocode.WithCache(cache))
		}

		gc := geocode.NewClient(cfg.Geocode.UserAgent, opts...)
		return runMCS(ctx, cfg, gc, cmd.OutOrStdout())
	},
}

func geocodeOptions(c *config.Config) []geocode.Option {
	hc := &http.Client{Timeout: time.Duration(c.Geocode.TimeoutSecs) * time.Second}
	return []geocode.Option{
		geocode.WithProvider(geocode.NewNominatim(c.Geocode.UserAgent, hc).WithBaseURL(c.Geocode.BaseURL)),
		geocode.WithMinDelay(time.Duration(c.Geocode.MinDelayMs) * time.Millisecond),
		geocode.WithRetries(c.Geocode.MaxRetries, time.Duration(c.Geocode.ErrorWaitMs)*time.Millisecond),
	}
}

func runMCS(ctx context.Context, c *config.Config, gc geocode.Client, w io.Writer) error {
	sites, err := seed.Load(c.MCS.SeedPath)
	if err != nil {
		return err
	}

	res, err := seed.Enrich(ctx, gc, sites)
	if err != nil {
		return err
	}

	geoPath := filepath.Join(c.Output.Dir, c.MCS.OutputFile)
	if err := export.WriteGeoJSON(geoPath, res.Sites); err != nil {
		return err
	}
	mapPath := filepath.Join(c.Output.Dir, c.MCS.MapFile)
	if err := export.WriteMap(mapPath, res.Sites, export.MapOptions{Title: "MCS charging sites in Europe"}); err != nil {
		return err
	}

	zap.L().Info("mcs: geocoding complete",
		zap.Int("seeds", len(sites)),
		zap.Int("geocoded", len(res.Sites)),
		zap.Int("unresolved", len(res.Unresolved)),
		zap.String("output", geoPath),
		zap.String("map", mapPath),
	)
	fmt.Fprintf(w, "Wrote %d MCS sites to %s\n", len(res.Sites), geoPath)
	fmt.Fprintf(w, "Map written to %s\n", mapPath)
	return nil
}

func init() {
	mcsCmd.Flags().StringVar(&mcsSeedPath, "seed", "", "seed list path, JSON or YAML (default from config)")
	rootCmd.AddCommand(mcsCmd)
}
