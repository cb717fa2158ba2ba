package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sells-group/ccs-atlas/internal/batch"
	"github.com/sells-group/ccs-atlas/internal/config"
	"github.com/sells-group/ccs-atlas/internal/loader"
)

var (
	napRawDir  string
	napOutput  string
	napWorkers int
)

var napCmd = &cobra.Command{
	Use:   "nap",
	Short: "Import National Access Point exports into a CCS GeoJSON file",
	Long:  "Walks the raw NAP directory, loads every CSV, GeoJSON, XLSX, shapefile and ZIP export, keeps CCS sites of at least 50 kW, and writes one FeatureCollection.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if napRawDir != "" {
			cfg.NAP.RawDir = napRawDir
		}
		if napWorkers > 0 {
			cfg.NAP.Workers = napWorkers
		}
		if err := cfg.Validate("nap"); err != nil {
			return err
		}
		return runNAP(cmd.Context(), cfg, napOutputPath(cfg), cmd.OutOrStdout())
	},
}

func napOutputPath(c *config.Config) string {
	if napOutput != "" {
		return napOutput
	}
	return filepath.Join(c.Output.Dir, c.NAP.OutputFile)
}

func runNAP(ctx context.Context, c *config.Config, out string, w io.Writer) error {
	res, err := batch.Run(ctx, batch.Options{
		RootDir:    c.NAP.RawDir,
		OutputPath: out,
		Workers:    c.NAP.Workers,
		Loader: loader.Options{
			CSVCharset: c.NAP.CSVCharset,
			TempDir:    c.NAP.TempDir,
		},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d CCS features to %s\n", len(res.Sites), res.OutputPath)
	return nil
}

func init() {
	napCmd.Flags().StringVar(&napRawDir, "raw-dir", "", "directory of raw NAP exports (default from config)")
	napCmd.Flags().StringVar(&napOutput, "out", "", "output GeoJSON path (default from config)")
	napCmd.Flags().IntVar(&napWorkers, "workers", 0, "files loaded concurrently (default from config)")
	rootCmd.AddCommand(napCmd)
}
