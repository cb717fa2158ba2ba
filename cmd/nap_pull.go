package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ccs-atlas/internal/batch"
	"github.com/sells-group/ccs-atlas/internal/config"
	"github.com/sells-group/ccs-atlas/internal/fetcher"
	"github.com/sells-group/ccs-atlas/internal/resilience"
)

const napUserAgent = "ccs-atlas/1.0 (+https://github.com/sells-group/ccs-atlas)"

var napPullCmd = &cobra.Command{
	Use:   "pull [url...]",
	Short: "Download NAP exports into the raw directory",
	Long:  "Downloads every configured nap.sources URL (http, https or ftp) into nap.raw_dir. URLs given as arguments replace the configured list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cfg.NAP.Sources = args
		}
		if err := cfg.Validate("nap-pull"); err != nil {
			return err
		}
		return runNAPPull(cmd.Context(), cfg, newNAPFetcher(cfg), cmd.OutOrStdout())
	},
}

func newNAPFetcher(c *config.Config) fetcher.Fetcher {
	retry := resilience.FromMillis(c.NAP.RetryAttempts, c.NAP.RetryWaitMs, false)
	retry.OnRetry = resilience.RetryLogger("nap", "download")
	return &fetcher.Multi{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: napUserAgent,
			Timeout:   5 * time.Minute,
			Retry:     retry,
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: 60 * time.Second}),
	}
}

func runNAPPull(ctx context.Context, c *config.Config, f fetcher.Fetcher, w io.Writer) error {
	if len(c.NAP.Sources) == 0 {
		zap.L().Warn("no NAP sources configured", zap.String("key", "nap.sources"))
		fmt.Fprintln(w, "No NAP sources configured")
		return nil
	}

	res, err := batch.Pull(ctx, f, c.NAP.Sources, c.NAP.RawDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Downloaded %d of %d sources to %s\n", len(res.Downloaded), len(c.NAP.Sources), c.NAP.RawDir)
	return nil
}

func init() {
	napCmd.AddCommand(napPullCmd)
}
